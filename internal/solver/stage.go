package solver

// Stage is the lifecycle position of a run.
type Stage int

const (
	StageOpening Stage = iota
	StageReadingConfig
	StageLooping
	StageClosing
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageOpening:
		return "opening"
	case StageReadingConfig:
		return "reading-config"
	case StageLooping:
		return "looping"
	case StageClosing:
		return "closing"
	case StageDone:
		return "done"
	default:
		return "unknown"
	}
}
