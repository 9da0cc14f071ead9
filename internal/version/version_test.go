package version

import "testing"

func TestString(t *testing.T) {
	oldV, oldSHA, oldTime := Version, GitSHA, BuildTime
	defer func() { Version, GitSHA, BuildTime = oldV, oldSHA, oldTime }()

	Version, GitSHA, BuildTime = "1.4.0", "abc1234", "2025-03-01T12:00:00Z"
	if got, want := String(), "1.4.0 (abc1234, built 2025-03-01T12:00:00Z)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestDefaults(t *testing.T) {
	if Version == "" || GitSHA == "" || BuildTime == "" {
		t.Errorf("build metadata must default to non-empty values, got %q %q %q", Version, GitSHA, BuildTime)
	}
}
