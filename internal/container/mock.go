package container

import (
	"fmt"
	"sync"
)

// MockGrid is a 3-D grid recorded by MockContainer.
type MockGrid struct {
	ID                  GridID
	ISize, JSize, KSize int
	X, Y, Z             []float64
}

// MockSolution is one solution block recorded by MockContainer.
type MockSolution struct {
	Time     float64
	HasTime  bool
	NodeReal map[string][]float64 // key: "<grid>/<name>"
	Coords   map[GridID][3][]float64
	Ended    bool
}

// NodeRealKey builds the MockSolution.NodeReal key for a field.
func NodeRealKey(grid GridID, name string) string {
	return fmt.Sprintf("%d/%s", grid, name)
}

// MockContainer implements Container in memory for testing. It records every
// call in Calls and enforces the solution block protocol like a real
// container does.
type MockContainer struct {
	mu sync.Mutex

	ISize, JSize int
	X, Y         []float64
	Integers     map[string]int
	Reals        map[string]float64

	// CancelAfter makes CancelRequested return true from the Nth check on.
	// Zero never cancels.
	CancelAfter int
	// Errors injects a failure for the named method, e.g. "EndSolution".
	Errors map[string]error

	Calls        []string
	Grids        []MockGrid
	Solutions    []*MockSolution
	UpdateChecks int
	CancelChecks int
	Cleared      bool
	Closed       bool

	open *MockSolution
}

// NewMockContainer creates a container holding a unit-spaced isize x jsize
// grid with x = i and y = j, and no conditions.
func NewMockContainer(isize, jsize int) *MockContainer {
	m := &MockContainer{
		ISize:    isize,
		JSize:    jsize,
		X:        make([]float64, isize*jsize),
		Y:        make([]float64, isize*jsize),
		Integers: make(map[string]int),
		Reals:    make(map[string]float64),
		Errors:   make(map[string]error),
	}
	for j := 0; j < jsize; j++ {
		for i := 0; i < isize; i++ {
			m.X[i+j*isize] = float64(i)
			m.Y[i+j*isize] = float64(j)
		}
	}
	return m
}

// MockOpener returns an Opener that always hands out m.
func MockOpener(m *MockContainer) Opener {
	return func(path string, mode Mode) (Container, error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.Calls = append(m.Calls, fmt.Sprintf("Open(%s)", mode))
		if err := m.Errors["Open"]; err != nil {
			return nil, err
		}
		return m, nil
	}
}

func (m *MockContainer) record(call string, method string) error {
	m.Calls = append(m.Calls, call)
	if m.Closed && method != "Close" {
		return ErrClosed
	}
	return m.Errors[method]
}

// CountCalls returns how many recorded calls equal call.
func (m *MockContainer) CountCalls(call string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c == call {
			n++
		}
	}
	return n
}

func (m *MockContainer) ClearSolutions() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ClearSolutions", "ClearSolutions"); err != nil {
		return err
	}
	m.Cleared = true
	m.Grids = nil
	m.Solutions = nil
	return nil
}

func (m *MockContainer) GridSize2D() (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("GridSize2D", "GridSize2D"); err != nil {
		return 0, 0, err
	}
	return m.ISize, m.JSize, nil
}

func (m *MockContainer) GridCoords2D() ([]float64, []float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("GridCoords2D", "GridCoords2D"); err != nil {
		return nil, nil, err
	}
	return append([]float64(nil), m.X...), append([]float64(nil), m.Y...), nil
}

func (m *MockContainer) ReadInteger(name string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ReadInteger("+name+")", "ReadInteger"); err != nil {
		return 0, err
	}
	v, ok := m.Integers[name]
	if !ok {
		return 0, fmt.Errorf("integer condition %q: %w", name, ErrNotFound)
	}
	return v, nil
}

func (m *MockContainer) ReadReal(name string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ReadReal("+name+")", "ReadReal"); err != nil {
		return 0, err
	}
	v, ok := m.Reals[name]
	if !ok {
		return 0, fmt.Errorf("real condition %q: %w", name, ErrNotFound)
	}
	return v, nil
}

func (m *MockContainer) WriteGrid3D(isize, jsize, ksize int, x, y, z []float64) (GridID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("WriteGrid3D", "WriteGrid3D"); err != nil {
		return 0, err
	}
	n := isize * jsize * ksize
	if len(x) != n || len(y) != n || len(z) != n {
		return 0, fmt.Errorf("grid 3d: expected %d nodes, got x=%d y=%d z=%d", n, len(x), len(y), len(z))
	}
	id := Grid2DID + GridID(len(m.Grids)+1)
	m.Grids = append(m.Grids, MockGrid{
		ID: id, ISize: isize, JSize: jsize, KSize: ksize,
		X: append([]float64(nil), x...),
		Y: append([]float64(nil), y...),
		Z: append([]float64(nil), z...),
	})
	return id, nil
}

func (m *MockContainer) BeginSolution() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("BeginSolution", "BeginSolution"); err != nil {
		return err
	}
	if m.open != nil {
		return ErrSolutionOpen
	}
	m.open = &MockSolution{
		NodeReal: make(map[string][]float64),
		Coords:   make(map[GridID][3][]float64),
	}
	m.Solutions = append(m.Solutions, m.open)
	return nil
}

func (m *MockContainer) WriteSolutionTime(t float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(fmt.Sprintf("WriteSolutionTime(%g)", t), "WriteSolutionTime"); err != nil {
		return err
	}
	if m.open == nil {
		return ErrNoSolutionOpen
	}
	m.open.Time = t
	m.open.HasTime = true
	return nil
}

func (m *MockContainer) WriteNodeReal(grid GridID, name string, values []float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(fmt.Sprintf("WriteNodeReal(%d,%s)", grid, name), "WriteNodeReal"); err != nil {
		return err
	}
	if m.open == nil {
		return ErrNoSolutionOpen
	}
	m.open.NodeReal[NodeRealKey(grid, name)] = append([]float64(nil), values...)
	return nil
}

func (m *MockContainer) WriteGridCoords3D(grid GridID, x, y, z []float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(fmt.Sprintf("WriteGridCoords3D(%d)", grid), "WriteGridCoords3D"); err != nil {
		return err
	}
	if m.open == nil {
		return ErrNoSolutionOpen
	}
	m.open.Coords[grid] = [3][]float64{
		append([]float64(nil), x...),
		append([]float64(nil), y...),
		append([]float64(nil), z...),
	}
	return nil
}

func (m *MockContainer) EndSolution() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("EndSolution", "EndSolution"); err != nil {
		return err
	}
	if m.open == nil {
		return ErrNoSolutionOpen
	}
	m.open.Ended = true
	m.open = nil
	return nil
}

func (m *MockContainer) CheckUpdate() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("CheckUpdate", "CheckUpdate"); err != nil {
		return err
	}
	m.UpdateChecks++
	return nil
}

func (m *MockContainer) CancelRequested() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("CancelRequested", "CancelRequested"); err != nil {
		return false, err
	}
	m.CancelChecks++
	return m.CancelAfter > 0 && m.CancelChecks >= m.CancelAfter, nil
}

func (m *MockContainer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("Close", "Close"); err != nil {
		return err
	}
	if m.Closed {
		return ErrClosed
	}
	m.Closed = true
	if m.open != nil {
		m.open = nil
		return ErrSolutionOpen
	}
	return nil
}
