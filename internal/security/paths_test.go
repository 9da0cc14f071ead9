package security

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveWithin(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "result"), 0o755))

	outside := t.TempDir()
	require.NoError(t, os.Symlink(outside, filepath.Join(base, "link")))

	tests := []struct {
		name    string
		rel     string
		wantErr bool
	}{
		{"existing file path", "result/Solution1.db", false},
		{"not yet created", "result/new/Solution2.db", false},
		{"dot segments inside", "result/../result/Solution1.db", false},
		{"parent escape", "../Solution1.db", true},
		{"deep escape", "result/../../etc/passwd", true},
		{"absolute", "/etc/passwd", true},
		{"symlinked parent", "link/Solution1.db", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveWithin(base, tt.rel)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrEscapesDir)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(base, tt.rel), got)
		})
	}
}
