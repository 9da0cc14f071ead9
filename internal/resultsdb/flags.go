package resultsdb

import (
	"fmt"
	"path/filepath"

	"github.com/banshee-data/debug-solver/internal/fsutil"
	"github.com/banshee-data/debug-solver/internal/monitoring"
)

// CheckUpdate makes completed solutions visible to readers when the GUI has
// asked for an update, by checkpointing the WAL and removing the request.
// It does nothing while a solution block is open.
func (d *DB) CheckUpdate() error {
	if err := d.checkWritable(); err != nil {
		return err
	}
	if d.block != nil {
		return nil
	}
	flag := filepath.Join(d.dir(), UpdateFlag)
	if !d.fs.Exists(flag) {
		return nil
	}
	if _, err := d.db.Exec(`PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		return fmt.Errorf("failed to checkpoint %s: %w", d.path, err)
	}
	if err := d.fs.Remove(flag); err != nil {
		return fmt.Errorf("failed to acknowledge update request: %w", err)
	}
	monitoring.Logf("flushed solutions of %s for update request", d.path)
	return nil
}

// CancelRequested reports whether the GUI has asked the run to stop. A
// request is consumed when reported, so it ends only the current run.
func (d *DB) CancelRequested() (bool, error) {
	if err := d.checkOpen(); err != nil {
		return false, err
	}
	flag := filepath.Join(d.dir(), CancelFlag)
	if !d.fs.Exists(flag) {
		return false, nil
	}
	if err := d.fs.Remove(flag); err != nil {
		return true, fmt.Errorf("failed to acknowledge cancel request: %w", err)
	}
	return true, nil
}

// RemoveFlags deletes any cancel or update request left next to the
// container at containerPath.
func RemoveFlags(fsys fsutil.FileSystem, containerPath string) error {
	dir := filepath.Dir(containerPath)
	for _, name := range []string{CancelFlag, UpdateFlag} {
		flag := filepath.Join(dir, name)
		if !fsys.Exists(flag) {
			continue
		}
		if err := fsys.Remove(flag); err != nil {
			return fmt.Errorf("failed to remove %s: %w", flag, err)
		}
	}
	return nil
}

// RequestCancel drops the cancel flag next to the container.
func RequestCancel(fsys FileWriter, containerPath string) error {
	return fsys.WriteFile(filepath.Join(filepath.Dir(containerPath), CancelFlag), nil, 0o644)
}

// RequestUpdate drops the update flag next to the container.
func RequestUpdate(fsys FileWriter, containerPath string) error {
	return fsys.WriteFile(filepath.Join(filepath.Dir(containerPath), UpdateFlag), nil, 0o644)
}
