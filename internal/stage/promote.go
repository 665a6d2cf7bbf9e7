package stage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// PromoteResult reports what a successful Promote changed.
type PromoteResult struct {
	FilesWritten []string
	FilesDeleted []string
	BackupPath   string
}

// ErrSplitBrain is returned when a workspace file has changed since it was
// staged, aborting promotion before any write happens.
var ErrSplitBrain = fmt.Errorf("stage: split-brain detected")

// Promote applies the stage's recorded writes/deletes to the real
// workspace as a single transaction: integrity check, backup, apply (with
// rollback on failure), then reset the stage and prune old backups beyond
// retention.
func (m *Manager) Promote(retention int) (PromoteResult, error) {
	if err := m.ensureStateLoaded(); err != nil {
		return PromoteResult{}, err
	}
	if m.state == nil {
		return PromoteResult{}, fmt.Errorf("stage: no stage state found")
	}

	toWrite := m.state.pathsToWrite()
	toDelete := m.state.pathsToDelete()
	if len(toWrite) == 0 && len(toDelete) == 0 {
		return PromoteResult{}, nil
	}

	if err := verifyWorkspaceIntegrity(m.repoRoot, toWrite, toDelete); err != nil {
		return PromoteResult{}, err
	}

	backupDir, err := createBackupDir(filepath.Join(m.backupsBase(), "promote"), m.now())
	if err != nil {
		return PromoteResult{}, err
	}

	allPaths := map[string]bool{}
	for _, t := range toWrite {
		allPaths[t.Path] = true
	}
	for _, t := range toDelete {
		allPaths[t.Path] = true
	}

	backedUp, err := backupExistingFiles(m.repoRoot, allPaths, backupDir)
	if err != nil {
		return PromoteResult{}, err
	}

	written, deleted, applyErr := applyChanges(m.repoRoot, m.worktree(), toWrite, toDelete)
	if applyErr != nil {
		if rbErr := rollbackChanges(m.repoRoot, backedUp, backupDir); rbErr != nil {
			return PromoteResult{}, fmt.Errorf("stage: promotion failed: %w; rollback also failed: %v", applyErr, rbErr)
		}
		return PromoteResult{}, fmt.Errorf("stage: promotion failed (rolled back): %w", applyErr)
	}

	if retention > 0 {
		_, _ = cleanupOldBackups(filepath.Join(m.backupsBase(), "promote"), retention)
	}

	if err := m.Reset(); err != nil {
		return PromoteResult{}, err
	}

	return PromoteResult{FilesWritten: written, FilesDeleted: deleted, BackupPath: backupDir}, nil
}

func verifyWorkspaceIntegrity(repoRoot string, toWrite, toDelete []TouchedPath) error {
	all := append(append([]TouchedPath{}, toWrite...), toDelete...)
	for _, t := range all {
		if t.BaseHash == nil {
			continue
		}
		path := filepath.Join(repoRoot, t.Path)
		content, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s was expected to exist but is missing", ErrSplitBrain, t.Path)
		}
		if err != nil {
			return fmt.Errorf("stage: read %s for integrity check: %w", t.Path, err)
		}
		sum := sha256.Sum256(content)
		actual := hex.EncodeToString(sum[:])
		if actual != *t.BaseHash {
			return fmt.Errorf("%w: %s has been modified manually since it was staged, aborting promotion to prevent overwriting your changes", ErrSplitBrain, t.Path)
		}
	}
	return nil
}

func createBackupDir(base string, now func() int64) (string, error) {
	backupPath := filepath.Join(base, "promote_"+strconv.FormatInt(now(), 10))
	if err := os.MkdirAll(backupPath, 0755); err != nil {
		return "", fmt.Errorf("stage: create backup dir: %w", err)
	}
	return backupPath, nil
}

func backupExistingFiles(repoRoot string, paths map[string]bool, backupDir string) ([]string, error) {
	var backedUp []string
	for path := range paths {
		src := filepath.Join(repoRoot, path)
		info, err := os.Stat(src)
		if err != nil || info.IsDir() {
			continue
		}
		dest := filepath.Join(backupDir, path)
		if err := copyFile(src, dest); err != nil {
			return nil, fmt.Errorf("stage: backup %s: %w", path, err)
		}
		backedUp = append(backedUp, path)
	}
	return backedUp, nil
}

func applyChanges(repoRoot, worktree string, toWrite, toDelete []TouchedPath) ([]string, []string, error) {
	var written, deleted []string

	for _, t := range toWrite {
		src := filepath.Join(worktree, t.Path)
		dest := filepath.Join(repoRoot, t.Path)
		if _, err := os.Stat(src); err != nil {
			return nil, nil, fmt.Errorf("stage: staged file missing: %s", src)
		}
		if err := copyFile(src, dest); err != nil {
			return nil, nil, fmt.Errorf("stage: copy %s to %s: %w", src, dest, err)
		}
		written = append(written, t.Path)
	}

	for _, t := range toDelete {
		target := filepath.Join(repoRoot, t.Path)
		if _, err := os.Stat(target); err == nil {
			if err := os.Remove(target); err != nil {
				return nil, nil, fmt.Errorf("stage: delete %s: %w", target, err)
			}
			deleted = append(deleted, t.Path)
		}
	}

	return written, deleted, nil
}

func rollbackChanges(repoRoot string, backedUp []string, backupDir string) error {
	for _, path := range backedUp {
		src := filepath.Join(backupDir, path)
		dest := filepath.Join(repoRoot, path)
		if _, err := os.Stat(src); err != nil {
			continue
		}
		if err := copyFile(src, dest); err != nil {
			return fmt.Errorf("rollback: restore %s: %w", dest, err)
		}
	}
	return nil
}

// cleanupOldBackups keeps only the most recent keepCount promote_* backup
// directories, removing the rest in chronological order.
func cleanupOldBackups(backupBase string, keepCount int) (int, error) {
	entries, err := os.ReadDir(backupBase)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("stage: list backups: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), "promote_") {
			names = append(names, e.Name())
		}
	}
	if len(names) <= keepCount {
		return 0, nil
	}
	sort.Strings(names)

	toRemove := len(names) - keepCount
	removed := 0
	for _, name := range names[:toRemove] {
		if err := os.RemoveAll(filepath.Join(backupBase, name)); err == nil {
			removed++
		}
	}
	return removed, nil
}
