// Package stage implements the stage manager (C12): a shadow-copy worktree
// that records writes/deletes and promotes them to the real workspace
// transactionally.
package stage

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var excludedDirs = map[string]bool{
	".slopchop": true, ".git": true, "node_modules": true, "target": true,
	"__pycache__": true, ".venv": true, "venv": true, ".tox": true,
	"dist": true, "build": true, ".next": true, ".nuxt": true, "vendor": true,
}

var excludedFiles = map[string]bool{
	".DS_Store": true, "Thumbs.db": true, "desktop.ini": true,
}

// TouchedPath records one file's stage history: the content hash at the
// moment it was first staged (for split-brain detection) and its current
// disposition.
type TouchedPath struct {
	Path     string  `json:"path"`
	BaseHash *string `json:"base_hash,omitempty"`
	Deleted  bool    `json:"deleted"`
}

// State is the JSON-persisted record of one live stage.
type State struct {
	ID         string                 `json:"id"`
	CreatedAt  int64                  `json:"created_at"`
	ApplyCount uint32                 `json:"apply_count"`
	Touched    map[string]TouchedPath `json:"touched"`
}

func newState(now int64) *State {
	return &State{ID: uuid.NewString(), CreatedAt: now, Touched: map[string]TouchedPath{}}
}

// RecordWrite records that path was written in this stage, preserving any
// base hash captured the first time the path was touched.
func (s *State) RecordWrite(path string, currentHash string) {
	existing, ok := s.Touched[path]
	if ok {
		existing.Deleted = false
		s.Touched[path] = existing
		return
	}
	hash := currentHash
	s.Touched[path] = TouchedPath{Path: path, BaseHash: &hash, Deleted: false}
}

// RecordDelete records that path should be removed on promotion.
func (s *State) RecordDelete(path string, currentHash string) {
	existing, ok := s.Touched[path]
	if ok {
		existing.Deleted = true
		s.Touched[path] = existing
		return
	}
	hash := currentHash
	s.Touched[path] = TouchedPath{Path: path, BaseHash: &hash, Deleted: true}
}

func (s *State) pathsToWrite() []TouchedPath {
	var out []TouchedPath
	for _, t := range s.Touched {
		if !t.Deleted {
			out = append(out, t)
		}
	}
	return out
}

func (s *State) pathsToDelete() []TouchedPath {
	var out []TouchedPath
	for _, t := range s.Touched {
		if t.Deleted {
			out = append(out, t)
		}
	}
	return out
}

// Manager orchestrates the staged-workspace lifecycle for one repository.
type Manager struct {
	repoRoot string
	state    *State
	now      func() int64
}

// New creates a stage manager for the given repository root.
func New(repoRoot string) *Manager {
	return &Manager{repoRoot: repoRoot, now: func() int64 { return time.Now().Unix() }}
}

func (m *Manager) stageDir() string    { return filepath.Join(m.repoRoot, ".slopchop", "stage") }
func (m *Manager) worktree() string    { return filepath.Join(m.stageDir(), "worktree") }
func (m *Manager) statePath() string   { return filepath.Join(m.stageDir(), "state.json") }
func (m *Manager) backupsBase() string { return filepath.Join(m.repoRoot, ".slopchop", "backups") }

// Exists reports whether a stage worktree is currently present.
func (m *Manager) Exists() bool {
	info, err := os.Stat(m.worktree())
	return err == nil && info.IsDir()
}

// EffectiveCWD returns the staged worktree if a stage exists, else the repo
// root.
func (m *Manager) EffectiveCWD() string {
	if m.Exists() {
		return m.worktree()
	}
	return m.repoRoot
}

// LoadState reads the persisted stage state, if any.
func (m *Manager) LoadState() (*State, error) {
	data, err := os.ReadFile(m.statePath())
	if os.IsNotExist(err) {
		m.state = nil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stage: read state: %w", err)
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("stage: decode state: %w", err)
	}
	m.state = &s
	return m.state, nil
}

func (m *Manager) saveState() error {
	if m.state == nil {
		return nil
	}
	data, err := json.MarshalIndent(m.state, "", "  ")
	if err != nil {
		return fmt.Errorf("stage: encode state: %w", err)
	}
	if err := os.MkdirAll(m.stageDir(), 0755); err != nil {
		return fmt.Errorf("stage: create stage dir: %w", err)
	}
	return os.WriteFile(m.statePath(), data, 0644)
}

// EnsureResult reports whether EnsureStage created a new stage or found an
// existing one.
type EnsureResult struct {
	Created bool
	Stats   CopyStats
}

// EnsureStage creates a stage if none exists, otherwise loads the existing
// one.
func (m *Manager) EnsureStage() (EnsureResult, error) {
	if m.Exists() {
		if _, err := m.LoadState(); err != nil {
			return EnsureResult{}, err
		}
		return EnsureResult{Created: false}, nil
	}
	return m.createStage()
}

func (m *Manager) createStage() (EnsureResult, error) {
	worktree := m.worktree()
	if _, err := os.Stat(worktree); err == nil {
		if err := os.RemoveAll(worktree); err != nil {
			return EnsureResult{}, fmt.Errorf("stage: remove partial stage: %w", err)
		}
	}

	stats, err := copyRepoToStage(m.repoRoot, worktree)
	if err != nil {
		return EnsureResult{}, err
	}

	m.state = newState(m.now())
	if err := m.saveState(); err != nil {
		return EnsureResult{}, err
	}

	return EnsureResult{Created: true, Stats: stats}, nil
}

func (m *Manager) ensureStateLoaded() error {
	if m.state == nil && m.Exists() {
		_, err := m.LoadState()
		return err
	}
	return nil
}

// RecordWrite records a file write in the current stage state.
func (m *Manager) RecordWrite(path, content string) error {
	if err := m.ensureStateLoaded(); err != nil {
		return err
	}
	if m.state == nil {
		return fmt.Errorf("stage: no active stage")
	}
	m.state.RecordWrite(path, hashOf(content))
	return m.saveState()
}

// RecordDelete records a file delete in the current stage state.
func (m *Manager) RecordDelete(path, currentContent string) error {
	if err := m.ensureStateLoaded(); err != nil {
		return err
	}
	if m.state == nil {
		return fmt.Errorf("stage: no active stage")
	}
	m.state.RecordDelete(path, hashOf(currentContent))
	return m.saveState()
}

// RecordApply increments the stage's apply counter.
func (m *Manager) RecordApply() error {
	if err := m.ensureStateLoaded(); err != nil {
		return err
	}
	if m.state == nil {
		return fmt.Errorf("stage: no active stage")
	}
	m.state.ApplyCount++
	return m.saveState()
}

// Reset removes the current stage entirely.
func (m *Manager) Reset() error {
	if _, err := os.Stat(m.stageDir()); err == nil {
		if err := os.RemoveAll(m.stageDir()); err != nil {
			return fmt.Errorf("stage: reset: %w", err)
		}
	}
	m.state = nil
	return nil
}

// StageID returns the current stage's ID, if one exists.
func (m *Manager) StageID() string {
	if m.state == nil {
		return ""
	}
	return m.state.ID
}

func hashOf(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// CopyStats summarises a stage-creation copy pass.
type CopyStats struct {
	FilesCopied   int
	DirsCopied    int
	FilesSkipped  int
	DirsSkipped   int
	SymlinksSkipped int
	Errors        int
}

func copyRepoToStage(src, dest string) (CopyStats, error) {
	var stats CopyStats

	if err := os.MkdirAll(dest, 0755); err != nil {
		return stats, fmt.Errorf("stage: create stage dir: %w", err)
	}

	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			stats.Errors++
			return nil
		}
		if path == src {
			return nil
		}
		rel, relErr := filepath.Rel(src, path)
		if relErr != nil {
			return nil
		}

		if shouldExclude(rel) {
			if d.IsDir() {
				stats.DirsSkipped++
				return filepath.SkipDir
			}
			stats.FilesSkipped++
			return nil
		}

		destPath := filepath.Join(dest, rel)
		info, infoErr := d.Info()
		if infoErr != nil {
			stats.Errors++
			return nil
		}

		switch {
		case info.Mode()&os.ModeSymlink != 0:
			stats.SymlinksSkipped++
		case d.IsDir():
			if err := os.MkdirAll(destPath, 0755); err != nil {
				stats.Errors++
			} else {
				stats.DirsCopied++
			}
		default:
			if err := copyFile(path, destPath); err != nil {
				stats.Errors++
			} else {
				stats.FilesCopied++
			}
		}
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("stage: walk source: %w", err)
	}
	return stats, nil
}

func shouldExclude(rel string) bool {
	for _, component := range strings.Split(filepath.ToSlash(rel), "/") {
		if excludedDirs[component] || excludedFiles[component] {
			return true
		}
	}
	return false
}

func copyFile(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dest, data, 0644)
}
