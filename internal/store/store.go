package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/flowd/internal/workflow"
)

const (
	// DirName is the tool's dot-directory under the project root.
	DirName = ".flowd"

	workflowsDir = "workflows"
	activeFile   = "active.json"
	stateFile    = "state.json"
	historyFile  = "history.json"

	dirPerm  = 0o700
	filePerm = 0o600
)

// Store reads and writes workflow state for one project root.
type Store struct {
	root   string // <projectRoot>/.flowd/workflows
	logger *zap.Logger
}

// New creates a store rooted at projectRoot. The logger may be nil.
func New(projectRoot string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		root:   filepath.Join(projectRoot, DirName, workflowsDir),
		logger: logger,
	}
}

// Dir returns the workflows root directory.
func (s *Store) Dir() string {
	return s.root
}

// LoadActive returns the active workflow id, or ok=false when no
// instance is active (file missing, empty or corrupt).
func (s *Store) LoadActive() (string, bool) {
	var ptr workflow.ActivePointer
	if !s.readJSON(filepath.Join(s.root, activeFile), &ptr) {
		return "", false
	}
	if ptr.ActiveWorkflowID == "" {
		return "", false
	}
	return ptr.ActiveWorkflowID, true
}

// SaveActive marks the given id as the single active workflow.
func (s *Store) SaveActive(id string, startedAt time.Time) error {
	ptr := workflow.ActivePointer{ActiveWorkflowID: id, StartedAt: startedAt}
	return s.writeJSON(filepath.Join(s.root, activeFile), &ptr)
}

// ClearActive resets the pointer so no workflow is active. Clearing an
// already-clear pointer is a no-op.
func (s *Store) ClearActive() error {
	return s.writeJSON(filepath.Join(s.root, activeFile), &workflow.ActivePointer{})
}

// LoadInstance returns the instance for id, or nil when absent or
// unparseable.
func (s *Store) LoadInstance(id string) *workflow.Instance {
	var inst workflow.Instance
	if !s.readJSON(filepath.Join(s.root, id, stateFile), &inst) {
		return nil
	}
	return &inst
}

// SaveInstance writes the full instance document, creating the id
// directory as needed.
func (s *Store) SaveInstance(inst *workflow.Instance) error {
	return s.writeJSON(filepath.Join(s.root, inst.ID, stateFile), inst)
}

// LoadHistory returns the event history for id. Absent or corrupt
// history yields an empty, usable document.
func (s *Store) LoadHistory(id string) *workflow.History {
	var h workflow.History
	if !s.readJSON(filepath.Join(s.root, id, historyFile), &h) {
		return &workflow.History{WorkflowID: id}
	}
	return &h
}

// AppendEvent appends one event to the history of id, starting a fresh
// document when none exists.
func (s *Store) AppendEvent(id string, ev workflow.Event) error {
	h := s.LoadHistory(id)
	h.Events = append(h.Events, ev)
	return s.writeJSON(filepath.Join(s.root, id, historyFile), h)
}

// ListRecent returns up to limit workflow ids, most recently modified
// first. A limit <= 0 means no truncation.
func (s *Store) ListRecent(limit int) []string {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil
	}

	type dirInfo struct {
		id    string
		mtime time.Time
	}
	dirs := make([]dirInfo, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		dirs = append(dirs, dirInfo{id: e.Name(), mtime: info.ModTime()})
	}

	sort.Slice(dirs, func(i, j int) bool {
		return dirs[i].mtime.After(dirs[j].mtime)
	})

	ids := make([]string, 0, len(dirs))
	for _, d := range dirs {
		if limit > 0 && len(ids) >= limit {
			break
		}
		ids = append(ids, d.id)
	}
	return ids
}

// readJSON loads path into v, reporting false for any missing or
// malformed file. Corruption is logged once at warn so operators can
// find it, then treated as absence.
func (s *Store) readJSON(path string, v any) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.logger.Warn("ignoring corrupt state file",
			zap.String("path", path),
			zap.Error(err))
		return false
	}
	return true
}

// writeJSON writes v to path as a whole document: marshal, write to a
// temp file in the same directory, rename over the target.
func (s *Store) writeJSON(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(filePerm); err != nil {
		tmp.Close()
		return fmt.Errorf("setting permissions on %s: %w", tmpName, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmpName, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
