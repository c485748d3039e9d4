package external

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/flowd/internal/workflow"
)

const (
	// orchestratorDir is the external tool's dot-directory. Its absence
	// means the tool is not installed and sync is a silent no-op.
	orchestratorDir = ".agent"
	memoryFile      = "memory.md"

	statusTag = "[workflow]"
	doneTag   = "[workflow-done]"

	// maxDoneLines bounds the rotated list of terminal outcomes.
	maxDoneLines = 5
)

// MemorySync mirrors workflow status into the orchestrator's memory
// document. Implements engine.ExternalSync.
type MemorySync struct {
	projectRoot string
	logger      *zap.Logger
}

// NewMemorySync creates a sync for the given project root. The logger
// may be nil.
func NewMemorySync(projectRoot string, logger *zap.Logger) *MemorySync {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemorySync{projectRoot: projectRoot, logger: logger}
}

// MemoryPath returns the memory document location.
func (m *MemorySync) MemoryPath() string {
	return filepath.Join(m.projectRoot, orchestratorDir, memoryFile)
}

// Sync rewrites the single [workflow] status line in the memory document
// and, for terminal instances, rotates the [workflow-done] outcome lines
// keeping the newest five. A missing orchestrator directory is a no-op.
func (m *MemorySync) Sync(_ context.Context, inst *workflow.Instance) error {
	dir := filepath.Join(m.projectRoot, orchestratorDir)
	if _, err := os.Stat(dir); err != nil {
		return nil
	}

	path := m.MemoryPath()
	var lines []string
	if data, err := os.ReadFile(path); err == nil {
		lines = strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	}

	kept := make([]string, 0, len(lines)+2)
	var done []string
	for _, line := range lines {
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, statusTag):
			continue
		case strings.HasPrefix(line, doneTag):
			done = append(done, line)
		default:
			kept = append(kept, line)
		}
	}

	kept = append(kept, m.statusLine(inst))

	if inst.Terminal() {
		done = append(done, fmt.Sprintf("%s %s %s %s",
			doneTag, inst.ID, inst.Status, inst.UpdatedAt.Format("2006-01-02")))
		if len(done) > maxDoneLines {
			done = done[len(done)-maxDoneLines:]
		}
	}
	kept = append(kept, done...)

	content := strings.Join(kept, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("writing orchestrator memory: %w", err)
	}

	m.logger.Debug("synced workflow status to orchestrator memory",
		zap.String("workflow_id", inst.ID),
		zap.String("status", string(inst.Status)))
	return nil
}

func (m *MemorySync) statusLine(inst *workflow.Instance) string {
	line := fmt.Sprintf("%s %s %s step %d/%d",
		statusTag, inst.ID, inst.Status, inst.CurrentStep, inst.TotalSteps)
	if cur := inst.Current(); cur != nil && !inst.Terminal() {
		line += fmt.Sprintf(" (%s: %s)", cur.Agent, cur.Action)
	}
	return line
}
