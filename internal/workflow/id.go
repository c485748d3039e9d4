package workflow

import (
	"crypto/rand"
	"fmt"
	"time"
)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewID builds a workflow instance id of the form
// {workflowType}-{YYYYMMDD}-{4 random base36 chars}, e.g.
// "bugfix-20260827-k3f9".
func NewID(workflowType string, now time.Time) string {
	buf := make([]byte, 4)
	// rand.Read never fails on supported platforms (crypto/rand panics
	// internally otherwise).
	_, _ = rand.Read(buf)
	for i, b := range buf {
		buf[i] = base36[int(b)%len(base36)]
	}
	return fmt.Sprintf("%s-%s-%s", workflowType, now.Format("20060102"), buf)
}
