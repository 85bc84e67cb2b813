package workspace

import (
	"sync"

	apperrors "pfa/internal/errors"
)

// Level is the severity of a Notice.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelError   Level = "error"
)

// Notice is a short message shown to the user after an action.
type Notice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Notices is a queue of notices waiting to be shown.
type Notices struct {
	mu    sync.Mutex
	items []Notice
}

// Push appends a notice.
func (n *Notices) Push(level Level, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, Notice{Level: level, Message: message})
}

// Error appends the user-facing message of err.
func (n *Notices) Error(err error) {
	n.Push(LevelError, apperrors.As(err).Message)
}

// Drain returns and clears the queued notices.
func (n *Notices) Drain() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.items
	n.items = nil
	return out
}
