// Package scratch owns the temporary files of one export session.
package scratch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// DirPrefix marks directories created by this package so stale cleanup never
// touches anything else under the scratch root.
const DirPrefix = "animexport-"

// Guard owns one session directory and removes it on Close, whatever the
// outcome of the export.
type Guard struct {
	dir  string
	once sync.Once
	err  error
}

// New creates root/animexport-<session>.
func New(root, session string) (*Guard, error) {
	session = strings.TrimSpace(session)
	if session == "" {
		return nil, fmt.Errorf("scratch: session id required")
	}
	if root == "" {
		root = os.TempDir()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch root: %w", err)
	}
	dir := filepath.Join(root, DirPrefix+session)
	if err := os.Mkdir(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	return &Guard{dir: dir}, nil
}

// Dir returns the session directory.
func (g *Guard) Dir() string { return g.dir }

// Path returns name joined under the session directory.
func (g *Guard) Path(name string) string {
	return filepath.Join(g.dir, filepath.Base(name))
}

// Create opens a new file inside the session directory.
func (g *Guard) Create(name string) (*os.File, error) {
	return os.OpenFile(g.Path(name), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
}

// Close removes the session directory. It is safe to call more than once.
func (g *Guard) Close() error {
	if g == nil {
		return nil
	}
	g.once.Do(func() {
		if err := os.RemoveAll(g.dir); err != nil {
			g.err = fmt.Errorf("remove scratch dir: %w", err)
		}
	})
	return g.err
}
