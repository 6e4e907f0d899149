// Package checkpointer implements rotating on-disk checkpoints of
// serializable objects.
package checkpointer

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
)

// DefaultMaxToKeep is the default number of checkpoint files kept on
// disk
const DefaultMaxToKeep = 10

// Serializable is an object that can be saved and restored
type Serializable interface {
	Save(w io.Writer) error
	Load(r io.Reader) error
}

// Checkpointer checkpoints/saves a serializable object. The step is
// the number of training steps taken so far.
type Checkpointer interface {
	Checkpoint(step int) error
}

// Manager saves checkpoints of an object to numbered files in a
// directory, deleting the oldest files so that at most maxToKeep
// remain. Checkpoint files are named ckpt-<n>.gob, with n increasing
// across runs that share the directory.
type Manager struct {
	dir       string
	object    Serializable
	maxToKeep int

	filename func() string
	kept     []string // Oldest first
}

// NewManager returns a new Manager that checkpoints object into dir,
// creating dir if needed. Checkpoints already present in dir are
// counted towards maxToKeep.
func NewManager(dir string, object Serializable, maxToKeep int) (*Manager,
	error) {
	if maxToKeep < 1 {
		return nil, fmt.Errorf("newManager: must keep at least one "+
			"checkpoint\n\twant(>0)\n\thave(%v)", maxToKeep)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("newManager: %w", err)
	}

	existing, err := list(dir)
	if err != nil {
		return nil, fmt.Errorf("newManager: %w", err)
	}

	last := 0
	if len(existing) > 0 {
		last = existing[len(existing)-1].index
	}
	kept := make([]string, len(existing))
	for i, c := range existing {
		kept[i] = c.path
	}

	return &Manager{
		dir:       dir,
		object:    object,
		maxToKeep: maxToKeep,
		filename:  FilenameEnumerator(last, filepath.Join(dir, prefix), extension),
		kept:      kept,
	}, nil
}

// Checkpoint saves a new checkpoint of the tracked object
func (m *Manager) Checkpoint(int) error {
	_, err := m.Save()
	return err
}

// Save saves a new checkpoint of the tracked object and returns its
// path. The file is written completely before it becomes visible.
func (m *Manager) Save() (string, error) {
	tmp, err := ioutil.TempFile(m.dir, ".ckpt-*")
	if err != nil {
		return "", fmt.Errorf("save: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := m.object.Save(tmp); err != nil {
		tmp.Close()
		return "", fmt.Errorf("save: could not serialize: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("save: %w", err)
	}

	path := m.filename()
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("save: %w", err)
	}
	m.kept = append(m.kept, path)

	for len(m.kept) > m.maxToKeep {
		if err := os.Remove(m.kept[0]); err != nil && !os.IsNotExist(err) {
			return path, fmt.Errorf("save: could not remove old "+
				"checkpoint: %w", err)
		}
		m.kept = m.kept[1:]
	}
	return path, nil
}

// Latest returns the path of the newest checkpoint, if any
func (m *Manager) Latest() (string, bool) {
	if len(m.kept) == 0 {
		return "", false
	}
	return m.kept[len(m.kept)-1], true
}

// Checkpoints returns the paths of the kept checkpoints, oldest first
func (m *Manager) Checkpoints() []string {
	return append([]string(nil), m.kept...)
}

// Restore loads the newest checkpoint into the tracked object. It
// returns false if there is no checkpoint to restore.
func (m *Manager) Restore() (bool, error) {
	path, ok := m.Latest()
	if !ok {
		return false, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("restore: %w", err)
	}
	defer f.Close()

	if err := m.object.Load(f); err != nil {
		return false, fmt.Errorf("restore: could not load %v: %w", path, err)
	}
	return true, nil
}

type checkpoint struct {
	path  string
	index int
}

// list returns the checkpoint files in dir sorted by index
func list(dir string) ([]checkpoint, error) {
	matches, err := filepath.Glob(filepath.Join(dir, prefix+"*"+extension))
	if err != nil {
		return nil, err
	}

	checkpoints := make([]checkpoint, 0, len(matches))
	for _, path := range matches {
		if index, ok := parseIndex(filepath.Base(path)); ok {
			checkpoints = append(checkpoints, checkpoint{path, index})
		}
	}
	sort.Slice(checkpoints, func(i, j int) bool {
		return checkpoints[i].index < checkpoints[j].index
	})
	return checkpoints, nil
}
