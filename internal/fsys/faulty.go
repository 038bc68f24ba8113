package fsys

import (
	"os"
	"sync"
)

// Faulty wraps an [FS] and fails chosen operations on chosen paths. It also
// counts writes per path so callers can check that a pass left a file alone.
type Faulty struct {
	FS FS

	mu     sync.Mutex
	fail   map[string]error // "op\x00path" -> error
	writes map[string]int
}

// NewFaulty wraps fs.
func NewFaulty(fs FS) *Faulty {
	return &Faulty{
		FS:     fs,
		fail:   make(map[string]error),
		writes: make(map[string]int),
	}
}

// FailOn makes op ("read", "write", "exists", "mkdir") on path return err.
func (f *Faulty) FailOn(op, path string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[op+"\x00"+path] = err
}

// Writes returns how many successful writes path has received.
func (f *Faulty) Writes(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes[path]
}

func (f *Faulty) injected(op, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fail[op+"\x00"+path]
}

func (f *Faulty) ReadFile(path string) ([]byte, error) {
	if err := f.injected("read", path); err != nil {
		return nil, err
	}
	return f.FS.ReadFile(path)
}

func (f *Faulty) WriteFile(path string, data []byte) error {
	if err := f.injected("write", path); err != nil {
		return err
	}
	if err := f.FS.WriteFile(path, data); err != nil {
		return err
	}
	f.mu.Lock()
	f.writes[path]++
	f.mu.Unlock()
	return nil
}

func (f *Faulty) Exists(path string) (bool, error) {
	if err := f.injected("exists", path); err != nil {
		return false, err
	}
	return f.FS.Exists(path)
}

func (f *Faulty) MkdirAll(path string, perm os.FileMode) error {
	if err := f.injected("mkdir", path); err != nil {
		return err
	}
	return f.FS.MkdirAll(path, perm)
}

var _ FS = (*Faulty)(nil)
