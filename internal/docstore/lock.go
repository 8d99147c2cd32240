package docstore

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"syscall"
)

// FileLock is an advisory flock on path+".lock". It serializes writers of a
// single document and guards a data directory against a second process.
type FileLock struct {
	path string
	file *os.File
	mu   sync.Mutex
}

// NewFileLock creates a new file lock.
func NewFileLock(path string) *FileLock {
	return &FileLock{path: path}
}

func (l *FileLock) open() error {
	f, err := os.OpenFile(l.path+".lock", os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return err
	}
	l.file = f
	return nil
}

// Lock blocks until the exclusive lock is held.
func (l *FileLock) Lock() error {
	l.mu.Lock()

	if err := l.open(); err != nil {
		l.mu.Unlock()
		return err
	}
	if err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_EX); err != nil {
		l.file.Close()
		l.file = nil
		l.mu.Unlock()
		return err
	}
	return nil
}

// TryLock acquires the lock without blocking. It returns ErrLocked when
// another holder, in this or another process, has it.
func (l *FileLock) TryLock() error {
	if !l.mu.TryLock() {
		return ErrLocked
	}

	if err := l.open(); err != nil {
		l.mu.Unlock()
		return err
	}
	if err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		l.file.Close()
		l.file = nil
		l.mu.Unlock()
		if errors.Is(err, syscall.EWOULDBLOCK) {
			return fmt.Errorf("%w: %s", ErrLocked, l.path)
		}
		return err
	}
	return nil
}

// Unlock releases the lock and removes the lock file.
func (l *FileLock) Unlock() error {
	if l.file == nil {
		return nil
	}

	syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	l.file.Close()
	os.Remove(l.path + ".lock")

	l.file = nil
	l.mu.Unlock()
	return nil
}
