// Package fsread implements the monitor's non-blocking (from the
// caller's perspective — each call is meant to be run off its own
// goroutine, never on the monitor's single loop goroutine) file
// reader: stat, size-ceiling check, binary sniff, and the
// (device, inode) pair rename inference depends on.
package fsread

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// sniffWindow is the number of leading bytes inspected for a null byte
// when deciding whether a file is binary.
const sniffWindow = 8 * 1024

// Result is the successful outcome of a Read.
type Result struct {
	Content []byte
	Device  uint64
	Inode   uint64
}

// Error kinds. The processor (internal/monitor) branches on these via
// errors.Is, so NotFound is distinguishable from every other failure —
// that distinction is how the processor infers deletion.
var (
	ErrNotFound = errors.New("fsread: not found")
	ErrTooLarge = errors.New("fsread: file exceeds size ceiling")
	ErrBinary   = errors.New("fsread: binary content")
)

// IOError wraps an unexpected I/O failure (permission denied, transient
// read error, ...). It is distinct from ErrNotFound and from the two
// sized/content rejections above.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("fsread: %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Read opens, stats, and reads absPath synchronously. Callers that
// must not block their own event loop should invoke Read from a
// dedicated goroutine and deliver the Result back over a channel —
// that's what internal/monitor's processor does.
//
// Symlinks are followed transparently (os.Open/os.Stat resolve them):
// the target's content and (device, inode) are reported as if the
// symlink were the file itself.
func Read(absPath string, maxSize int) (Result, error) {
	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{}, ErrNotFound
		}
		return Result{}, &IOError{Path: absPath, Err: err}
	}
	if !info.Mode().IsRegular() {
		// Non-regular files (directories, devices, sockets...) are
		// not tracked — treat like "not found" from the monitor's
		// point of view rather than erroring.
		return Result{}, ErrNotFound
	}
	if maxSize > 0 && info.Size() > int64(maxSize) {
		return Result{}, ErrTooLarge
	}

	f, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{}, ErrNotFound
		}
		return Result{}, &IOError{Path: absPath, Err: err}
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return Result{}, &IOError{Path: absPath, Err: err}
	}

	window := content
	if len(window) > sniffWindow {
		window = window[:sniffWindow]
	}
	if bytes.IndexByte(window, 0) != -1 {
		return Result{}, ErrBinary
	}

	dev, ino, err := deviceInode(absPath, info)
	if err != nil {
		return Result{}, &IOError{Path: absPath, Err: err}
	}

	return Result{Content: content, Device: dev, Inode: ino}, nil
}
