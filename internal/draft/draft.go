// Package draft handles entry text that was prepared outside the journal:
// reading a draft file, and best-effort removal of the plaintext copies
// left behind once the entry is sealed.
package draft

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"unicode/utf8"
)

// MaxSize bounds a single entry.
const MaxSize = 1 << 20

var (
	ErrEmpty    = errors.New("draft is empty")
	ErrTooLarge = fmt.Errorf("draft exceeds maximum size of %d bytes", MaxSize)
	ErrNotText  = errors.New("draft is not valid UTF-8 text")
)

// ReadFile loads a draft file.
func ReadFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("cannot open draft: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("cannot stat draft: %w", err)
	}
	if info.Size() > MaxSize {
		return "", ErrTooLarge
	}

	return Read(f)
}

// Read loads a draft from r, refusing anything over MaxSize.
func Read(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return "", fmt.Errorf("cannot read draft: %w", err)
	}
	if len(data) > MaxSize {
		return "", ErrTooLarge
	}
	if len(data) == 0 {
		return "", ErrEmpty
	}
	if !utf8.Valid(data) {
		return "", ErrNotText
	}
	return string(data), nil
}

// Shred overwrites the file with zeroes, syncs it, and removes it. Modern
// filesystems may keep copies regardless. Failures come back as warnings.
func Shred(path string) []string {
	var warnings []string

	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return append(warnings, fmt.Sprintf("warning: failed to open draft for shredding: %v", err))
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return append(warnings, fmt.Sprintf("warning: failed to stat draft for shredding: %v", err))
	}

	zeroes := make([]byte, 4096)
	for remaining := info.Size(); remaining > 0; {
		chunk := int64(len(zeroes))
		if chunk > remaining {
			chunk = remaining
		}
		n, err := f.Write(zeroes[:chunk])
		if err != nil {
			return append(warnings, fmt.Sprintf("warning: failed to overwrite draft: %v", err))
		}
		remaining -= int64(n)
	}

	if err := f.Sync(); err != nil {
		warnings = append(warnings, fmt.Sprintf("warning: failed to sync draft: %v", err))
	}
	f.Close()

	if err := os.Remove(path); err != nil {
		warnings = append(warnings, fmt.Sprintf("warning: failed to remove draft: %v", err))
	}
	return warnings
}

// ClearClipboard empties the system clipboard where a tool for it exists.
// Failures come back as warnings.
func ClearClipboard() []string {
	var name string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		name = "pbcopy"
	case "linux":
		switch {
		case lookPath("wl-copy"):
			name, args = "wl-copy", []string{"--clear"}
		case lookPath("xclip"):
			name, args = "xclip", []string{"-selection", "clipboard"}
		default:
			return []string{"warning: no clipboard tool found (wl-copy or xclip)"}
		}
	default:
		return []string{"warning: clipboard clearing is not supported on " + runtime.GOOS}
	}

	cmd := exec.Command(name, args...)
	if name != "wl-copy" {
		// An empty stdin replaces the clipboard with nothing.
		cmd.Stdin = emptyReader{}
	}
	if err := cmd.Run(); err != nil {
		return []string{fmt.Sprintf("warning: clipboard clear failed: %v", err)}
	}
	return nil
}

func lookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

type emptyReader struct{}

func (emptyReader) Read([]byte) (int, error) { return 0, io.EOF }
