package draft

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeDraft(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "draft.txt")
	if err := os.WriteFile(path, content, 0600); err != nil {
		t.Fatalf("failed to write draft: %v", err)
	}
	return path
}

func TestReadFile_Valid(t *testing.T) {
	path := writeDraft(t, []byte("a walk by the river\n"))

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if got != "a walk by the river\n" {
		t.Errorf("unexpected draft %q", got)
	}
}

func TestReadFile_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		content []byte
		want    error
	}{
		{"empty", []byte{}, ErrEmpty},
		{"too large", bytes.Repeat([]byte("a"), MaxSize+1), ErrTooLarge},
		{"binary", []byte{0xff, 0xfe, 0x00}, ErrNotText},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadFile(writeDraft(t, tc.content))
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestReadFile_Missing(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Error("expected error for missing draft")
	}
}

func TestRead_ExactlyMaxSize(t *testing.T) {
	got, err := Read(strings.NewReader(strings.Repeat("b", MaxSize)))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(got) != MaxSize {
		t.Errorf("expected %d bytes, got %d", MaxSize, len(got))
	}
}

func TestRead_StreamTooLarge(t *testing.T) {
	_, err := Read(strings.NewReader(strings.Repeat("b", MaxSize+10)))
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("expected ErrTooLarge, got %v", err)
	}
}

func TestShred_RemovesFile(t *testing.T) {
	path := writeDraft(t, bytes.Repeat([]byte("secret "), 2000))

	if warnings := Shred(path); len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("draft should be removed after shredding")
	}
}

func TestShred_MissingFileWarns(t *testing.T) {
	warnings := Shred(filepath.Join(t.TempDir(), "gone.txt"))
	if len(warnings) == 0 {
		t.Fatal("expected a warning for a missing draft")
	}
	if !strings.HasPrefix(warnings[0], "warning: ") {
		t.Errorf("warnings should be prefixed, got %q", warnings[0])
	}
}

func TestClearClipboard_BestEffort(t *testing.T) {
	for _, w := range ClearClipboard() {
		if !strings.HasPrefix(w, "warning: ") {
			t.Errorf("warnings should be prefixed, got %q", w)
		}
	}
}
