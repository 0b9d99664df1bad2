package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveAndRemove(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	path, err := store.Save("doc.pdf", strings.NewReader("hello"), 1024)
	if err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read stored file: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("stored content mismatch: %q", data)
	}
	if !strings.HasSuffix(path, "_doc.pdf") {
		t.Errorf("expected stored name to keep the original suffix, got %s", path)
	}

	if err := store.Remove(path); err != nil {
		t.Fatalf("failed to remove: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file should be gone after Remove")
	}
}

func TestSaveNamesNeverCollide(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	a, err := store.Save("doc.pdf", strings.NewReader("a"), 1024)
	if err != nil {
		t.Fatalf("failed to save first: %v", err)
	}
	b, err := store.Save("doc.pdf", strings.NewReader("b"), 1024)
	if err != nil {
		t.Fatalf("failed to save second: %v", err)
	}
	if a == b {
		t.Errorf("two uploads of the same filename got the same path: %s", a)
	}
}

func TestSaveRejectsOversize(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	if _, err := store.Save("big.pdf", strings.NewReader("0123456789"), 5); err == nil {
		t.Fatal("expected oversize upload to be rejected")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("partial file left behind after rejected upload: %d entries", len(entries))
	}
}

func TestRemoveRefusesOutsideDir(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	outside := filepath.Join(t.TempDir(), "victim.txt")
	if err := os.WriteFile(outside, []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to write victim file: %v", err)
	}

	if err := store.Remove(outside); err == nil {
		t.Fatal("expected Remove to refuse a path outside the store dir")
	}
	if _, err := os.Stat(outside); err != nil {
		t.Error("victim file should be untouched")
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"doc.pdf", "doc.pdf"},
		{"../../etc/passwd", "passwd"},
		{"my report (final).pdf", "my_report__final_.pdf"},
		{"..", "upload"},
		{"", "upload"},
		{"späße.pdf", "sp__e.pdf"},
	}

	for _, tc := range cases {
		if got := SanitizeFilename(tc.in); got != tc.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
