package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"syscall"
	"testing"
)

func TestWriteFileAtomicReplacesExistingFile(t *testing.T) {
	tmp := t.TempDir()
	dst := filepath.Join(tmp, "nested", "settings.json")

	if err := writeFileAtomic(dst, []byte("old"), 0o600); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := writeFileAtomic(dst, []byte("new"), 0o600); err != nil {
		t.Fatalf("second write: %v", err)
	}

	bytes, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read dst: %v", err)
	}
	if string(bytes) != "new" {
		t.Fatalf("expected replaced content, got %q", string(bytes))
	}

	entries, err := os.ReadDir(filepath.Dir(dst))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected temp file cleaned up, found %d entries", len(entries))
	}
}

func TestWriteFileAtomicFailsWhenParentIsFile(t *testing.T) {
	tmp := t.TempDir()
	blocker := filepath.Join(tmp, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	if err := writeFileAtomic(filepath.Join(blocker, "settings.json"), []byte("{}"), 0o600); err == nil {
		t.Fatalf("expected error writing below a regular file")
	}
}

func TestRenameWithRetryReplacesExistingFile(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "src.json")
	dst := filepath.Join(tmp, "dst.json")

	if err := os.WriteFile(src, []byte("new"), 0o600); err != nil {
		t.Fatalf("write src: %v", err)
	}
	if err := os.WriteFile(dst, []byte("old"), 0o600); err != nil {
		t.Fatalf("write dst: %v", err)
	}

	if err := renameWithRetry(src, dst); err != nil {
		t.Fatalf("renameWithRetry failed: %v", err)
	}

	bytes, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read dst: %v", err)
	}
	if string(bytes) != "new" {
		t.Fatalf("expected dst content from src, got %q", string(bytes))
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("expected src removed after rename, got err=%v", err)
	}
}

func TestIsRetryableRenameError(t *testing.T) {
	if !isRetryableRenameError(os.ErrPermission) {
		t.Fatalf("expected os.ErrPermission to be retryable")
	}

	wrapped := fmt.Errorf("wrapper: %w", os.ErrPermission)
	if !isRetryableRenameError(wrapped) {
		t.Fatalf("expected wrapped os.ErrPermission to be retryable")
	}

	if runtime.GOOS == "windows" {
		if !isRetryableRenameError(syscall.Errno(32)) {
			t.Fatalf("expected windows sharing violation to be retryable")
		}
		if isRetryableRenameError(syscall.Errno(2)) {
			t.Fatalf("did not expect file-not-found to be retryable")
		}
	} else {
		if !isRetryableRenameError(syscall.Errno(16)) {
			t.Fatalf("expected unix EBUSY to be retryable")
		}
		if isRetryableRenameError(syscall.Errno(2)) {
			t.Fatalf("did not expect ENOENT to be retryable")
		}
	}

	if isRetryableRenameError(errors.New("invalid argument")) {
		t.Fatalf("expected non-retryable for plain error")
	}
}
