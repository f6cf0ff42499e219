package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"syscall"
	"time"
)

const (
	renameRetries     = 5
	renameRetryDelay  = 50 * time.Millisecond
	renameRetryFactor = 2
	renameRetryCap    = 500 * time.Millisecond
)

func ensureParentDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o700)
}

// marshalJSON indents with two spaces and leaves &, < and > unescaped so
// untouched values in a tool's settings keep their bytes.
func marshalJSON(value any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(value); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// encodeJSON is json.Marshal without HTML escaping.
func encodeJSON(value any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func writeJSONAtomic(path string, value any) error {
	data, err := marshalJSON(value)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data, 0o600)
}

// writeFileAtomic replaces path with content via a sibling temp file, so a
// concurrent reader sees either the old or the new file, never a partial one.
func writeFileAtomic(path string, content []byte, mode os.FileMode) error {
	if err := ensureParentDir(path); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.tmp.%d", base, time.Now().UnixNano()))

	file, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(tmp)
	}()
	// OpenFile applies the umask; the replaced file's mode must survive it.
	if err := file.Chmod(mode); err != nil {
		_ = file.Close()
		return err
	}

	if _, err := file.Write(content); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}

	if err := renameWithRetry(tmp, path); err != nil {
		return err
	}

	dirFD, err := os.Open(dir)
	if err != nil {
		return nil
	}
	defer dirFD.Close()
	_ = dirFD.Sync()
	return nil
}

// renameWithRetry retries transient failures such as a target briefly held
// open by the owning tool on Windows.
func renameWithRetry(src string, dst string) error {
	delay := renameRetryDelay
	var lastErr error

	for attempt := 0; attempt < renameRetries; attempt++ {
		err := os.Rename(src, dst)
		if err == nil {
			return nil
		}
		if !isRetryableRenameError(err) {
			return err
		}
		lastErr = err
		time.Sleep(delay)
		delay = nextRetryDelay(delay)
	}
	return fmt.Errorf("rename %s -> %s failed after retries (file may be locked): %w", src, dst, lastErr)
}

func nextRetryDelay(current time.Duration) time.Duration {
	next := current * renameRetryFactor
	if next > renameRetryCap {
		return renameRetryCap
	}
	return next
}

func isRetryableRenameError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrPermission) {
		return true
	}

	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return false
	}

	if runtime.GOOS == "windows" {
		switch uint32(errno) {
		case 5, 32, 33, 1224:
			return true
		default:
			return false
		}
	}

	switch uint32(errno) {
	case 1, 13, 16, 26:
		return true
	default:
		return false
	}
}

func readJSONFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return err
	}
	return nil
}
