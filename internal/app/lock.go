package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	lockRetryDelay = 100 * time.Millisecond
	lockStaleAfter = 30 * time.Second
)

// lockWaitTimeout is a variable so tests can shorten it.
var lockWaitTimeout = 10 * time.Second

// registryLock guards read-modify-write cycles on the registry file. Target
// settings files are never locked.
type registryLock struct {
	path string
}

// lockHolder is what a lock file records about the process holding it.
type lockHolder struct {
	pid   int
	since time.Time
}

func (h lockHolder) stale(now time.Time) bool {
	return h.since.IsZero() || now.Sub(h.since) > lockStaleAfter
}

func (h lockHolder) String() string {
	if h.pid == 0 {
		return "an unknown process"
	}
	return fmt.Sprintf("pid %d since %s", h.pid, h.since.Format(time.RFC3339))
}

// lockRegistry takes the lock file at path, waiting up to lockWaitTimeout
// for another clibundle process to finish. Locks older than lockStaleAfter
// are broken.
func lockRegistry(path string) (*registryLock, error) {
	if err := ensureParentDir(path); err != nil {
		return nil, err
	}

	deadline := time.Now().Add(lockWaitTimeout)
	for {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			_, _ = fmt.Fprintf(file, "%d\n%d\n", os.Getpid(), time.Now().Unix())
			_ = file.Close()
			return &registryLock{path: path}, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, err
		}

		holder, readErr := readLockHolder(path)
		if errors.Is(readErr, os.ErrNotExist) {
			continue
		}
		if readErr == nil && holder.stale(time.Now()) {
			_ = os.Remove(path)
			continue
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("registry %s is being modified by %s (lock file %s)",
				strings.TrimSuffix(path, ".lock"), holder, path)
		}
		time.Sleep(lockRetryDelay)
	}
}

// readLockHolder parses "<pid>\n<unix seconds>\n". A malformed file yields a
// zero holder, which counts as stale.
func readLockHolder(path string) (lockHolder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return lockHolder{}, err
	}
	parts := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(parts) < 2 {
		return lockHolder{}, nil
	}
	pid, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return lockHolder{}, nil
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return lockHolder{}, nil
	}
	return lockHolder{pid: pid, since: time.Unix(ts, 0)}, nil
}

func (l *registryLock) release() error {
	if l == nil {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// withLock runs fn while holding the registry lock at path.
func withLock(path string, fn func() error) error {
	lock, err := lockRegistry(path)
	if err != nil {
		return err
	}
	fnErr := fn()
	if err := lock.release(); err != nil && fnErr == nil {
		return err
	}
	return fnErr
}
