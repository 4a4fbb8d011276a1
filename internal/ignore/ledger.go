// Package ignore stores update suppressions: a single JSON object mapping an
// ignore key (lower(manager)\id) to "*", an exact version, or "<yyyy-mm-dd".
//
// Every mutation is a full read-modify-write of the file. Ledgers opened on
// the same path share one mutex, and an advisory file lock keeps other
// processes out for the duration of each cycle. Writes go through a temp file
// and a rename so a crash never leaves a half-written ledger behind.
package ignore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/unigetui/engine/internal/logging"
)

var log = logging.L("ignore")

// Wildcard suppresses every future version of a package.
const Wildcard = "*"

var (
	pathLocksMu sync.Mutex
	pathLocks   = map[string]*sync.Mutex{}
)

func lockFor(path string) *sync.Mutex {
	pathLocksMu.Lock()
	defer pathLocksMu.Unlock()
	l, ok := pathLocks[path]
	if !ok {
		l = &sync.Mutex{}
		pathLocks[path] = l
	}
	return l
}

// Entry is one suppression.
type Entry struct {
	Key   string
	Value string
}

// Ledger is the ignored-updates file at a fixed path.
type Ledger struct {
	path string
	mu   *sync.Mutex
}

// Open returns the ledger stored at path. The file does not need to exist.
func Open(path string) *Ledger {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	path = filepath.Clean(path)
	return &Ledger{path: path, mu: lockFor(path)}
}

// Path returns the ledger file location.
func (l *Ledger) Path() string {
	return l.path
}

// Add records value for key, replacing any existing entry. value is
// Wildcard, a version string, or a snooze value.
func (l *Ledger) Add(key, value string) error {
	return l.update(func(entries map[string]string) bool {
		delete(entries, key)
		entries[key] = value
		return true
	})
}

// Remove deletes the entry for key. An absent key is not an error and
// leaves the file untouched.
func (l *Ledger) Remove(key string) error {
	return l.update(func(entries map[string]string) bool {
		if _, ok := entries[key]; !ok {
			return false
		}
		delete(entries, key)
		return true
	})
}

// RemoveIf deletes the entry for key only while it still holds expected.
// It reports whether the entry was removed.
func (l *Ledger) RemoveIf(key, expected string) (bool, error) {
	removed := false
	err := l.update(func(entries map[string]string) bool {
		if value, ok := entries[key]; !ok || value != expected {
			return false
		}
		delete(entries, key)
		removed = true
		return true
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

// Clear drops every entry.
func (l *Ledger) Clear() error {
	return l.update(func(entries map[string]string) bool {
		if len(entries) == 0 {
			return false
		}
		for k := range entries {
			delete(entries, k)
		}
		return true
	})
}

// IsIgnored reports whether updates to version are suppressed for key: the
// stored value is Wildcard or exactly version.
func (l *Ledger) IsIgnored(key, version string) bool {
	value, ok := l.lookup(key)
	return ok && (value == Wildcard || value == version)
}

// IgnoredVersion returns the stored value for key, or "".
func (l *Ledger) IgnoredVersion(key string) string {
	value, _ := l.lookup(key)
	return value
}

// Entries returns every suppression sorted by key.
func (l *Ledger) Entries() []Entry {
	var entries map[string]string
	l.withLock(func() error {
		entries = l.read()
		return nil
	})

	out := make([]Entry, 0, len(entries))
	for k, v := range entries {
		out = append(out, Entry{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func (l *Ledger) lookup(key string) (string, bool) {
	var (
		value string
		ok    bool
	)
	l.withLock(func() error {
		value, ok = l.read()[key]
		return nil
	})
	return value, ok
}

// update runs one read-modify-write cycle. mutate reports whether the file
// needs rewriting.
func (l *Ledger) update(mutate func(map[string]string) bool) error {
	return l.withLock(func() error {
		entries := l.read()
		if !mutate(entries) {
			return nil
		}
		if err := l.write(entries); err != nil {
			log.Error("failed to write ignore ledger", logging.KeyPath, l.path, logging.KeyError, err)
			return err
		}
		return nil
	})
}

func (l *Ledger) withLock(fn func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	unlock, err := lockFile(l.path + ".lock")
	if err != nil {
		// Another process may interleave, but in-process writers are still
		// serialized; keep going rather than block the update list.
		log.Warn("could not take ledger file lock", logging.KeyPath, l.path, logging.KeyError, err)
	} else {
		defer unlock()
	}
	return fn()
}

// read loads the ledger. Missing, unreadable or corrupt content is an
// empty ledger.
func (l *Ledger) read() map[string]string {
	entries := map[string]string{}

	data, err := os.ReadFile(l.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn("failed to read ignore ledger, treating as empty", logging.KeyPath, l.path, logging.KeyError, err)
		}
		return entries
	}
	if len(data) == 0 {
		return entries
	}

	if err := json.Unmarshal(data, &entries); err != nil {
		log.Warn("corrupt ignore ledger, treating as empty", logging.KeyPath, l.path, logging.KeyError, err)
		return map[string]string{}
	}
	if entries == nil {
		entries = map[string]string{}
	}
	return entries
}

func (l *Ledger) write(entries map[string]string) error {
	// Snooze values must stay readable as "<yyyy-mm-dd" in the file.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	data := bytes.TrimRight(buf.Bytes(), "\n")

	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create ledger directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(l.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp ledger: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp ledger: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp ledger: %w", err)
	}
	if err := os.Rename(tmpPath, l.path); err != nil {
		return fmt.Errorf("replace ledger: %w", err)
	}
	return nil
}
