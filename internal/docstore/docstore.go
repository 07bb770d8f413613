// Package docstore persists shared portal state as flat JSON documents on a
// local filesystem. Each document is guarded by a sidecar advisory file lock,
// written atomically through a temp-file rename, and shadowed by a rolling
// one-generation backup used for corruption recovery.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/xid"
	"pkt.systems/pslog"

	"github.com/sosedi-hub/sosedi/internal/loggingutil"
)

const (
	documentSuffix = ".json"
	backupSuffix   = ".bak"
	lockSuffix     = ".lock"
	tempInfix      = ".tmp."
)

// ErrShape marks a decode failure caused by a document whose JSON is valid
// but does not fit the caller's type. Unlike corruption, this is a programmer
// error and is never masked by backup recovery.
var ErrShape = errors.New("docstore: document shape mismatch")

// Config captures the tunables for a document store.
type Config struct {
	// Dir is the directory holding all document files.
	Dir string
	// Logger is used when the context carries none.
	Logger pslog.Logger
}

// Store manages the documents under one directory.
type Store struct {
	dir    string
	locks  sync.Map
	logger pslog.Logger
}

// New initialises a store rooted at cfg.Dir, creating the directory if needed.
func New(cfg Config) (*Store, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("docstore: directory required")
	}
	dir := filepath.Clean(cfg.Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("docstore: prepare directory %q: %w", dir, err)
	}
	return &Store{
		dir:    dir,
		logger: loggingutil.EnsureLogger(cfg.Logger),
	}, nil
}

// Dir reports the directory the store operates on.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) loggerFrom(ctx context.Context) pslog.Logger {
	if logger := pslog.LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return s.logger
}

func (s *Store) documentPath(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("docstore: document name required")
	}
	if strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return "", fmt.Errorf("docstore: invalid document name %q", name)
	}
	return filepath.Join(s.dir, name+documentSuffix), nil
}

func (s *Store) nameMutex(name string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(name, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// fileLock couples the in-process mutex with the on-disk advisory lock.
// Advisory locks do not exclude handles within the same process, so both
// layers are required.
type fileLock struct {
	file *os.File
	mu   *sync.Mutex
}

func (f *fileLock) release() error {
	defer f.mu.Unlock()
	if f.file == nil {
		return nil
	}
	if err := unlockFile(f.file); err != nil {
		f.file.Close()
		return err
	}
	return f.file.Close()
}

// acquire blocks until the document's lock is held. There is no timeout; a
// stuck holder blocks all others, which is acceptable at this workload's
// contention level.
func (s *Store) acquire(name, path string) (*fileLock, error) {
	mu := s.nameMutex(name)
	mu.Lock()
	f, err := os.OpenFile(path+lockSuffix, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		mu.Unlock()
		return nil, fmt.Errorf("docstore: open lock: %w", err)
	}
	if err := lockFile(f); err != nil {
		f.Close()
		mu.Unlock()
		return nil, fmt.Errorf("docstore: lock document: %w", err)
	}
	return &fileLock{file: f, mu: mu}, nil
}

// Load decodes the document into out, which should already hold the
// collection's default value. It returns false when the document is absent or
// unrecoverably corrupt, in which case out is left untouched. Storage-layer
// failures never surface as errors; only a shape mismatch does.
func (s *Store) Load(ctx context.Context, name string, out any) (found bool, err error) {
	path, err := s.documentPath(name)
	if err != nil {
		return false, err
	}
	fl, err := s.acquire(name, path)
	if err != nil {
		return false, err
	}
	defer func() {
		if unlockErr := fl.release(); unlockErr != nil && err == nil {
			err = unlockErr
		}
	}()
	return s.readDocument(ctx, name, path, out)
}

// Save atomically replaces the document with value, keeping the previous
// generation in the backup file.
func (s *Store) Save(ctx context.Context, name string, value any) (err error) {
	path, err := s.documentPath(name)
	if err != nil {
		return err
	}
	fl, err := s.acquire(name, path)
	if err != nil {
		return err
	}
	defer func() {
		if unlockErr := fl.release(); unlockErr != nil && err == nil {
			err = unlockErr
		}
	}()
	return s.writeDocument(ctx, name, path, value)
}

// Update runs fn while holding the document lock across the whole
// read-modify-write cycle, so concurrent updates cannot lose each other's
// changes the way a separate Load/Save pair can. The decoded document (or the
// untouched default when absent) is visible to fn through the value pointer;
// fn reports whether the mutated value should be persisted.
func (s *Store) Update(ctx context.Context, name string, value any, fn func(found bool) (save bool, err error)) (err error) {
	path, err := s.documentPath(name)
	if err != nil {
		return err
	}
	fl, err := s.acquire(name, path)
	if err != nil {
		return err
	}
	defer func() {
		if unlockErr := fl.release(); unlockErr != nil && err == nil {
			err = unlockErr
		}
	}()

	found, err := s.readDocument(ctx, name, path, value)
	if err != nil {
		return err
	}
	save, err := fn(found)
	if err != nil {
		return err
	}
	if !save {
		return nil
	}
	return s.writeDocument(ctx, name, path, value)
}

// readDocument expects the caller to hold the document lock.
func (s *Store) readDocument(ctx context.Context, name, path string, out any) (bool, error) {
	logger := s.loggerFrom(ctx)

	data, state := readCandidate(path)
	switch state {
	case candidateAbsent:
		// First-run state; the backup is never consulted for a missing
		// primary.
		logger.Trace("docstore.load.absent", "document", name)
		return false, nil
	case candidateOK:
	default:
		logger.Warn("docstore.load.primary_corrupt", "document", name, "path", path)
		data, state = readCandidate(path + backupSuffix)
		if state != candidateOK {
			defaultsTotal.WithLabelValues(name).Inc()
			logger.Error("docstore.load.unrecoverable", "document", name, "path", path)
			return false, nil
		}
		recoveriesTotal.WithLabelValues(name).Inc()
		logger.Warn("docstore.load.recovered_from_backup", "document", name)
	}

	if err := json.Unmarshal(data, out); err != nil {
		// The payload already passed json.Valid, so this is the caller's
		// type disagreeing with the file.
		return false, fmt.Errorf("%w: %s: %v", ErrShape, name, err)
	}
	return true, nil
}

type candidateState int

const (
	candidateOK candidateState = iota
	candidateAbsent
	candidateCorrupt
)

// readCandidate reads one document file and reports whether its content is
// usable. A zero-length file counts as corrupt, same as invalid JSON.
func readCandidate(path string) ([]byte, candidateState) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, candidateAbsent
		}
		return nil, candidateCorrupt
	}
	if len(data) == 0 || !json.Valid(data) {
		return nil, candidateCorrupt
	}
	return data, candidateOK
}

// writeDocument expects the caller to hold the document lock.
func (s *Store) writeDocument(ctx context.Context, name, path string, value any) error {
	logger := s.loggerFrom(ctx)
	start := time.Now()
	logger.Trace("docstore.save.begin", "document", name)

	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("docstore: encode %s: %w", name, err)
	}

	// Back up the current generation first. Failure here must not abort the
	// write; the fresh content wins over a stale backup.
	if _, statErr := os.Stat(path); statErr == nil {
		if copyErr := copyFile(path, path+backupSuffix); copyErr != nil {
			backupFailuresTotal.WithLabelValues(name).Inc()
			logger.Warn("docstore.save.backup_failed", "document", name, "error", copyErr)
		}
	}

	tmp := path + tempInfix + xid.New().String()
	if err := writeTempFile(tmp, payload); err != nil {
		return fmt.Errorf("docstore: stage %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("docstore: replace %s: %w", name, err)
	}

	writesTotal.WithLabelValues(name).Inc()
	logger.Debug("docstore.save.success",
		"document", name,
		"bytes", len(payload),
		"elapsed", time.Since(start),
	)
	return nil
}

// writeTempFile writes payload to a fresh temp file and forces it to stable
// storage before returning. The rename that follows is the durability point
// readers may observe.
func writeTempFile(path string, payload []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(payload); err != nil {
		f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := syncFile(f); err != nil {
		f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return err
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	_ = syncFile(out)
	return out.Close()
}
