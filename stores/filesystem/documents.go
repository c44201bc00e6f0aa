package filesystem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"json-storage/core"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	fileSuffix = ".json"
	// Temp files never end in fileSuffix, so they cannot shadow a document.
	tempPattern = ".create-*.tmp"

	DefaultLockTimeout      = 5 * time.Second
	DefaultLockPollInterval = 10 * time.Millisecond
)

type documentStore struct {
	basePath     string // Absolute directory where documents are stored.
	lockTimeout  time.Duration
	pollInterval time.Duration
}

// Option configures the filesystem store.
type Option func(*documentStore)

// WithLockTimeout bounds how long a writer waits for the file lock.
func WithLockTimeout(d time.Duration) Option {
	return func(s *documentStore) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}

func WithLockPollInterval(d time.Duration) Option {
	return func(s *documentStore) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// NewDocumentStore keeps one <id>.json file per document directly under
// basePath, creating the directory if needed.
func NewDocumentStore(basePath string, opts ...Option) (core.DocumentStore, error) {
	if basePath == "" {
		return nil, errors.New("filesystem store: base path is empty")
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	s := &documentStore{
		basePath:     abs,
		lockTimeout:  DefaultLockTimeout,
		pollInterval: DefaultLockPollInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// documentPath maps id to its backing file and refuses anything that would
// not land directly inside basePath.
func (s *documentStore) documentPath(id string) (string, error) {
	if err := core.ValidateID(id); err != nil {
		return "", err
	}
	p := filepath.Clean(filepath.Join(s.basePath, id+fileSuffix))
	if filepath.Dir(p) != s.basePath {
		return "", fmt.Errorf("%w: %q escapes storage root", core.ErrInvalidID, id)
	}
	return p, nil
}

func (s *documentStore) FindID(ctx context.Context, id string) (*core.Document, error) {
	filePath, err := s.documentPath(id)
	if err != nil {
		return nil, err
	}
	log := logrus.WithFields(logrus.Fields{
		"document_id": id,
		"file_path":   filePath,
	})

	log.Debug("Retrieving document by ID")
	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Debug("Document with specified ID not found")
			return nil, fmt.Errorf("document with id %s: %w", id, core.ErrNotFound)
		}
		log.WithField("error", err).Error("Failed to retrieve document")
		return nil, fmt.Errorf("failed to read document %s: %w", id, err)
	}
	if !json.Valid(data) {
		log.Error("Stored document is not valid JSON")
		return nil, fmt.Errorf("document with id %s: %w", id, core.ErrCorrupt)
	}

	log.Debug("Document retrieved successfully")
	return &core.Document{ID: id, Data: json.RawMessage(data)}, nil
}

func (s *documentStore) Create(ctx context.Context, document *core.Document) (string, error) {
	filePath, err := s.documentPath(document.ID)
	if err != nil {
		return "", err
	}
	data, err := core.CompactData(document.Data)
	if err != nil {
		return "", err
	}
	log := logrus.WithFields(logrus.Fields{
		"document_id": document.ID,
		"file_path":   filePath,
	})
	log.Debug("Creating new document")

	// The content is written to a private temp file and then hard-linked to
	// its final name. Link fails if the name exists, so creation stays an
	// atomic create-if-absent and no other writer ever sees an empty file.
	tmp, err := os.CreateTemp(s.basePath, tempPattern)
	if err != nil {
		log.WithField("error", err).Error("Failed to create temp file")
		return "", fmt.Errorf("failed to create document %s: %w", document.ID, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := s.writeLocked(ctx, tmp, data); err != nil {
		log.WithField("error", err).Error("Failed to write new document")
		return "", err
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return "", fmt.Errorf("failed to create document %s: %w", document.ID, err)
	}
	if err := os.Link(tmpPath, filePath); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("document with id %s: %w", document.ID, core.ErrAlreadyExists)
		}
		log.WithField("error", err).Error("Failed to create document")
		return "", fmt.Errorf("failed to create document %s: %w", document.ID, err)
	}

	log.Info("Document created successfully")
	return document.ID, nil
}

func (s *documentStore) Update(ctx context.Context, document *core.Document) (string, error) {
	filePath, err := s.documentPath(document.ID)
	if err != nil {
		return "", err
	}
	data, err := core.CompactData(document.Data)
	if err != nil {
		return "", err
	}
	log := logrus.WithFields(logrus.Fields{
		"document_id": document.ID,
		"file_path":   filePath,
	})
	log.Debug("Updating document")

	// No O_CREATE: update never brings a document into existence.
	f, err := os.OpenFile(filePath, os.O_WRONLY, 0)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("document with id %s: %w", document.ID, core.ErrNotFound)
		}
		log.WithField("error", err).Error("Failed to open document")
		return "", fmt.Errorf("failed to open document %s: %w", document.ID, err)
	}

	if err := s.writeLocked(ctx, f, data); err != nil {
		log.WithField("error", err).Error("Failed to update document")
		return "", err
	}

	log.Info("Document updated successfully")
	return document.ID, nil
}

func (s *documentStore) Delete(ctx context.Context, id string) (string, error) {
	filePath, err := s.documentPath(id)
	if err != nil {
		return "", err
	}
	log := logrus.WithFields(logrus.Fields{
		"document_id": id,
		"file_path":   filePath,
	})
	log.Debug("Deleting document")

	f, err := os.OpenFile(filePath, os.O_WRONLY, 0)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("document with id %s: %w", id, core.ErrNotFound)
		}
		log.WithField("error", err).Error("Failed to open document")
		return "", fmt.Errorf("failed to open document %s: %w", id, err)
	}
	defer f.Close()

	// Wait for an in-flight writer before unlinking.
	if err := lockExclusive(ctx, f, s.lockTimeout, s.pollInterval); err != nil {
		return "", err
	}
	defer unlock(f)

	if err := os.Remove(filePath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("document with id %s: %w", id, core.ErrNotFound)
		}
		log.WithField("error", err).Error("Failed to delete document")
		return "", fmt.Errorf("failed to delete document %s: %w", id, err)
	}

	log.Info("Document deleted successfully")
	return id, nil
}

// writeLocked replaces the content of f under an exclusive lock and closes
// f on every path.
func (s *documentStore) writeLocked(ctx context.Context, f *os.File, data []byte) (err error) {
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", f.Name(), cerr)
		}
	}()

	if err := lockExclusive(ctx, f, s.lockTimeout, s.pollInterval); err != nil {
		return err
	}
	defer func() {
		if uerr := unlock(f); uerr != nil && err == nil {
			err = fmt.Errorf("failed to unlock %s: %w", f.Name(), uerr)
		}
	}()

	// Truncate only once the lock is held so a concurrent writer is never
	// clobbered mid-write.
	if err := f.Truncate(0); err != nil {
		return fmt.Errorf("failed to truncate %s: %w", f.Name(), err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek %s: %w", f.Name(), err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", f.Name(), err)
	}
	return nil
}
