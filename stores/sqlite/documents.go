package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"json-storage/core"

	"github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

type documentStore struct {
	db *sql.DB
}

func NewDocumentStore(dataSourceName string) (core.DocumentStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// sqlite allows a single writer at a time.
	db.SetMaxOpenConns(1)
	sts := `CREATE TABLE IF NOT EXISTS documents (id TEXT PRIMARY KEY, data BLOB);`
	if _, err := db.Exec(sts); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create documents table: %w", err)
	}
	return &documentStore{db}, nil
}

func (s *documentStore) FindID(ctx context.Context, id string) (*core.Document, error) {
	if err := core.ValidateID(id); err != nil {
		return nil, err
	}
	log := logrus.WithField("document_id", id)
	log.Debug("Retrieving document by ID")
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT data FROM documents WHERE id = ?", id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("Document with specified ID not found")
			return nil, fmt.Errorf("document with id %s: %w", id, core.ErrNotFound)
		}
		log.WithField("error", err).Error("Failed to retrieve document")
		return nil, fmt.Errorf("failed to read document %s: %w", id, err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("document with id %s: %w", id, core.ErrCorrupt)
	}
	log.Debug("Document retrieved successfully")
	return &core.Document{ID: id, Data: data}, nil
}

func (s *documentStore) Create(ctx context.Context, document *core.Document) (string, error) {
	data, err := validate(document)
	if err != nil {
		return "", err
	}
	log := logrus.WithFields(logrus.Fields{
		"document_id": document.ID,
		"data_length": len(data),
	})

	_, err = s.db.ExecContext(ctx, "INSERT INTO documents (id, data) VALUES (?, ?)", document.ID, data)
	if err != nil {
		var sqlErr sqlite3.Error
		if errors.As(err, &sqlErr) && (sqlErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey || sqlErr.ExtendedCode == sqlite3.ErrConstraintUnique) {
			return "", fmt.Errorf("document with id %s: %w", document.ID, core.ErrAlreadyExists)
		}
		log.WithField("error", err).Error("Failed to create document")
		return "", fmt.Errorf("failed to create document %s: %w", document.ID, err)
	}
	log.Info("Document created successfully")
	return document.ID, nil
}

func (s *documentStore) Update(ctx context.Context, document *core.Document) (string, error) {
	data, err := validate(document)
	if err != nil {
		return "", err
	}
	log := logrus.WithFields(logrus.Fields{
		"document_id": document.ID,
		"data_length": len(data),
	})

	res, err := s.db.ExecContext(ctx, "UPDATE documents SET data = ? WHERE id = ?", data, document.ID)
	if err != nil {
		log.WithField("error", err).Error("Failed to update document")
		return "", fmt.Errorf("failed to update document %s: %w", document.ID, err)
	}
	if err := requireRow(res, document.ID); err != nil {
		return "", err
	}
	log.Info("Document updated successfully")
	return document.ID, nil
}

func (s *documentStore) Delete(ctx context.Context, id string) (string, error) {
	if err := core.ValidateID(id); err != nil {
		return "", err
	}
	log := logrus.WithField("document_id", id)

	res, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		log.WithField("error", err).Error("Failed to delete document")
		return "", fmt.Errorf("failed to delete document %s: %w", id, err)
	}
	if err := requireRow(res, id); err != nil {
		return "", err
	}
	log.Info("Document deleted successfully")
	return id, nil
}

// Close releases the underlying database handle.
func (s *documentStore) Close() error {
	return s.db.Close()
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to count affected rows for %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("document with id %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func validate(document *core.Document) ([]byte, error) {
	if err := core.ValidateID(document.ID); err != nil {
		return nil, err
	}
	return core.CompactData(document.Data)
}
