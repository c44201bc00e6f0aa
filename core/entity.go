package core

import (
	"context"
	"encoding/json"
)

type (
	// Document is a JSON value stored under a caller-chosen ID.
	Document struct {
		ID   string
		Data json.RawMessage
	}

	// DocumentStore persists documents keyed by ID. Implementations must be
	// safe for concurrent use and report failures with the errors in this
	// package so callers can classify them with errors.Is.
	DocumentStore interface {
		FindID(ctx context.Context, id string) (*Document, error)
		Create(ctx context.Context, document *Document) (string, error)
		Update(ctx context.Context, document *Document) (string, error)
		Delete(ctx context.Context, id string) (string, error)
	}
)
