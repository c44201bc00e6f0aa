package aws

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"json-storage/core"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/sirupsen/logrus"
)

const keySuffix = ".json"

// API is the subset of *s3.Client the store needs.
type API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type documentStore struct {
	s3Client API
	bucket   string // Name of the S3 bucket
}

// NewDocumentStore loads the default AWS configuration (environment, shared
// config files, instance role) and stores documents as <id>.json objects.
func NewDocumentStore(ctx context.Context, bucketName string) (core.DocumentStore, error) {
	if bucketName == "" {
		return nil, errors.New("s3 store: bucket name is empty")
	}
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return NewDocumentStoreWithClient(s3.NewFromConfig(cfg), bucketName), nil
}

func NewDocumentStoreWithClient(client API, bucketName string) core.DocumentStore {
	return &documentStore{
		s3Client: client,
		bucket:   bucketName,
	}
}

func (s *documentStore) FindID(ctx context.Context, id string) (*core.Document, error) {
	if err := core.ValidateID(id); err != nil {
		return nil, err
	}
	resp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(id + keySuffix),
	})
	if err != nil {
		return nil, classify(id, "get", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read document data: %w", err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("document with id %s: %w", id, core.ErrCorrupt)
	}
	return &core.Document{ID: id, Data: data}, nil
}

func (s *documentStore) Create(ctx context.Context, document *core.Document) (string, error) {
	data, err := validate(document)
	if err != nil {
		return "", err
	}
	// Conditional write: S3 rejects the put if the key already exists.
	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(document.ID + keySuffix),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
		IfNoneMatch: aws.String("*"),
	})
	if err != nil {
		if apiCode(err) == "PreconditionFailed" || apiCode(err) == "ConditionalRequestConflict" {
			return "", fmt.Errorf("document with id %s: %w", document.ID, core.ErrAlreadyExists)
		}
		return "", classify(document.ID, "upload", err)
	}
	logrus.WithField("document_id", document.ID).Info("Document created successfully")
	return document.ID, nil
}

func (s *documentStore) Update(ctx context.Context, document *core.Document) (string, error) {
	data, err := validate(document)
	if err != nil {
		return "", err
	}
	key := aws.String(document.ID + keySuffix)
	// Pin the put to the ETag we saw so a concurrent delete is not undone.
	head, err := s.s3Client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: key})
	if err != nil {
		return "", classify(document.ID, "head", err)
	}
	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         key,
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
		IfMatch:     head.ETag,
	})
	if err != nil {
		if apiCode(err) == "PreconditionFailed" {
			return "", fmt.Errorf("document with id %s changed concurrently: %w", document.ID, core.ErrConcurrentWrite)
		}
		return "", classify(document.ID, "upload", err)
	}
	logrus.WithField("document_id", document.ID).Info("Document updated successfully")
	return document.ID, nil
}

func (s *documentStore) Delete(ctx context.Context, id string) (string, error) {
	if err := core.ValidateID(id); err != nil {
		return "", err
	}
	key := aws.String(id + keySuffix)
	// DeleteObject succeeds for missing keys, so check first.
	if _, err := s.s3Client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: key}); err != nil {
		return "", classify(id, "head", err)
	}
	if _, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: key}); err != nil {
		return "", classify(id, "delete", err)
	}
	logrus.WithField("document_id", id).Info("Document deleted successfully")
	return id, nil
}

func classify(id, op string, err error) error {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return fmt.Errorf("document with id %s: %w", id, core.ErrNotFound)
	}
	return fmt.Errorf("failed to %s document %s: %w", op, id, err)
}

func apiCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

func validate(document *core.Document) ([]byte, error) {
	if err := core.ValidateID(document.ID); err != nil {
		return nil, err
	}
	return core.CompactData(document.Data)
}
