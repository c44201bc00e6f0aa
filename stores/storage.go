package stores

import (
	"context"
	"fmt"
	"json-storage/core"
	"json-storage/stores/aws"
	"json-storage/stores/filesystem"
	"json-storage/stores/memory"
	"json-storage/stores/sqlite"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

const DefaultStoragePath = "/mnt/efs/json-storage"

// Config selects and parameterizes a document store backend.
type Config struct {
	StorageType    string
	StoragePath    string
	DataSourceName string
	BucketName     string
	LockTimeout    time.Duration
}

// ConfigFromEnv reads STORAGE_TYPE, STORAGE_PATH, DATA_SOURCE_NAME,
// S3_BUCKET_NAME and LOCK_TIMEOUT.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		StorageType:    os.Getenv("STORAGE_TYPE"),
		StoragePath:    os.Getenv("STORAGE_PATH"),
		DataSourceName: os.Getenv("DATA_SOURCE_NAME"),
		BucketName:     os.Getenv("S3_BUCKET_NAME"),
		LockTimeout:    filesystem.DefaultLockTimeout,
	}
	if cfg.StoragePath == "" {
		cfg.StoragePath = DefaultStoragePath
	}
	if v := os.Getenv("LOCK_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("invalid LOCK_TIMEOUT %q", v)
		}
		cfg.LockTimeout = d
	}
	return cfg, nil
}

// GetStore builds the backend named by cfg.StorageType. The filesystem
// store is the default.
func GetStore(ctx context.Context, cfg Config) (core.DocumentStore, error) {
	var (
		store core.DocumentStore
		err   error
	)

	storageField := logrus.Fields{
		"storageType": cfg.StorageType,
	}

	switch cfg.StorageType {
	case "filesystem", "":
		storageField["storageType"] = "filesystem"
		storageField["basePath"] = cfg.StoragePath
		storageField["lockTimeout"] = cfg.LockTimeout.String()
		store, err = filesystem.NewDocumentStore(cfg.StoragePath, filesystem.WithLockTimeout(cfg.LockTimeout))
	case "sqlite":
		dataSourceName := cfg.DataSourceName
		if dataSourceName == "" {
			if err := os.MkdirAll(cfg.StoragePath, 0755); err != nil {
				return nil, fmt.Errorf("failed to create storage directory: %w", err)
			}
			dataSourceName = filepath.Join(cfg.StoragePath, "documents.db")
		}
		storageField["dataSourceName"] = dataSourceName
		store, err = sqlite.NewDocumentStore(dataSourceName)
	case "s3":
		storageField["bucketName"] = cfg.BucketName
		store, err = aws.NewDocumentStore(ctx, cfg.BucketName)
	case "memory":
		store = memory.NewDocumentStore()
		storageField["storageType"] = "in-memory"
	default:
		return nil, fmt.Errorf("unknown storage type %q (supported: filesystem, sqlite, s3, memory)", cfg.StorageType)
	}
	if err != nil {
		logrus.WithFields(storageField).WithField("error", err).Error("Failed to initialize storage")
		return nil, err
	}
	logrus.WithFields(storageField).Info("Use storage")
	return store, nil
}
