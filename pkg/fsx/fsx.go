// Package fsx abstracts file storage behind one interface so the
// artifact vault runs identically on local disk in dev and S3 in prod.
package fsx

import (
	"context"
	"io"
	"time"
)

// FileInfo describes a stored object.
type FileInfo struct {
	Name        string
	Size        int64
	ModTime     time.Time
	IsDir       bool
	ContentType string
	Metadata    map[string]string
}

// FileReader covers everything that only looks at storage.
type FileReader interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
	ReadFileStream(ctx context.Context, path string) (io.ReadCloser, error)
	Stat(ctx context.Context, path string) (FileInfo, error)
	List(ctx context.Context, path string) ([]FileInfo, error)
	Exists(ctx context.Context, path string) (bool, error)
}

// FileWriter covers creation and mutation.
type FileWriter interface {
	WriteFile(ctx context.Context, path string, data []byte) error
	WriteFileStream(ctx context.Context, path string, r io.Reader) error
	CreateDir(ctx context.Context, path string) error
}

// FileDeleter covers removal.
type FileDeleter interface {
	DeleteFile(ctx context.Context, path string) error
	DeleteDir(ctx context.Context, path string, recursive bool) error
}

// PathOperations joins path segments in the backend's separator
// convention (slash for S3 keys, OS separator locally).
type PathOperations interface {
	Join(elem ...string) string
}

// FileSystem is the full storage contract application code depends on.
type FileSystem interface {
	FileReader
	FileWriter
	FileDeleter
	PathOperations
}

// PresignedURLOptions tunes presigned URL generation.
type PresignedURLOptions struct {
	Expiration  time.Duration
	ContentType string
	Metadata    map[string]string
}

// PresignedURLGenerator is the optional capability of backends that can
// hand out direct upload/download URLs.
type PresignedURLGenerator interface {
	GetPresignedDownloadURL(ctx context.Context, path string, expiration time.Duration) (string, error)
	GetPresignedUploadURL(ctx context.Context, path string, expiration time.Duration) (string, error)
	GetPresignedUploadURLWithOptions(ctx context.Context, path string, opts PresignedURLOptions) (string, error)
}

// FileSystemWithPresign is what the S3 backend provides.
type FileSystemWithPresign interface {
	FileSystem
	PresignedURLGenerator
}
