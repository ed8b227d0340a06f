// Package fsxlocal stores files under a base directory on local disk.
// It is the dev-mode counterpart of fsxs3.
package fsxlocal

import (
	"context"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/Abraxas-365/workgate/pkg/errx"
	"github.com/Abraxas-365/workgate/pkg/fsx"
)

// LocalFileSystem keeps every path inside basePath. Paths handed to the
// methods are relative to it.
type LocalFileSystem struct {
	basePath string
}

// NewLocalFileSystem resolves basePath, creating it when absent.
func NewLocalFileSystem(basePath string) (*LocalFileSystem, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, errx.Wrap(err, "could not create base directory", errx.TypeInternal).
			WithDetail("path", basePath)
	}
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, errx.Wrap(err, "could not resolve base directory", errx.TypeInternal).
			WithDetail("path", basePath)
	}
	return &LocalFileSystem{basePath: abs}, nil
}

// GetBasePath reports the resolved root directory.
func (l *LocalFileSystem) GetBasePath() string { return l.basePath }

func (l *LocalFileSystem) abs(path string) string {
	return filepath.Join(l.basePath, path)
}

// --- reads ---

func (l *LocalFileSystem) ReadFile(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(l.abs(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errx.NotFound("file not found").WithDetail("path", path)
		}
		return nil, errx.Wrap(err, "read failed", errx.TypeInternal).WithDetail("path", path)
	}
	return data, nil
}

func (l *LocalFileSystem) ReadFileStream(_ context.Context, path string) (io.ReadCloser, error) {
	f, err := os.Open(l.abs(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errx.NotFound("file not found").WithDetail("path", path)
		}
		return nil, errx.Wrap(err, "open failed", errx.TypeInternal).WithDetail("path", path)
	}
	return f, nil
}

func (l *LocalFileSystem) Stat(_ context.Context, path string) (fsx.FileInfo, error) {
	info, err := os.Stat(l.abs(path))
	if err != nil {
		if os.IsNotExist(err) {
			return fsx.FileInfo{}, errx.NotFound("file not found").WithDetail("path", path)
		}
		return fsx.FileInfo{}, errx.Wrap(err, "stat failed", errx.TypeInternal).WithDetail("path", path)
	}
	return toFileInfo(info), nil
}

func (l *LocalFileSystem) List(_ context.Context, path string) ([]fsx.FileInfo, error) {
	entries, err := os.ReadDir(l.abs(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errx.NotFound("directory not found").WithDetail("path", path)
		}
		return nil, errx.Wrap(err, "list failed", errx.TypeInternal).WithDetail("path", path)
	}

	infos := make([]fsx.FileInfo, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			// entry vanished between ReadDir and Info
			continue
		}
		infos = append(infos, toFileInfo(info))
	}
	return infos, nil
}

func (l *LocalFileSystem) Exists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(l.abs(path))
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, errx.Wrap(err, "stat failed", errx.TypeInternal).WithDetail("path", path)
	}
}

// --- writes ---

func (l *LocalFileSystem) WriteFile(_ context.Context, path string, data []byte) error {
	full := l.abs(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return errx.Wrap(err, "could not create parent directories", errx.TypeInternal).
			WithDetail("path", path)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return errx.Wrap(err, "write failed", errx.TypeInternal).WithDetail("path", path)
	}
	return nil
}

func (l *LocalFileSystem) WriteFileStream(_ context.Context, path string, r io.Reader) error {
	full := l.abs(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return errx.Wrap(err, "could not create parent directories", errx.TypeInternal).
			WithDetail("path", path)
	}
	f, err := os.Create(full)
	if err != nil {
		return errx.Wrap(err, "create failed", errx.TypeInternal).WithDetail("path", path)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return errx.Wrap(err, "write failed", errx.TypeInternal).WithDetail("path", path)
	}
	return nil
}

func (l *LocalFileSystem) CreateDir(_ context.Context, path string) error {
	if err := os.MkdirAll(l.abs(path), 0o755); err != nil {
		return errx.Wrap(err, "could not create directory", errx.TypeInternal).
			WithDetail("path", path)
	}
	return nil
}

// --- deletes ---

func (l *LocalFileSystem) DeleteFile(_ context.Context, path string) error {
	err := os.Remove(l.abs(path))
	if err != nil && !os.IsNotExist(err) {
		return errx.Wrap(err, "delete failed", errx.TypeInternal).WithDetail("path", path)
	}
	return nil
}

func (l *LocalFileSystem) DeleteDir(_ context.Context, path string, recursive bool) error {
	full := l.abs(path)
	var err error
	if recursive {
		err = os.RemoveAll(full)
	} else {
		err = os.Remove(full)
	}
	if err != nil && !os.IsNotExist(err) {
		return errx.Wrap(err, "delete failed", errx.TypeInternal).WithDetail("path", path)
	}
	return nil
}

func (l *LocalFileSystem) Join(elem ...string) string {
	return filepath.Join(elem...)
}

func toFileInfo(info os.FileInfo) fsx.FileInfo {
	contentType := ""
	if !info.IsDir() {
		contentType = mime.TypeByExtension(filepath.Ext(info.Name()))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
	}
	return fsx.FileInfo{
		Name:        info.Name(),
		Size:        info.Size(),
		ModTime:     info.ModTime(),
		IsDir:       info.IsDir(),
		ContentType: contentType,
		Metadata:    map[string]string{},
	}
}
