package fsxs3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"

	"github.com/Abraxas-365/workgate/pkg/errx"
	"github.com/Abraxas-365/workgate/pkg/fsx"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3FileSystem implements fsx.FileSystemWithPresign over an S3 bucket.
// Paths map directly to object keys; "directories" are key prefixes.
type S3FileSystem struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	prefix  string
}

// NewS3FileSystem creates a file system over the given bucket. An optional
// prefix is prepended to every key.
func NewS3FileSystem(client *s3.Client, bucket, prefix string) *S3FileSystem {
	return &S3FileSystem{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  bucket,
		prefix:  strings.Trim(prefix, "/"),
	}
}

func (f *S3FileSystem) key(p string) string {
	p = strings.TrimPrefix(p, "/")
	if f.prefix == "" {
		return p
	}
	return f.prefix + "/" + p
}

func (f *S3FileSystem) ReadFile(ctx context.Context, p string) ([]byte, error) {
	r, err := f.ReadFileStream(ctx, p)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (f *S3FileSystem) ReadFileStream(ctx context.Context, p string) (io.ReadCloser, error) {
	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(f.key(p)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, errx.NotFound("object not found").WithDetail("path", p)
		}
		return nil, errx.Wrap(err, "s3 get object failed", errx.TypeExternal).WithDetail("path", p)
	}
	return out.Body, nil
}

func (f *S3FileSystem) Stat(ctx context.Context, p string) (fsx.FileInfo, error) {
	out, err := f.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(f.key(p)),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return fsx.FileInfo{}, errx.NotFound("object not found").WithDetail("path", p)
		}
		return fsx.FileInfo{}, errx.Wrap(err, "s3 head object failed", errx.TypeExternal).WithDetail("path", p)
	}

	info := fsx.FileInfo{
		Name:     path.Base(p),
		Size:     aws.ToInt64(out.ContentLength),
		Metadata: out.Metadata,
	}
	if out.LastModified != nil {
		info.ModTime = *out.LastModified
	}
	if out.ContentType != nil {
		info.ContentType = *out.ContentType
	}
	return info, nil
}

func (f *S3FileSystem) List(ctx context.Context, p string) ([]fsx.FileInfo, error) {
	prefix := f.key(p)
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	var infos []fsx.FileInfo
	paginator := s3.NewListObjectsV2Paginator(f.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(f.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, errx.Wrap(err, "s3 list objects failed", errx.TypeExternal).WithDetail("path", p)
		}
		for _, obj := range page.Contents {
			info := fsx.FileInfo{
				Name: path.Base(aws.ToString(obj.Key)),
				Size: aws.ToInt64(obj.Size),
			}
			if obj.LastModified != nil {
				info.ModTime = *obj.LastModified
			}
			infos = append(infos, info)
		}
	}
	return infos, nil
}

func (f *S3FileSystem) Exists(ctx context.Context, p string) (bool, error) {
	_, err := f.Stat(ctx, p)
	if err != nil {
		var e *errx.Error
		if errx.As(err, &e) && e.Type == errx.TypeNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (f *S3FileSystem) WriteFile(ctx context.Context, p string, data []byte) error {
	return f.WriteFileStream(ctx, p, bytes.NewReader(data))
}

func (f *S3FileSystem) WriteFileStream(ctx context.Context, p string, r io.Reader) error {
	_, err := f.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(f.key(p)),
		Body:   r,
	})
	if err != nil {
		return errx.Wrap(err, "s3 put object failed", errx.TypeExternal).WithDetail("path", p)
	}
	return nil
}

// CreateDir is a no-op: S3 has no directories.
func (f *S3FileSystem) CreateDir(ctx context.Context, p string) error {
	return nil
}

func (f *S3FileSystem) DeleteFile(ctx context.Context, p string) error {
	_, err := f.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(f.key(p)),
	})
	if err != nil {
		return errx.Wrap(err, "s3 delete object failed", errx.TypeExternal).WithDetail("path", p)
	}
	return nil
}

func (f *S3FileSystem) DeleteDir(ctx context.Context, p string, recursive bool) error {
	if !recursive {
		return errx.Validation("s3 prefixes can only be deleted recursively").WithDetail("path", p)
	}

	infos, err := f.List(ctx, p)
	if err != nil {
		return err
	}
	for _, info := range infos {
		if err := f.DeleteFile(ctx, f.Join(p, info.Name)); err != nil {
			return err
		}
	}
	return nil
}

func (f *S3FileSystem) Join(elem ...string) string {
	return path.Join(elem...)
}

func (f *S3FileSystem) GetPresignedDownloadURL(ctx context.Context, p string, expiration time.Duration) (string, error) {
	req, err := f.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(f.key(p)),
	}, s3.WithPresignExpires(expiration))
	if err != nil {
		return "", errx.Wrap(err, "s3 presign download failed", errx.TypeExternal).WithDetail("path", p)
	}
	return req.URL, nil
}

func (f *S3FileSystem) GetPresignedUploadURL(ctx context.Context, p string, expiration time.Duration) (string, error) {
	return f.GetPresignedUploadURLWithOptions(ctx, p, fsx.PresignedURLOptions{Expiration: expiration})
}

func (f *S3FileSystem) GetPresignedUploadURLWithOptions(ctx context.Context, p string, opts fsx.PresignedURLOptions) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(f.key(p)),
	}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}
	if len(opts.Metadata) > 0 {
		input.Metadata = opts.Metadata
	}

	req, err := f.presign.PresignPutObject(ctx, input, s3.WithPresignExpires(opts.Expiration))
	if err != nil {
		return "", errx.Wrap(err, "s3 presign upload failed", errx.TypeExternal).WithDetail("path", p)
	}
	return req.URL, nil
}
