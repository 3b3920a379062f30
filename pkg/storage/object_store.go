package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"dexter/pkg/domain"
)

// ObjectStore holds document version files.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	PresignGet(ctx context.Context, key, filename string, expiry time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MinioStore implements ObjectStore for MinIO/S3 compatible storage.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore connects and ensures the bucket exists.
func NewMinioStore(ctx context.Context, cfg MinioConfig) (*MinioStore, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" || strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("minio endpoint and bucket required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}
	return &MinioStore{client: client, bucket: cfg.Bucket}, nil
}

func (m *MinioStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

// PresignGet returns a GET URL that downloads key as filename.
func (m *MinioStore) PresignGet(ctx context.Context, key, filename string, expiry time.Duration) (string, error) {
	params := url.Values{}
	if filename != "" {
		params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", filename))
	}
	u, err := m.client.PresignedGetObject(ctx, m.bucket, key, expiry, params)
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return u.String(), nil
}

func (m *MinioStore) Delete(ctx context.Context, key string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

var extensions = map[domain.FileType]string{
	domain.FilePDF:   ".pdf",
	domain.FileDOCX:  ".docx",
	domain.FileXLSX:  ".xlsx",
	domain.FilePPTX:  ".pptx",
	domain.FileTXT:   ".txt",
	domain.FileMD:    ".md",
	domain.FileJSON:  ".json",
	domain.FileCSV:   ".csv",
	domain.FileImage: "",
}

var contentTypes = map[domain.FileType]string{
	domain.FilePDF:  "application/pdf",
	domain.FileDOCX: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	domain.FileXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	domain.FilePPTX: "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	domain.FileTXT:  "text/plain",
	domain.FileMD:   "text/markdown",
	domain.FileJSON: "application/json",
	domain.FileCSV:  "text/csv",
}

// VersionKey is the object key for one version file, named by version id.
func VersionKey(documentID, versionID string, ft domain.FileType) string {
	return path.Join("documents", documentID, versionID+extensions[ft])
}

// ContentType maps a file type to its MIME type.
func ContentType(ft domain.FileType) string {
	if ct, ok := contentTypes[ft]; ok {
		return ct
	}
	return "application/octet-stream"
}

// DownloadName is the filename offered when a version is downloaded.
func DownloadName(title, version string, ft domain.FileType) string {
	base := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == '"' {
			return '_'
		}
		return r
	}, strings.TrimSpace(title))
	if base == "" {
		base = "document"
	}
	return fmt.Sprintf("%s-%s%s", base, version, extensions[ft])
}
