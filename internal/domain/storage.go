package domain

import (
	"context"
	"errors"
)

// ErrStorageNotConfigured means the object store has no URL or credentials.
var ErrStorageNotConfigured = errors.New("object storage not configured")

const (
	BucketPhotos = "resume_photos"
	BucketCVs    = "resume_cvs"
)

type Bucket struct {
	Name             string   `json:"name"`
	Public           bool     `json:"public"`
	FileSizeLimit    int64    `json:"file_size_limit"`
	AllowedMIMETypes []string `json:"allowed_mime_types,omitempty"`
}

// DefaultBuckets are the buckets setup-storage guarantees.
var DefaultBuckets = []Bucket{
	{Name: BucketPhotos, Public: true, FileSizeLimit: 5 * 1024 * 1024, AllowedMIMETypes: []string{"image/jpeg", "image/png", "image/gif", "image/webp"}},
	{Name: BucketCVs, Public: true, FileSizeLimit: 10 * 1024 * 1024, AllowedMIMETypes: []string{"application/pdf"}},
}

// ObjectStore is the hosted storage service.
type ObjectStore interface {
	BucketExists(ctx context.Context, name string) (bool, error)
	CreateBucket(ctx context.Context, bucket Bucket) error
	Upload(ctx context.Context, bucket, object string, data []byte, contentType string) (string, error)
}

type BucketStatus struct {
	Name    string `json:"name"`
	Created bool   `json:"created"`
	Error   string `json:"error,omitempty"`
}

type UploadRequest struct {
	Filename string
	Data     []byte
	ClientIP string
}

type UploadResult struct {
	URL    string `json:"url"`
	Bucket string `json:"bucket"`
	Object string `json:"object"`
	Size   int    `json:"size"`
}

type StorageUsecase interface {
	SetupBuckets(ctx context.Context) ([]BucketStatus, error)
	UploadPhoto(ctx context.Context, req UploadRequest) (*UploadResult, error)
	UploadCV(ctx context.Context, req UploadRequest) (*UploadResult, error)
}
