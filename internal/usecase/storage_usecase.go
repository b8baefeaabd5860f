package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"zaanjob-backend/internal/domain"
	"zaanjob-backend/internal/storage"
	"zaanjob-backend/pkg/apperror"
	"zaanjob-backend/pkg/security"
	"zaanjob-backend/pkg/security/antivirus"
)

const (
	photoMaxDimension = 1200
	photoQuality      = 80
)

// UploadGate decides whether a caller may upload right now.
type UploadGate interface {
	AllowUpload(ctx context.Context, ip, userID string) (bool, int, error)
}

type storageUsecase struct {
	store   domain.ObjectStore
	gate    UploadGate
	scanner antivirus.Scanner
	buckets map[string]domain.Bucket
	secLog  *security.SecurityLogger
	log     *slog.Logger
	now     func() time.Time
}

// NewStorageUsecase wires uploads to store. A nil scanner skips malware scanning.
func NewStorageUsecase(store domain.ObjectStore, gate UploadGate, scanner antivirus.Scanner, secLog *security.SecurityLogger, log *slog.Logger) domain.StorageUsecase {
	if scanner == nil {
		scanner = antivirus.NewNoOpScanner()
	}
	buckets := make(map[string]domain.Bucket, len(domain.DefaultBuckets))
	for _, b := range domain.DefaultBuckets {
		buckets[b.Name] = b
	}
	return &storageUsecase{
		store:   store,
		gate:    gate,
		scanner: scanner,
		buckets: buckets,
		secLog:  secLog,
		log:     log,
		now:     time.Now,
	}
}

// SetupBuckets creates any missing default bucket. A bucket that fails is
// reported in its status and does not stop the others.
func (u *storageUsecase) SetupBuckets(ctx context.Context) ([]domain.BucketStatus, error) {
	out := make([]domain.BucketStatus, 0, len(domain.DefaultBuckets))
	for _, b := range domain.DefaultBuckets {
		st := domain.BucketStatus{Name: b.Name}
		exists, err := u.store.BucketExists(ctx, b.Name)
		if errors.Is(err, domain.ErrStorageNotConfigured) {
			return nil, apperror.Config("Storage is not configured. Set SUPABASE_URL and keys or S3 credentials.")
		}
		if err != nil {
			st.Error = err.Error()
			u.log.Warn("bucket lookup failed", "bucket", b.Name, "error", err)
			out = append(out, st)
			continue
		}
		if !exists {
			if err := u.store.CreateBucket(ctx, b); err != nil {
				st.Error = err.Error()
				u.log.Warn("bucket creation failed", "bucket", b.Name, "error", err)
			} else {
				st.Created = true
				u.log.Info("bucket created", "bucket", b.Name)
			}
		}
		out = append(out, st)
	}
	return out, nil
}

func (u *storageUsecase) UploadPhoto(ctx context.Context, req domain.UploadRequest) (*domain.UploadResult, error) {
	return u.upload(ctx, security.UploadPhoto, domain.BucketPhotos, req)
}

func (u *storageUsecase) UploadCV(ctx context.Context, req domain.UploadRequest) (*domain.UploadResult, error) {
	return u.upload(ctx, security.UploadCV, domain.BucketCVs, req)
}

func (u *storageUsecase) upload(ctx context.Context, kind security.UploadKind, bucketName string, req domain.UploadRequest) (*domain.UploadResult, error) {
	userID := domain.UserIDFrom(ctx)
	if userID == "" {
		return nil, apperror.Unauthorized("You must be logged in to upload files")
	}

	allowed, retryAfter, err := u.gate.AllowUpload(ctx, req.ClientIP, userID)
	if err != nil && !errors.Is(err, security.ErrLimiterUnavailable) {
		u.log.Error("upload limiter failed", "error", err)
	}
	if !allowed {
		u.secLog.LogUploadRejected(ctx, userID, req.ClientIP, "rate_limited")
		return nil, apperror.TooManyRequests("Too many uploads. Please try again later.").
			WithDetails(map[string]int{"retry_after": retryAfter})
	}

	bucket := u.buckets[bucketName]
	if bucket.FileSizeLimit > 0 && int64(len(req.Data)) > bucket.FileSizeLimit {
		u.secLog.LogUploadRejected(ctx, userID, req.ClientIP, "too_large")
		return nil, apperror.Validation(
			fmt.Sprintf("File exceeds the %d MB limit", bucket.FileSizeLimit/(1024*1024)), nil)
	}

	check := security.ValidateUpload(kind, req.Filename, req.Data, http.DetectContentType(req.Data))
	if !check.Valid {
		u.secLog.LogUploadRejected(ctx, userID, req.ClientIP, check.Error)
		return nil, apperror.Validation("Invalid file: "+check.Error, security.AllowedExtensions(kind))
	}

	scan := u.scanner.Scan(ctx, req.Filename, req.Data)
	if scan.Error != nil {
		u.log.Error("antivirus scan failed", "scanner", scan.ScannerName, "error", scan.Error)
		return nil, apperror.New(http.StatusServiceUnavailable, apperror.KindInternal, "File could not be scanned. Please try again later.", scan.Error)
	}
	if scan.Infected {
		u.secLog.LogMalwareDetected(ctx, userID, req.ClientIP, req.Filename, scan.ThreatName)
		return nil, apperror.Validation("Invalid file: malware detected", nil)
	}

	data, contentType, ext := req.Data, check.DetectedMIME, check.Extension
	if kind == security.UploadPhoto {
		compressed, err := storage.CompressImage(req.Data, photoMaxDimension, photoQuality)
		if err != nil {
			u.log.Warn("photo compression failed, storing original", "error", err)
		} else {
			data, contentType, ext = compressed, "image/jpeg", ".jpg"
		}
	}

	object := fmt.Sprintf("%s-%d%s", userID, u.now().UnixMilli(), ext)
	url, err := u.store.Upload(ctx, bucketName, object, data, contentType)
	if err != nil {
		if errors.Is(err, domain.ErrStorageNotConfigured) {
			return nil, apperror.Config("Storage is not configured")
		}
		return nil, apperror.Internal(fmt.Errorf("upload to %s: %w", bucketName, err))
	}

	u.log.Info("file uploaded", "bucket", bucketName, "object", object, "size", len(data))
	return &domain.UploadResult{URL: url, Bucket: bucketName, Object: object, Size: len(data)}, nil
}
