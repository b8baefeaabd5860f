package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"testing"

	"zaanjob-backend/internal/domain"
	"zaanjob-backend/internal/usecase"
	"zaanjob-backend/pkg/apperror"
	"zaanjob-backend/pkg/security"
	"zaanjob-backend/pkg/security/antivirus"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n%%EOF\n")

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestUploadCV(t *testing.T) {
	t.Run("Should store a valid PDF under the caller's prefix", func(t *testing.T) {
		store, gate := new(MockObjectStore), new(MockGate)
		uc := usecase.NewStorageUsecase(store, gate, nil, nopSecLog(), testLog)

		gate.On("AllowUpload", mock.Anything, "10.0.0.1", "user-1").Return(true, 0, nil)
		store.On("Upload", mock.Anything, domain.BucketCVs, mock.MatchedBy(func(object string) bool {
			return len(object) > len("user-1-") && object[:7] == "user-1-" && object[len(object)-4:] == ".pdf"
		}), pdfBytes, "application/pdf").Return("https://x.supabase.co/storage/v1/object/public/resume_cvs/user-1-1.pdf", nil)

		res, err := uc.UploadCV(asUser("user-1"), domain.UploadRequest{Filename: "cv.PDF", Data: pdfBytes, ClientIP: "10.0.0.1"})
		require.NoError(t, err)
		assert.Equal(t, domain.BucketCVs, res.Bucket)
		assert.Equal(t, len(pdfBytes), res.Size)
		assert.Contains(t, res.URL, "/resume_cvs/")
		store.AssertExpectations(t)
	})

	t.Run("Should reject content that does not match the extension", func(t *testing.T) {
		store, gate := new(MockObjectStore), new(MockGate)
		uc := usecase.NewStorageUsecase(store, gate, nil, nopSecLog(), testLog)
		gate.On("AllowUpload", mock.Anything, mock.Anything, mock.Anything).Return(true, 0, nil)

		_, err := uc.UploadCV(asUser("user-1"), domain.UploadRequest{Filename: "cv.pdf", Data: []byte("MZ\x90\x00 not a pdf")})
		ae := appErr(t, err)
		assert.Equal(t, http.StatusBadRequest, ae.Code)
		assert.Equal(t, security.AllowedExtensions(security.UploadCV), ae.Details)
		store.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Should enforce the bucket size limit", func(t *testing.T) {
		store, gate := new(MockObjectStore), new(MockGate)
		uc := usecase.NewStorageUsecase(store, gate, nil, nopSecLog(), testLog)
		gate.On("AllowUpload", mock.Anything, mock.Anything, mock.Anything).Return(true, 0, nil)

		big := append([]byte("%PDF-1.4\n"), make([]byte, 10*1024*1024)...)
		_, err := uc.UploadCV(asUser("user-1"), domain.UploadRequest{Filename: "cv.pdf", Data: big})
		assert.Equal(t, "File exceeds the 10 MB limit", appErr(t, err).Message)
	})

	t.Run("Should rate limit", func(t *testing.T) {
		store, gate := new(MockObjectStore), new(MockGate)
		uc := usecase.NewStorageUsecase(store, gate, nil, nopSecLog(), testLog)
		gate.On("AllowUpload", mock.Anything, mock.Anything, mock.Anything).Return(false, 42, nil)

		_, err := uc.UploadCV(asUser("user-1"), domain.UploadRequest{Filename: "cv.pdf", Data: pdfBytes})
		ae := appErr(t, err)
		assert.Equal(t, http.StatusTooManyRequests, ae.Code)
		assert.Equal(t, map[string]int{"retry_after": 42}, ae.Details)
	})

	t.Run("Should require a session", func(t *testing.T) {
		store, gate := new(MockObjectStore), new(MockGate)
		uc := usecase.NewStorageUsecase(store, gate, nil, nopSecLog(), testLog)

		_, err := uc.UploadCV(context.Background(), domain.UploadRequest{Filename: "cv.pdf", Data: pdfBytes})
		assert.Equal(t, http.StatusUnauthorized, appErr(t, err).Code)
		gate.AssertNotCalled(t, "AllowUpload", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Should report unconfigured storage", func(t *testing.T) {
		store, gate := new(MockObjectStore), new(MockGate)
		uc := usecase.NewStorageUsecase(store, gate, nil, nopSecLog(), testLog)
		gate.On("AllowUpload", mock.Anything, mock.Anything, mock.Anything).Return(true, 0, nil)
		store.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return("", domain.ErrStorageNotConfigured)

		_, err := uc.UploadCV(asUser("user-1"), domain.UploadRequest{Filename: "cv.pdf", Data: pdfBytes})
		assert.Equal(t, apperror.KindConfig, appErr(t, err).Kind)
	})
}

func TestUploadPhoto(t *testing.T) {
	t.Run("Should downscale and store as JPEG", func(t *testing.T) {
		store, gate := new(MockObjectStore), new(MockGate)
		uc := usecase.NewStorageUsecase(store, gate, nil, nopSecLog(), testLog)
		gate.On("AllowUpload", mock.Anything, mock.Anything, mock.Anything).Return(true, 0, nil)

		var stored []byte
		store.On("Upload", mock.Anything, domain.BucketPhotos, mock.AnythingOfType("string"), mock.Anything, "image/jpeg").
			Run(func(args mock.Arguments) { stored = args.Get(3).([]byte) }).
			Return("https://cdn.example.com/p.jpg", nil)

		res, err := uc.UploadPhoto(asUser("user-1"), domain.UploadRequest{Filename: "me.png", Data: pngBytes(t, 2400, 1200)})
		require.NoError(t, err)
		assert.Regexp(t, `^user-1-\d+\.jpg$`, res.Object)

		cfg, err := jpeg.DecodeConfig(bytes.NewReader(stored))
		require.NoError(t, err)
		assert.Equal(t, 1200, cfg.Width)
		assert.Equal(t, 600, cfg.Height)
	})

	t.Run("Should reject a PDF sent as a photo", func(t *testing.T) {
		store, gate := new(MockObjectStore), new(MockGate)
		uc := usecase.NewStorageUsecase(store, gate, nil, nopSecLog(), testLog)
		gate.On("AllowUpload", mock.Anything, mock.Anything, mock.Anything).Return(true, 0, nil)

		_, err := uc.UploadPhoto(asUser("user-1"), domain.UploadRequest{Filename: "me.pdf", Data: pdfBytes})
		assert.Equal(t, apperror.KindValidation, appErr(t, err).Kind)
	})
}

func TestSetupBuckets(t *testing.T) {
	t.Run("Should create only missing buckets", func(t *testing.T) {
		store := new(MockObjectStore)
		uc := usecase.NewStorageUsecase(store, new(MockGate), nil, nopSecLog(), testLog)

		store.On("BucketExists", mock.Anything, domain.BucketPhotos).Return(true, nil)
		store.On("BucketExists", mock.Anything, domain.BucketCVs).Return(false, nil)
		store.On("CreateBucket", mock.Anything, mock.MatchedBy(func(b domain.Bucket) bool {
			return b.Name == domain.BucketCVs && b.Public
		})).Return(nil)

		st, err := uc.SetupBuckets(context.Background())
		require.NoError(t, err)
		require.Len(t, st, 2)
		assert.False(t, st[0].Created)
		assert.True(t, st[1].Created)
		store.AssertNumberOfCalls(t, "CreateBucket", 1)
	})

	t.Run("Should keep going when one bucket fails", func(t *testing.T) {
		store := new(MockObjectStore)
		uc := usecase.NewStorageUsecase(store, new(MockGate), nil, nopSecLog(), testLog)

		store.On("BucketExists", mock.Anything, domain.BucketPhotos).Return(false, errors.New("403 forbidden"))
		store.On("BucketExists", mock.Anything, domain.BucketCVs).Return(true, nil)

		st, err := uc.SetupBuckets(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "403 forbidden", st[0].Error)
		assert.Empty(t, st[1].Error)
	})

	t.Run("Should fail fast when unconfigured", func(t *testing.T) {
		store := new(MockObjectStore)
		uc := usecase.NewStorageUsecase(store, new(MockGate), nil, nopSecLog(), testLog)
		store.On("BucketExists", mock.Anything, mock.Anything).Return(false, domain.ErrStorageNotConfigured)

		_, err := uc.SetupBuckets(context.Background())
		assert.Equal(t, apperror.KindConfig, appErr(t, err).Kind)
	})
}

func TestUploadScan(t *testing.T) {
	t.Run("Should reject infected files without storing them", func(t *testing.T) {
		store, gate, scanner := new(MockObjectStore), new(MockGate), new(MockScanner)
		uc := usecase.NewStorageUsecase(store, gate, scanner, nopSecLog(), testLog)
		gate.On("AllowUpload", mock.Anything, mock.Anything, mock.Anything).Return(true, 0, nil)
		scanner.On("Scan", mock.Anything, "cv.pdf", pdfBytes).
			Return(antivirus.ScanResult{Infected: true, ThreatName: "Eicar-Test-Signature", ScannerName: "mock"})

		_, err := uc.UploadCV(asUser("user-1"), domain.UploadRequest{Filename: "cv.pdf", Data: pdfBytes})

		e := appErr(t, err)
		assert.Equal(t, apperror.KindValidation, e.Kind)
		assert.Contains(t, e.Message, "malware")
		store.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Should fail closed when the scanner errors", func(t *testing.T) {
		store, gate, scanner := new(MockObjectStore), new(MockGate), new(MockScanner)
		uc := usecase.NewStorageUsecase(store, gate, scanner, nopSecLog(), testLog)
		gate.On("AllowUpload", mock.Anything, mock.Anything, mock.Anything).Return(true, 0, nil)
		scanner.On("Scan", mock.Anything, mock.Anything, mock.Anything).
			Return(antivirus.ScanResult{Infected: true, Error: errors.New("connect to clamd: refused")})

		_, err := uc.UploadCV(asUser("user-1"), domain.UploadRequest{Filename: "cv.pdf", Data: pdfBytes})

		e := appErr(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, e.Code)
		store.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
