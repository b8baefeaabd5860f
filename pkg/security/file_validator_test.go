package security

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}
	pdfHeader  = []byte("%PDF-1.7\n%\xE2\xE3\xCF\xD3\n")
)

func TestValidateUpload(t *testing.T) {
	tests := []struct {
		name     string
		kind     UploadKind
		filename string
		data     []byte
		valid    bool
		errMsg   string
	}{
		{"jpeg photo", UploadPhoto, "me.JPG", jpegHeader, true, ""},
		{"pdf cv", UploadCV, "cv.pdf", pdfHeader, true, ""},
		{"no extension", UploadPhoto, "photo", jpegHeader, false, "file has no extension"},
		{"pdf as photo", UploadPhoto, "cv.pdf", pdfHeader, false, "file extension not allowed: .pdf"},
		{"jpeg as cv", UploadCV, "me.jpg", jpegHeader, false, "file extension not allowed: .jpg"},
		{"renamed executable", UploadCV, "cv.pdf", []byte("MZ\x90\x00\x03\x00"), false, "file content does not match extension"},
		{"too short", UploadPhoto, "me.jpg", []byte{0xFF}, false, "file content does not match extension"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateUpload(tt.kind, tt.filename, tt.data, http.DetectContentType(tt.data))
			assert.Equal(t, tt.valid, res.Valid)
			assert.Equal(t, tt.errMsg, res.Error)
		})
	}
}

func TestValidateUploadRejectsMIMEMismatch(t *testing.T) {
	res := ValidateUpload(UploadPhoto, "me.jpg", jpegHeader, "application/octet-stream")
	assert.False(t, res.Valid)
	assert.Equal(t, "MIME type not allowed: application/octet-stream", res.Error)
}

func TestAllowedExtensions(t *testing.T) {
	assert.Equal(t, []string{".gif", ".jpeg", ".jpg", ".png", ".webp"}, AllowedExtensions(UploadPhoto))
	assert.Equal(t, []string{".pdf"}, AllowedExtensions(UploadCV))
	assert.Empty(t, AllowedExtensions("video"))
}
