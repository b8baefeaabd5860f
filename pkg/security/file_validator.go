package security

import (
	"bytes"
	"path/filepath"
	"sort"
	"strings"
)

// UploadKind selects the whitelist a file is checked against.
type UploadKind string

const (
	UploadPhoto UploadKind = "photo"
	UploadCV    UploadKind = "cv"
)

// FileValidationResult contains the result of file validation
type FileValidationResult struct {
	Valid        bool   // Whether the file passed all validation checks
	Extension    string // Detected file extension
	DetectedMIME string // Detected MIME type
	Error        string // Error message if validation failed
}

// Magic byte signatures, keyed by lowercase extension.
var magicBytes = map[string][][]byte{
	".jpg":  {{0xFF, 0xD8, 0xFF}},
	".jpeg": {{0xFF, 0xD8, 0xFF}},
	".png":  {{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}},
	".gif":  {{0x47, 0x49, 0x46, 0x38, 0x37, 0x61}, {0x47, 0x49, 0x46, 0x38, 0x39, 0x61}}, // GIF87a & GIF89a
	".webp": {{0x52, 0x49, 0x46, 0x46}},                                                   // RIFF header
	".pdf":  {{0x25, 0x50, 0x44, 0x46}},                                                   // %PDF
}

var allowedByKind = map[UploadKind]map[string]string{
	UploadPhoto: {
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".png":  "image/png",
		".gif":  "image/gif",
		".webp": "image/webp",
	},
	UploadCV: {
		".pdf": "application/pdf",
	},
}

// ValidateUpload runs three checks: extension whitelist for kind, magic
// bytes matching the extension, and the sniffed MIME type matching too.
// application/octet-stream is never accepted.
func ValidateUpload(kind UploadKind, filename string, data []byte, detectedMIME string) FileValidationResult {
	result := FileValidationResult{DetectedMIME: detectedMIME}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		result.Error = "file has no extension"
		return result
	}
	result.Extension = ext

	allowed, ok := allowedByKind[kind]
	if !ok {
		result.Error = "unknown upload kind: " + string(kind)
		return result
	}
	wantMIME, ok := allowed[ext]
	if !ok {
		result.Error = "file extension not allowed: " + ext
		return result
	}

	if !validateMagicBytes(ext, data) {
		result.Error = "file content does not match extension"
		return result
	}

	if detectedMIME != wantMIME {
		result.Error = "MIME type not allowed: " + detectedMIME
		return result
	}

	result.Valid = true
	return result
}

func validateMagicBytes(ext string, data []byte) bool {
	if len(data) < 4 {
		return false
	}
	for _, sig := range magicBytes[ext] {
		if bytes.HasPrefix(data, sig) {
			return true
		}
	}
	return false
}

// AllowedExtensions lists the extensions accepted for kind.
func AllowedExtensions(kind UploadKind) []string {
	exts := make([]string, 0, len(allowedByKind[kind]))
	for ext := range allowedByKind[kind] {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
