package constants

import "strings"

// FileFormat is the declared document kind used to pick a text decoder.
type FileFormat string

const (
	PDF     FileFormat = "PDF"
	IMAGE   FileFormat = "IMAGE"
	DOCX    FileFormat = "DOCX"
	TEXT    FileFormat = "TEXT"
	UNKNOWN FileFormat = ""
)

// MaxUploadBytes is the default upload limit (16 MiB).
const MaxUploadBytes int64 = 16 << 20

// AllowedExtensions holds the extensions accepted for prescription uploads.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"docx": {},
	"txt":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// IsAllowedExt reports whether ext (with or without the dot) is accepted.
func IsAllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}

// MapExtToFormat maps a file extension to its FileFormat.
func MapExtToFormat(ext string) FileFormat {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "png", "jpg", "jpeg":
		return IMAGE
	case "docx":
		return DOCX
	case "txt":
		return TEXT
	default:
		return UNKNOWN
	}
}

// MimeForExt returns the content type sent to vision models.
func MimeForExt(ext string) string {
	switch NormalizeExt(ext) {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
