package constants

import "strings"

// Source formats recorded on triage jobs.
const (
	PDF   = "PDF"
	TXT   = "TXT"
	IMAGE = "IMAGE"
)

// AllowedExtensions holds the file extensions accepted for FNOL ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"txt":  {},
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"tif":  {},
	"tiff": {},
	"heic": {},
	"heif": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// MapExtToFormat returns the source format for an extension, or "" if unsupported.
func MapExtToFormat(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "txt":
		return TXT
	case "png", "jpg", "jpeg", "tif", "tiff", "heic", "heif":
		return IMAGE
	default:
		return ""
	}
}

// AllowedExt reports whether ext is accepted for ingestion.
func AllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}
