package constants

import "strings"

// File formats recognized by the OCR stage.
const (
	PDF     = "PDF"
	IMAGE   = "IMAGE"
	UNKNOWN = "UNKNOWN"
)

// AllowedExtensions holds the default allowed file extensions for document ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"tif":  {},
	"tiff": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat maps a file extension to a coarse format label.
func MapExtToFormat(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "jpg", "jpeg", "png", "tif", "tiff":
		return IMAGE
	default:
		return UNKNOWN
	}
}
