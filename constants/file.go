package constants

import "strings"

// Format is the acquisition modality resolved for an input document.
type Format string

const (
	PDF   Format = "PDF"
	IMAGE Format = "IMAGE"
	CSV   Format = "CSV"
	XLSX  Format = "XLSX"
	TXT   Format = "TXT"
)

// AllowedExtensions holds the file extensions the engine accepts.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"tif":  {},
	"tiff": {},
	"csv":  {},
	"xlsx": {},
	"txt":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat resolves a normalized extension to a Format, or "" if unsupported.
func MapExtToFormat(ext string) Format {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "jpg", "jpeg", "png", "tif", "tiff":
		return IMAGE
	case "csv":
		return CSV
	case "xlsx":
		return XLSX
	case "txt":
		return TXT
	default:
		return ""
	}
}
