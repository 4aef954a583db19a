package constants

import "strings"

// Formats recognised by file import.
const (
	IMAGE = "IMAGE"
	TEXT  = "TEXT"
)

// AllowedExtensions holds the default allowed file extensions for capture import.
var AllowedExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"heic": {},
	"heif": {},
	"txt":  {},
	"md":   {},
}

// ScreenshotExtensions is the subset the screenshot watcher reacts to.
var ScreenshotExtensions = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"heic": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat maps a file extension to IMAGE or TEXT, or "" when unsupported.
func MapExtToFormat(ext string) string {
	switch NormalizeExt(ext) {
	case "jpg", "jpeg", "png", "heic", "heif", "gif", "bmp", "tif", "tiff":
		return IMAGE
	case "txt", "md":
		return TEXT
	}
	return ""
}
