package constants

import (
	"sort"
	"strings"
)

// AllowedImageTypes maps the accepted upload content types to the file
// extensions that are valid for each of them. Uploads outside this set are
// rejected before anything is queued.
var AllowedImageTypes = map[string][]string{
	"image/jpeg": {".jpg", ".jpeg"},
	"image/png":  {".png"},
	"image/gif":  {".gif"},
	"image/bmp":  {".bmp"},
}

// MaxUploadSizeDefault is the default upload size cap in bytes (10 MiB).
const MaxUploadSizeDefault = 10 << 20

// DefaultLabName is used for manually entered measurements that did not come
// from a laboratory report.
const DefaultLabName = "self"

// NormalizeExt lowercases an extension and ensures it carries a leading dot.
func NormalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// ContentTypeAllowed reports whether the declared content type is accepted.
func ContentTypeAllowed(contentType string) bool {
	_, ok := AllowedImageTypes[contentType]
	return ok
}

// ExtensionAllowed reports whether ext is valid for the given content type.
func ExtensionAllowed(contentType, ext string) bool {
	for _, e := range AllowedImageTypes[contentType] {
		if e == NormalizeExt(ext) {
			return true
		}
	}
	return false
}

// AllowedExtensions returns the sorted union of every accepted extension,
// for error messages.
func AllowedExtensions() []string {
	var exts []string
	for _, list := range AllowedImageTypes {
		exts = append(exts, list...)
	}
	sort.Strings(exts)
	return exts
}
