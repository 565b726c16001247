package ingest

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/lab-report-tracker/constants"
	"github.com/joseph-ayodele/lab-report-tracker/internal/common"
)

// ValidateUpload runs the synchronous acceptance checks in a fixed order:
// filename, non-empty body, content type, extension consistency, size. The
// first failure is returned as a validation error with a stable code.
func ValidateUpload(filename, contentType string, size, maxSize int64) error {
	if strings.TrimSpace(filename) == "" {
		return common.Validation("FILENAME_EMPTY", "filename must not be empty")
	}

	if size == 0 {
		return common.Validation("FILE_EMPTY", "uploaded file is empty")
	}

	if !constants.ContentTypeAllowed(contentType) {
		return common.Validation("CONTENT_TYPE_INVALID",
			fmt.Sprintf("unsupported content type %q, allowed: %s",
				contentType, strings.Join(allowedContentTypes(), ", ")))
	}

	ext := filepath.Ext(filename)
	if !constants.ExtensionAllowed(contentType, ext) {
		return common.Validation("EXTENSION_MISMATCH",
			fmt.Sprintf("extension %q does not match content type %q, allowed: %s",
				ext, contentType, strings.Join(constants.AllowedExtensions(), ", ")))
	}

	if size > maxSize {
		return common.Validation("FILE_TOO_LARGE",
			fmt.Sprintf("file size %d exceeds limit of %d bytes", size, maxSize))
	}

	return nil
}

func allowedContentTypes() []string {
	types := make([]string, 0, len(constants.AllowedImageTypes))
	for ct := range constants.AllowedImageTypes {
		types = append(types, ct)
	}
	sort.Strings(types)
	return types
}
