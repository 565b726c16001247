package extraction

import (
	"encoding/base64"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// readAsDataURL loads a file and encodes it as a base64 data URL for the
// vision request.
func readAsDataURL(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(path))
	mt := mime.TypeByExtension(ext)
	if mt == "" {
		switch strings.TrimPrefix(ext, ".") {
		case "jpg", "jpeg":
			mt = "image/jpeg"
		case "png":
			mt = "image/png"
		default:
			mt = "application/octet-stream"
		}
	}
	data := base64.StdEncoding.EncodeToString(b)
	return "data:" + mt + ";base64," + data, nil
}
