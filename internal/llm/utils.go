package llm

import (
	"encoding/base64"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/mediscan/constants"
)

// ReadAsDataURL base64-encodes a file into a data: URL.
func ReadAsDataURL(path, mimeType string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if mimeType == "" {
		mimeType = constants.MimeForExt(filepath.Ext(path))
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(b), nil
}
