package media

import (
	"fmt"
	"io"
	"net/http"
)

// SniffContentType reads the leading bytes of r, detects the content type
// and rewinds r. Only image types with a known extension are accepted.
func SniffContentType(r io.ReadSeeker) (string, error) {
	buffer := make([]byte, 512)
	n, err := r.Read(buffer)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read magic bytes: %w", err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}

	detected := http.DetectContentType(buffer[:n])
	if _, ok := extensions[detected]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, detected)
	}
	return detected, nil
}
