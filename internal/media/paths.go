package media

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// extensions maps the accepted sniffed content types to file extensions.
var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// BuildPath returns a fresh blob key of the form
// "<kind>s/<ownerID>/<slot>/<unixnano>-<token><ext>".
func BuildPath(slot Slot, ownerID, contentType string, now time.Time) (string, error) {
	if err := ValidateOwnerID(ownerID); err != nil {
		return "", err
	}
	ext, ok := extensions[contentType]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%ss/%s/%s/%d-%s%s", slot.Kind, ownerID, slot.Name, now.UnixNano(), token, ext), nil
}

// ValidateOwnerID rejects ids that could escape their key prefix.
func ValidateOwnerID(id string) error {
	if id == "" || len(id) > 64 || strings.ContainsAny(id, "/\\ ") || strings.Contains(id, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidOwner, id)
	}
	return nil
}

// ValidatePath checks that p is a key this service could have produced.
func ValidatePath(p string) error {
	if p == "" || strings.HasPrefix(p, "/") || strings.Contains(p, "..") || strings.Contains(p, "\\") {
		return fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	parts := strings.Split(p, "/")
	if len(parts) != 4 {
		return fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	switch Kind(strings.TrimSuffix(parts[0], "s")) {
	case KindRestaurant, KindEvent, KindSection:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	for _, part := range parts[1:] {
		if part == "" {
			return fmt.Errorf("%w: %q", ErrInvalidPath, p)
		}
	}
	return nil
}
