package uploads

import (
	"path"
	"strings"
	"unicode"

	"github.com/gabriel-vasile/mimetype"
)

// imageTypes are the detected content types accepted for upload. SVG is
// excluded since it can carry script.
var imageTypes = []string{"image/png", "image/jpeg", "image/webp", "image/gif", "image/avif"}

// detectImage sniffs the content type from the payload itself; the client's
// Content-Type header is ignored.
func detectImage(data []byte) (string, bool) {
	detected := mimetype.Detect(data)
	for _, allowed := range imageTypes {
		if detected.Is(allowed) {
			return allowed, true
		}
	}
	return detected.String(), false
}

func sanitizeFileName(name string) string {
	if name == "" {
		return ""
	}
	clean := path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if clean == "." || clean == "/" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(clean))
	for _, r := range clean {
		switch {
		case unicode.IsControl(r) || r == '?' || r == '#' || r == '%':
			continue
		case unicode.IsSpace(r):
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-_.")
}
