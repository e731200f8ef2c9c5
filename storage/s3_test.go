package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	assert.Equal(t, "spiral-vase-v2", sanitize("Spiral Vase (v2)"))
	assert.Equal(t, "thangs", sanitize("Thangs"))
	assert.Equal(t, "printables-com", sanitize("Printables.com"))
	assert.Equal(t, "", sanitize("  ---  "))
}

func TestSanitizeCapsLength(t *testing.T) {
	long := sanitize("A very long title that keeps going and going and going and going and going")
	assert.LessOrEqual(t, len(long), 60)
	assert.NotEqual(t, "-", long[len(long)-1:])
}

func TestKeySuffix(t *testing.T) {
	assert.Equal(t, "spiral-vase_decor", keySuffix("Spiral Vase", "decor"))
	assert.Equal(t, "spiral-vase", keySuffix("Spiral Vase", ""))
	assert.Equal(t, "image", keySuffix("", ""))
}

func TestKeyBase(t *testing.T) {
	assert.Equal(t, "cgtrader/abc-123", keyBase("CGTrader", "abc-123"))
}

func TestExtensionFor(t *testing.T) {
	assert.Equal(t, ".jpg", extensionFor("image/jpeg", "https://x/img"))
	assert.Equal(t, ".png", extensionFor("image/png; charset=binary", "https://x/img"))
	assert.Equal(t, ".webp", extensionFor("image/webp", "https://x/img"))
	// unknown content type falls back to the URL path
	assert.Equal(t, ".jpeg", extensionFor("application/octet-stream", "https://x/photo.JPEG?w=640"))
	// nothing usable anywhere
	assert.Equal(t, ".jpg", extensionFor("", "https://x/img"))
}
