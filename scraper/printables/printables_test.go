package printables

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"printscout/scraper"
)

func TestVariantPairFromCover(t *testing.T) {
	pair := variantPair("https://media.printables.com/media/prints/1/images/cover/320x240/card.jpg")
	assert.Equal(t, "https://media.printables.com/media/prints/1/images/inside/1600x1200/card.jpg", pair.Full)
	assert.Equal(t, "https://media.printables.com/media/prints/1/images/cover/320x240/card.jpg", pair.Thumb)
}

func TestVariantPairFromInside(t *testing.T) {
	pair := variantPair("https://media.printables.com/media/prints/1/images/inside/1600x1200/card.jpg")
	assert.Equal(t, "https://media.printables.com/media/prints/1/images/inside/1600x1200/card.jpg", pair.Full)
	assert.Equal(t, "https://media.printables.com/media/prints/1/images/cover/320x240/card.jpg", pair.Thumb)
}

func TestVariantPairUnrecognizedPath(t *testing.T) {
	// an src with neither resolution segment passes through unchanged
	pair := variantPair("https://media.printables.com/media/prints/1/images/card.jpg")
	assert.Equal(t, pair.Full, pair.Thumb)
}

func TestFeedURL(t *testing.T) {
	assert.Equal(t, "https://www.printables.com/model", feedURL(scraper.Scope{}))
	assert.Equal(t, "https://www.printables.com/model?category=98",
		feedURL(scraper.Scope{Category: "98"}))
}
