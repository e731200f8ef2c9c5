package thangs

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"printscout/scraper"
)

func TestImageCount(t *testing.T) {
	assert.Equal(t, 5, imageCount("Image 1 of 5"))
	assert.Equal(t, 12, imageCount("  Image 3 of 12  "))
	assert.Equal(t, 1, imageCount(""))
	assert.Equal(t, 1, imageCount("no counter here"))
}

func TestVariantPairFromSmall(t *testing.T) {
	pair := variantPair("https://thangs.com/img.jpg?w=256&q=75")
	assert.Equal(t, "https://thangs.com/img.jpg?q=85&w=3840", pair.Full)
	assert.Equal(t, "https://thangs.com/img.jpg?w=256&q=75", pair.Thumb)
}

func TestVariantPairFromBig(t *testing.T) {
	pair := variantPair("https://thangs.com/img.jpg?w=3840&q=85")
	assert.Equal(t, "https://thangs.com/img.jpg?w=3840&q=85", pair.Full)
	assert.Equal(t, "https://thangs.com/img.jpg?q=75&w=256", pair.Thumb)
}

func TestThumbnailURL(t *testing.T) {
	assert.Equal(t,
		"https://thangs.com/img.jpg?q=75&w=640",
		thumbnailURL("https://thangs.com/img.jpg?w=3840&q=85"))
}

func TestFeedURL(t *testing.T) {
	assert.Equal(t, "https://thangs.com", feedURL(scraper.Scope{}))
	assert.Equal(t,
		"https://thangs.com/category/Toys%20&%20Miniatures/Anime",
		feedURL(scraper.Scope{Category: "Toys & Miniatures", Subcategory: "Anime"}))
}

func TestResolvePrice(t *testing.T) {
	assert.Equal(t, "Premium", resolvePrice(detailData{Member: true}))
	assert.Equal(t, "5.99", resolvePrice(detailData{Paid: true, PriceText: "5.99 USD"}))
	assert.Equal(t, "Free", resolvePrice(detailData{}))
}
