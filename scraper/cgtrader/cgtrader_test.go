package cgtrader

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"printscout/scraper"
)

func TestCleanDescription(t *testing.T) {
	assert.Equal(t, "A detailed aircraft model.",
		cleanDescription("Description\n A detailed aircraft model. "))
	assert.Equal(t, "No label here.", cleanDescription("No label here."))
	assert.Equal(t, "", cleanDescription("  Description  "))
}

func TestPageURL(t *testing.T) {
	assert.Equal(t,
		"https://www.cgtrader.com/3d-models?page=1",
		pageURL(scraper.Scope{}, 1))
	assert.Equal(t,
		"https://www.cgtrader.com/3d-models/aircraft?page=7",
		pageURL(scraper.Scope{Category: "aircraft"}, 7))
	assert.Equal(t,
		"https://www.cgtrader.com/3d-models/aircraft/commercial?page=2",
		pageURL(scraper.Scope{Category: "aircraft", Subcategory: "commercial"}, 2))
}
