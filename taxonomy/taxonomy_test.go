package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveKnownSubcategory(t *testing.T) {
	tax := Static()

	cat, sub := tax.Resolve("Fantasy Miniatures")
	assert.Equal(t, "Toys & Miniatures", cat)
	assert.Equal(t, "Fantasy Miniatures", sub)

	cat, sub = tax.Resolve("Vases")
	assert.Equal(t, "Home & Living", cat)
	assert.Equal(t, "Vases", sub)
}

func TestResolveUnknownFallsBackToOther(t *testing.T) {
	tax := Static()

	for _, answer := range []string{
		"Spaceships",          // invented by the model
		"fantasy miniatures",  // wrong case
		" Fantasy Miniatures", // stray whitespace
		"",
	} {
		cat, sub := tax.Resolve(answer)
		assert.Equal(t, Other, cat, "answer %q", answer)
		assert.Equal(t, Other, sub, "answer %q", answer)
	}
}

func TestSubcategoriesIsACopy(t *testing.T) {
	tax := Static()

	subs := tax.Subcategories()
	subs[0] = "mutated"

	assert.NotContains(t, tax.Subcategories(), "mutated")
	assert.NotContains(t, tax.Subcategories(), Other)
}

func TestContainsIsCaseSensitive(t *testing.T) {
	tax := Static()

	assert.True(t, tax.Contains("Drones"))
	assert.False(t, tax.Contains("drones"))
	assert.False(t, tax.Contains(Other))
}
