// Package taxonomy holds the fixed two-level category vocabulary used by
// both the AI classification step and the persistence layer. The table is
// loaded once at startup and immutable for the duration of a run.
package taxonomy

// Other is the reserved catch-all name for both levels. Any subcategory
// the classifier returns that is not in the vocabulary resolves to the
// Other/Other pair.
const Other = "Other"

var pairs = [][2]string{
	{"Action Figures", "Toys & Miniatures"},
	{"Anime", "Toys & Miniatures"},
	{"Board Game Part", "Toys & Miniatures"},
	{"Educational Toys", "Toys & Miniatures"},
	{"Fantasy Miniatures", "Toys & Miniatures"},
	{"Fidget Toys", "Toys & Miniatures"},
	{"Gaming Characters", "Toys & Miniatures"},
	{"Puzzle Games", "Toys & Miniatures"},
	{"RC Parts", "Toys & Miniatures"},
	{"Sci-Fi Miniatures", "Toys & Miniatures"},
	{"Superheroes", "Toys & Miniatures"},
	{"Tabletop Accessories", "Toys & Miniatures"},
	{"Terrain Scenary", "Toys & Miniatures"},
	{"Miniature Bases", "Toys & Miniatures"},

	{"Abstract Objects", "Art & Decorations"},
	{"Sculptures", "Art & Decorations"},
	{"Wall Art", "Art & Decorations"},
	{"Movie Props", "Art & Decorations"},
	{"Star Wars", "Art & Decorations"},
	{"Masks", "Art & Decorations"},
	{"Musical Instruments", "Art & Decorations"},

	{"Bathroom Items", "Home & Living"},
	{"Bins", "Home & Living"},
	{"Boxes & Containers", "Home & Living"},
	{"Drawers", "Home & Living"},
	{"Hooks & Mounts", "Home & Living"},
	{"Kitchen Tools", "Home & Living"},
	{"Lamps & Lighting", "Home & Living"},
	{"Lighting Fixtures", "Home & Living"},
	{"Pill Organizers", "Home & Living"},
	{"Plant Pots", "Home & Living"},
	{"Vases", "Home & Living"},
	{"Furniture Accessories", "Home & Living"},
	{"Sports", "Home & Living"},

	{"Calibration Tools", "Tools & Functional Parts"},
	{"Engineering Part", "Tools & Functional Parts"},
	{"Spinning Tools", "Tools & Functional Parts"},
	{"Tool Holders", "Tools & Functional Parts"},
	{"Tools", "Tools & Functional Parts"},

	{"Gadgets", "Tech & Devices"},
	{"Phone Accessories", "Tech & Devices"},
	{"Photography Gear", "Tech & Devices"},
	{"Exercise Equipment", "Tech & Devices"},
	{"Wellness Tools", "Tech & Devices"},
	{"Drones", "Tech & Devices"},

	{"Armor", "Fashion & Accessories"},
	{"Bags & Purse", "Fashion & Accessories"},
	{"Bracelets", "Fashion & Accessories"},
	{"Earrings", "Fashion & Accessories"},
	{"Helmets", "Fashion & Accessories"},
	{"Necklaces", "Fashion & Accessories"},
	{"Rings", "Fashion & Accessories"},
	{"Weapons", "Fashion & Accessories"},

	{"Christmas", "Seasonal & Holidays"},
	{"Easter", "Seasonal & Holidays"},
	{"Halloween", "Seasonal & Holidays"},
	{"New Year", "Seasonal & Holidays"},
	{"Valentine Day", "Seasonal & Holidays"},

	{"Classroom Aids", "Educational & Scientific"},
	{"Geography Models", "Educational & Scientific"},
	{"Math Models", "Educational & Scientific"},
	{"Medical Accessories", "Educational & Scientific"},
	{"Science Tools", "Educational & Scientific"},

	{"FDM Printers", "3D Printers & Mods"},
	{"Resin Printers", "3D Printers & Mods"},
	{"Printer Mods", "3D Printers & Mods"},
}

// Taxonomy maps subcategory names to their parent category.
type Taxonomy struct {
	bysub   map[string]string
	subcats []string
}

// Static returns the built-in vocabulary.
func Static() *Taxonomy {
	return FromPairs(pairs)
}

// FromPairs builds a Taxonomy from (subcategory, category) pairs, used
// both by Static and by the DB-backed loader in storage.
func FromPairs(p [][2]string) *Taxonomy {
	t := &Taxonomy{
		bysub:   make(map[string]string, len(p)),
		subcats: make([]string, 0, len(p)),
	}
	for _, pair := range p {
		if _, dup := t.bysub[pair[0]]; dup {
			continue
		}
		t.bysub[pair[0]] = pair[1]
		t.subcats = append(t.subcats, pair[0])
	}
	return t
}

// Subcategories returns the closed vocabulary offered to the classifier.
// The reserved Other entry is not offered.
func (t *Taxonomy) Subcategories() []string {
	out := make([]string, len(t.subcats))
	copy(out, t.subcats)
	return out
}

// Contains reports whether name is an exact (case-sensitive) member of
// the vocabulary.
func (t *Taxonomy) Contains(name string) bool {
	_, ok := t.bysub[name]
	return ok
}

// Resolve maps a classifier answer to its (category, subcategory) pair.
// An answer outside the vocabulary resolves to Other/Other.
func (t *Taxonomy) Resolve(subcategory string) (category, resolved string) {
	if cat, ok := t.bysub[subcategory]; ok {
		return cat, subcategory
	}
	return Other, Other
}
