package services

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"printscout/models"
)

var priceToken = regexp.MustCompile(`\$?([\d,.]+)`)

// ParsePrice converts a free-form marketplace price string into its
// normalized numeric value. The function is total: any input that cannot
// be parsed degrades to the NULL value instead of failing.
//
//	""            -> NULL
//	"Free"        -> 0
//	"Premium"     -> -1 (subscription-gated, no fixed price)
//	"$12.50"      -> 12.5
//	"$20", "1,200" -> 20, 1200 (integer-typed)
func ParsePrice(price string) models.PriceValue {
	price = strings.ToLower(strings.TrimSpace(price))
	if price == "" {
		return models.PriceValue{}
	}

	if price == "free" {
		return models.PriceValue{Valid: true, Amount: 0, IsInt: true}
	}
	if price == "premium" {
		return models.PriceValue{Valid: true, Amount: -1, IsInt: true}
	}

	m := priceToken.FindStringSubmatch(price)
	if m == nil {
		return models.PriceValue{}
	}

	n, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return models.PriceValue{}
	}

	return models.PriceValue{Valid: true, Amount: n, IsInt: n == math.Trunc(n)}
}
