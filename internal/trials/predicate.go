package trials

import "strings"

// ProductMatch reports whether product occurs, case-folded, as a substring
// of the joined product string. This is the deliberately coarse matching
// policy competitor analysis uses both to claim a trial as the seed
// product's own and to exclude it from the competitor set: "acme-vax"
// matches "ACME-Vax 20µg (adjuvanted)".
func ProductMatch(joinedProducts, product string) bool {
	product = strings.TrimSpace(product)
	if product == "" {
		return false
	}
	return strings.Contains(strings.ToLower(joinedProducts), strings.ToLower(product))
}
