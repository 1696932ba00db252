// Package policy holds the eligibility rules. Age cannot be checked at
// admission (it arrives encrypted), so the minimum-age table is consulted only
// when a disclosure is reconciled.
package policy

import "sealedreg/internal/registry/models"

// minimumAge is total over the category enum.
var minimumAge = map[models.Category]int{
	models.CategoryIndividual: 16,
	models.CategoryTeam:       14,
	models.CategoryEndurance:  18,
	models.CategoryCombat:     16,
	models.CategoryOther:      14,
}

// MinimumAge returns the age threshold for a category. Unknown categories are
// rejected upstream by models.ParseCategory, so every stored record hits the
// table.
func MinimumAge(c models.Category) int {
	return minimumAge[c]
}
