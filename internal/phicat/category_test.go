package phicat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/DocHatty/vulpes-celare/internal/phicat"
)

func TestValid(t *testing.T) {
	assert.True(t, phicat.Valid(phicat.Name))
	assert.True(t, phicat.Valid(phicat.SSN))
	assert.True(t, phicat.Valid(phicat.Other))
	assert.False(t, phicat.Valid(phicat.Category("NOT_A_CATEGORY")))
}

func TestAllContainsEighteenPlusCategories(t *testing.T) {
	// spec.md §6 enumerates 21 stable text-filter categories.
	assert.Len(t, phicat.All, 21)
	seen := make(map[phicat.Category]bool)
	for _, c := range phicat.All {
		assert.False(t, seen[c], "duplicate category %s", c)
		seen[c] = true
	}
}

func TestIsStructured(t *testing.T) {
	structured := []phicat.Category{
		phicat.SSN, phicat.MRN, phicat.NPI, phicat.DEA,
		phicat.CreditCard, phicat.IP, phicat.URL, phicat.VIN, phicat.Email,
	}
	for _, c := range structured {
		assert.True(t, phicat.IsStructured(c), "%s should be structured", c)
	}

	narrative := []phicat.Category{phicat.Name, phicat.Date, phicat.Address, phicat.Other}
	for _, c := range narrative {
		assert.False(t, phicat.IsStructured(c), "%s should not be structured", c)
	}
}
