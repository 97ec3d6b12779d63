package product

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var skuPattern = regexp.MustCompile(`^[A-Z0-9]{1,3}-[A-Z0-9]{0,3}-\d+$`)

func TestGenerateSKU(t *testing.T) {
	sku := GenerateSKU("Espresso Beans", "coffee")
	require.Regexp(t, skuPattern, sku)
	assert.Equal(t, "COF-ESP", sku[:7])
}

func TestGenerateSKU_DefaultCategory(t *testing.T) {
	sku := GenerateSKU("Widget", "")
	require.Regexp(t, skuPattern, sku)
	assert.Equal(t, "GEN-WID", sku[:7])
}

func TestGenerateSKU_ShortName(t *testing.T) {
	sku := GenerateSKU("ox", "tools")
	require.Regexp(t, skuPattern, sku)
	assert.Equal(t, "TOO-OX-", sku[:7])
}

func TestGenerateSKU_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for range 50 {
		seen[GenerateSKU("Widget", "tools")] = true
	}
	// 50 draws from a 900k space colliding down to a handful would mean the
	// suffix is not random at all.
	assert.Greater(t, len(seen), 40)
}
