package product

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// DefaultCategory is used for SKU generation when no category is given.
const DefaultCategory = "GEN"

// GenerateSKU builds a SKU of the form CAT-PRO-12345 from the first three
// letters of the category and the product name plus a random numeric suffix.
// Whitespace in the name is ignored. The caller still has to handle
// uniqueness conflicts from the store.
func GenerateSKU(name, category string) string {
	if category == "" {
		category = DefaultCategory
	}
	cat := prefix(category)
	prod := prefix(strings.ReplaceAll(name, " ", ""))

	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		// crypto/rand only fails when the OS entropy source is broken.
		panic(err)
	}

	return fmt.Sprintf("%s-%s-%d", cat, prod, 1000+n.Int64())
}

func prefix(s string) string {
	if len(s) > 3 {
		s = s[:3]
	}
	return strings.ToUpper(s)
}
