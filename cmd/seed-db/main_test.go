package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderlane/orderlane/internal/domain/product"
)

// seedSink records created products and rejects duplicate SKUs like the real
// repository does.
type seedSink struct {
	created []product.Product
	skus    map[string]bool
}

func newSeedSink() *seedSink {
	return &seedSink{skus: make(map[string]bool)}
}

func (s *seedSink) Create(_ context.Context, p *product.Product) error {
	if s.skus[p.SKU] {
		return product.ErrSKUConflict
	}
	s.skus[p.SKU] = true
	s.created = append(s.created, *p)
	return nil
}

func (s *seedSink) List(context.Context) ([]product.Product, error) { return s.created, nil }

func (s *seedSink) GetByID(context.Context, uuid.UUID) (*product.Product, error) {
	return nil, product.ErrNotFound
}

func (s *seedSink) Update(context.Context, uuid.UUID, product.Update) (*product.Product, error) {
	return nil, product.ErrNotFound
}

func (s *seedSink) Delete(context.Context, uuid.UUID) error { return product.ErrNotFound }

func writeSeedFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// Rerunning the seed with pinned SKUs must not duplicate the catalog.
func TestSeedProductsIdempotent(t *testing.T) {
	path := writeSeedFile(t, `[
		{"name": "Espresso", "sku": "COF-ESP-100001", "category": "coffee", "price": "2.50", "stock": 10},
		{"name": "Croissant", "sku": "BAK-CRO-100003", "category": "bakery", "price": "3.20", "stock": 5}
	]`)

	sink := newSeedSink()
	require.NoError(t, seedProducts(context.Background(), sink, path))
	require.Len(t, sink.created, 2)

	require.NoError(t, seedProducts(context.Background(), sink, path))
	assert.Len(t, sink.created, 2)
}

func TestSeedProductsGeneratesMissingSKU(t *testing.T) {
	path := writeSeedFile(t, `[
		{"name": "Espresso", "category": "coffee", "price": "2.50", "stock": 10}
	]`)

	sink := newSeedSink()
	require.NoError(t, seedProducts(context.Background(), sink, path))
	require.Len(t, sink.created, 1)
	assert.Regexp(t, `^COF-ESP-\d+$`, sink.created[0].SKU)
}
