// Command seed-db loads a product catalog from a JSON file and provisions
// one API key per role. It is idempotent: products carry their SKU in the
// seed file, and existing SKUs and key hashes are left alone on rerun.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/orderlane/orderlane/internal/domain/auth"
	"github.com/orderlane/orderlane/internal/domain/product"
	"github.com/orderlane/orderlane/internal/postgres"
)

type productJSON struct {
	Name        string          `json:"name"`
	SKU         string          `json:"sku"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
		pepper       string
		adminKey     string
		staffKey     string
		clientKey    string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&pepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or ORDERLANE_API_KEY_PEPPER env)")
	flag.StringVar(&adminKey, "admin-key", "", "admin API key to seed")
	flag.StringVar(&staffKey, "staff-key", "", "staff API key to seed")
	flag.StringVar(&clientKey, "client-key", "", "client API key to seed")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if pepper == "" {
		pepper = os.Getenv("ORDERLANE_API_KEY_PEPPER")
	}
	if pepper == "" {
		slog.Error("pepper is required: set --api-key-pepper or ORDERLANE_API_KEY_PEPPER")
		os.Exit(1)
	}

	keys := map[auth.Role]string{
		auth.RoleAdmin:  adminKey,
		auth.RoleStaff:  staffKey,
		auth.RoleClient: clientKey,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, pepper, keys); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, pepper string, keys map[auth.Role]string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, postgres.NewProductRepository(pool), productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}

	for role, key := range keys {
		if key == "" {
			continue
		}
		if err := seedAPIKey(ctx, pool, role, key, pepper); err != nil {
			return errors.Wrapf(err, "seed %s key", role)
		}
	}
	return nil
}

func seedProducts(ctx context.Context, repo product.Repository, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var items []productJSON
	if err := json.Unmarshal(data, &items); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	seeded := 0
	for _, item := range items {
		// A generated SKU has a random suffix, so seed files that want
		// rerunnability pin their SKUs explicitly.
		sku := item.SKU
		if sku == "" {
			sku = product.GenerateSKU(item.Name, item.Category)
		}
		p := &product.Product{
			ID:          uuid.New(),
			Name:        item.Name,
			SKU:         sku,
			Description: item.Description,
			Category:    item.Category,
			Price:       item.Price,
			Stock:       item.Stock,
			IsActive:    item.Stock > 0,
		}
		if err := repo.Create(ctx, p); err != nil {
			if errors.Is(err, product.ErrSKUConflict) {
				slog.Info("skipping existing product", slog.String("sku", p.SKU))
				continue
			}
			return errors.Wrapf(err, "create product %q", item.Name)
		}
		seeded++
	}

	slog.Info("products seeded", slog.Int("count", seeded))
	return nil
}

const insertAPIKeySQL = `INSERT INTO api_keys (id, key_hash, name, user_id, role, active)
	VALUES ($1, $2, $3, $4, $5, TRUE)
	ON CONFLICT (key_hash) DO NOTHING`

func seedAPIKey(ctx context.Context, db postgres.DBTX, role auth.Role, key, pepper string) error {
	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(key))
	hash := hex.EncodeToString(mac.Sum(nil))

	name := "seed-" + string(role)
	if _, err := db.Exec(ctx, insertAPIKeySQL, name, hash, name, uuid.New(), role); err != nil {
		return errors.Wrap(err, "insert api key")
	}

	slog.Info("api key seeded", slog.String("role", string(role)))
	return nil
}
