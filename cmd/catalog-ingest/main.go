// Command catalog-ingest loads supplier catalog dumps into the products
// table. Dumps are gzip-compressed JSONL files, one product per line, and
// suppliers routinely repeat SKUs across files. Files are streamed
// concurrently; a shared bloom filter drops repeated SKUs cheaply and the
// database unique index catches the false negatives.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/orderlane/orderlane/internal/postgres"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	progressEvery = 100_000
)

type catalogLine struct {
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
}

// skuFilter is a concurrency-safe seen-SKU set. Test-and-add is atomic under
// the mutex so two files cannot both claim the same SKU.
type skuFilter struct {
	mu     sync.Mutex
	filter *bloom.BloomFilter
}

func newSKUFilter() *skuFilter {
	return &skuFilter{filter: bloom.NewWithEstimates(bloomCapacity, bloomFPR)}
}

// claim reports whether sku was unseen and marks it seen.
func (s *skuFilter) claim(sku string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.filter.TestString(sku) {
		return false
	}
	s.filter.AddString(sku)
	return true
}

func main() {
	var (
		dataDir     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing *.jsonl.gz catalog dumps")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL); err != nil {
		slog.Error("catalog ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog ingest completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "*.jsonl.gz"))
	if err != nil {
		return errors.Wrap(err, "glob data dir")
	}
	if len(files) == 0 {
		return errors.Errorf("no *.jsonl.gz files in %s", dataDir)
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	slog.Info("ingesting catalog dumps", slog.Int("files", len(files)))

	seen := newSKUFilter()
	g, ctx := errgroup.WithContext(ctx)
	for _, f := range files {
		g.Go(ingestFile(ctx, pool, f, seen))
	}
	return g.Wait()
}

const upsertProductSQL = `INSERT INTO products (id, name, sku, description, category, price, stock, is_active)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (sku) DO UPDATE SET
		name = EXCLUDED.name,
		description = EXCLUDED.description,
		category = EXCLUDED.category,
		price = EXCLUDED.price,
		stock = EXCLUDED.stock,
		is_active = EXCLUDED.is_active,
		updated_at = now()`

func ingestFile(ctx context.Context, db postgres.DBTX, path string, seen *skuFilter) func() error {
	return func() error {
		var total, loaded uint64

		err := streamGzLines(ctx, path, func(raw []byte) error {
			total++
			if total%progressEvery == 0 {
				slog.Info("ingest progress",
					slog.String("file", filepath.Base(path)),
					slog.Uint64("lines", total),
				)
			}

			var line catalogLine
			if err := json.Unmarshal(raw, &line); err != nil {
				slog.Warn("skipping malformed line",
					slog.String("file", filepath.Base(path)),
					slog.Uint64("line", total),
				)
				return nil
			}
			if line.SKU == "" || line.Name == "" || line.Price.IsNegative() || line.Stock < 0 {
				return nil
			}
			if !seen.claim(line.SKU) {
				return nil
			}

			_, err := db.Exec(ctx, upsertProductSQL,
				uuid.New(), line.Name, line.SKU, line.Description, line.Category,
				line.Price, line.Stock, line.Stock > 0,
			)
			if err != nil {
				return errors.Wrapf(err, "upsert sku %s", line.SKU)
			}
			loaded++
			return nil
		})
		if err != nil {
			return errors.Wrapf(err, "ingest %s", path)
		}

		slog.Info("file complete",
			slog.String("file", filepath.Base(path)),
			slog.Uint64("lines", total),
			slog.Uint64("loaded", loaded),
		)
		return nil
	}
}

// streamGzLines opens a gzip-compressed file and calls fn for each line.
func streamGzLines(ctx context.Context, path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(scanner.Bytes()); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	return nil
}
