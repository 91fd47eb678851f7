// Command seed-catalog creates the sample products in the catalog service
// through its public API. Products whose SKU already exists are skipped.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	"github.com/xenking/vendas-storefront/db"
	"github.com/xenking/vendas-storefront/internal/catalog"
	"github.com/xenking/vendas-storefront/internal/domain/product"
)

func main() {
	var (
		catalogURL   string
		productsFile string
		concurrency  int
		timeout      time.Duration
	)
	flag.StringVar(&catalogURL, "catalog-url", "", "Catalog service base URL (or VENDAS_CATALOG_URL env)")
	flag.StringVar(&productsFile, "products-file", "", "JSON file with products, the embedded sample catalog when empty")
	flag.IntVar(&concurrency, "concurrency", 4, "Concurrent create requests")
	flag.DurationVar(&timeout, "timeout", catalog.DefaultTimeout, "Timeout of each catalog request")
	flag.Parse()

	if catalogURL == "" {
		catalogURL = os.Getenv("VENDAS_CATALOG_URL")
	}
	if catalogURL == "" {
		catalogURL = "http://localhost:8000"
	}

	app.Run(func(ctx context.Context, lg *zap.Logger, m *app.Telemetry) error {
		data := db.SeedProducts
		if productsFile != "" {
			var err error
			if data, err = os.ReadFile(productsFile); err != nil {
				return errors.Wrap(err, "read products file")
			}
		}
		list, err := product.DecodeList(jx.DecodeBytes(data))
		if err != nil {
			return errors.Wrap(err, "parse products")
		}

		client, err := catalog.New(catalogURL,
			catalog.WithTimeout(timeout),
			catalog.WithTracerProvider(m.TracerProvider()),
		)
		if err != nil {
			return errors.Wrap(err, "create catalog client")
		}

		lg.Info("Seeding catalog", zap.String("catalog", catalogURL), zap.Int("products", len(list)))
		res, err := seed(ctx, lg, client, list, concurrency)
		if err != nil {
			return err
		}
		lg.Info("Seed applied", zap.Int("created", res.Created), zap.Int("skipped", res.Skipped))
		return nil
	})
}
