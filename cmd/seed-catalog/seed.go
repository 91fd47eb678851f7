package main

import (
	"context"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/vendas-storefront/internal/domain/product"
)

type seedResult struct {
	Created int
	Skipped int
}

// seed creates every product of list whose SKU is not in the catalog yet.
// Products are validated first; any invalid product aborts the run before
// anything is created.
func seed(ctx context.Context, lg *zap.Logger, c product.Catalog, list []product.Product, concurrency int) (seedResult, error) {
	valid := make([]product.Product, 0, len(list))
	for _, in := range list {
		p, err := product.Validate(in)
		if err != nil {
			return seedResult{}, errors.Wrapf(err, "product %q", in.Nome)
		}
		valid = append(valid, p)
	}

	existing, err := c.List(ctx, product.Filter{})
	if err != nil {
		return seedResult{}, errors.Wrap(err, "list catalog")
	}
	skus := make(map[string]struct{}, len(existing))
	for _, p := range existing {
		if p.SKU != nil {
			skus[*p.SKU] = struct{}{}
		}
	}

	var (
		res     seedResult
		pending []product.Product
	)
	for _, p := range valid {
		if p.SKU != nil {
			if _, ok := skus[*p.SKU]; ok {
				res.Skipped++
				continue
			}
			skus[*p.SKU] = struct{}{}
		}
		pending = append(pending, p)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))
	for _, p := range pending {
		g.Go(func() error {
			created, err := c.Create(gctx, p)
			if err != nil {
				return errors.Wrapf(err, "create %q", p.Nome)
			}
			lg.Info("Created product", zap.Int64("id", created.ID), zap.String("nome", created.Nome))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}
	res.Created = len(pending)
	return res, nil
}
