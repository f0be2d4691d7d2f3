// Package basket reads sample baskets and prices them in bulk against a
// shared rule set.
package basket

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/checkout-engine/internal/checkout"
	"github.com/xenking/checkout-engine/internal/domain/rules"
)

// Basket is an ordered list of scanned product codes.
type Basket struct {
	// Line is the 1-based source line, zero for baskets not read from a file.
	Line  int
	Codes []string
}

// String renders the basket the way the CLI prints it.
func (b Basket) String() string {
	return strings.Join(b.Codes, ",")
}

// Result is the priced outcome of one basket.
type Result struct {
	Basket  Basket
	Receipt checkout.Receipt
}

// Parse reads one basket per line. Codes are separated by commas or
// whitespace, '#' starts a comment and blank lines are skipped.
func Parse(r io.Reader) ([]Basket, error) {
	var (
		baskets []Basket
		line    int
	)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line++
		text, _, _ := strings.Cut(scanner.Text(), "#")
		codes := strings.FieldsFunc(text, func(r rune) bool {
			return r == ',' || unicode.IsSpace(r)
		})
		if len(codes) == 0 {
			continue
		}
		baskets = append(baskets, Basket{Line: line, Codes: codes})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "scan baskets")
	}
	return baskets, nil
}

// ParseFile reads baskets from path, decompressing files ending in .gz.
func ParseFile(path string) ([]Basket, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if filepath.Ext(path) == ".gz" {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrapf(err, "create gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	baskets, err := Parse(r)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return baskets, nil
}

// Price runs a single basket through a fresh checkout.
func Price(rs *rules.RuleSet, b Basket) (Result, error) {
	co := checkout.NewWithRules(rs)
	for _, code := range b.Codes {
		if err := co.Scan(code); err != nil {
			if b.Line > 0 {
				return Result{}, errors.Wrapf(err, "basket on line %d", b.Line)
			}
			return Result{}, errors.Wrap(err, "basket")
		}
	}
	return Result{Basket: b, Receipt: co.Receipt()}, nil
}

// PriceAll prices baskets concurrently, at most workers at a time, each in
// its own checkout over the shared rule set. Results keep input order. The
// first failing basket cancels the rest.
func PriceAll(ctx context.Context, rs *rules.RuleSet, baskets []Basket, workers int) ([]Result, error) {
	results := make([]Result, len(baskets))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, b := range baskets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := Price(rs, b)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
