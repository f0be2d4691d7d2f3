// Command checkout prices baskets against a promotional rules document.
//
// Baskets come from a file (one per line) or from the positional arguments,
// which form a single basket:
//
//	checkout -rules rules.json 001 002 003
//	checkout -rules rules.json.gz -baskets baskets.txt -workers 4
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"

	"github.com/xenking/checkout-engine/internal/basket"
	"github.com/xenking/checkout-engine/internal/checkout"
	"github.com/xenking/checkout-engine/internal/domain/rules"
)

func main() {
	var (
		rulesFile   string
		basketsFile string
		workers     int
		currency    string
	)

	flag.StringVar(&rulesFile, "rules", "", "path to promotional rules JSON, optionally gzipped (or CHECKOUT_RULES_FILE env)")
	flag.StringVar(&basketsFile, "baskets", "", "path to a basket file, one comma-separated basket per line")
	flag.IntVar(&workers, "workers", 4, "number of baskets priced concurrently")
	flag.StringVar(&currency, "currency", "£", "currency symbol printed before totals")
	flag.Parse()

	if rulesFile == "" {
		rulesFile = os.Getenv("CHECKOUT_RULES_FILE")
	}
	if rulesFile == "" {
		slog.Error("rules file is required: set --rules or CHECKOUT_RULES_FILE")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, os.Stdout, rulesFile, basketsFile, workers, currency, flag.Args()); err != nil {
		slog.Error("checkout failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, out io.Writer, rulesFile, basketsFile string, workers int, currency string, codes []string) error {
	rs, err := rules.LoadFile(rulesFile)
	if err != nil {
		return errors.Wrap(err, "load rules")
	}
	slog.Debug("rules loaded", slog.Int("products", len(rs.Products())))

	var baskets []basket.Basket
	switch {
	case basketsFile != "":
		if baskets, err = basket.ParseFile(basketsFile); err != nil {
			return err
		}
	case len(codes) > 0:
		baskets = []basket.Basket{{Codes: codes}}
	default:
		return errors.New("no basket given: pass -baskets or product codes as arguments")
	}

	results, err := basket.PriceAll(ctx, rs, baskets, workers)
	if err != nil {
		return errors.Wrap(err, "price baskets")
	}

	for _, res := range results {
		total := res.Receipt.Total.StringFixed(checkout.Precision)
		if _, err := fmt.Fprintf(out, "Basket: %s\nTotal price expected: %s%s\n", res.Basket, currency, total); err != nil {
			return errors.Wrap(err, "write result")
		}
	}
	return nil
}
