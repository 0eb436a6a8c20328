// Command invoice-demo stores and reloads an invoice through the configured
// event store backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/terraskye/eventstorage"
	"github.com/terraskye/eventstorage/config"
	"github.com/terraskye/eventstorage/example"
	"github.com/terraskye/eventstorage/logging"
	"github.com/terraskye/eventstorage/otel"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "invoice-demo: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, stdout, stderr io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(stderr, cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return err
	}

	entry, err := logging.NewEntry(stderr, cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return err
	}

	collection, closer, err := config.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s backend: %w", cfg.Backend, err)
	}
	defer closer.Close()

	registry := eventstorage.NewRegistry(eventstorage.KebabCase{}, example.Types()...)

	var store eventstorage.EventStore = eventstorage.NewStore(
		otel.WithCollectionTelemetry(logging.WithCollection(entry.WithField("backend", cfg.Backend), collection)),
		registry,
	)
	store = otel.WithEventStoreTelemetry(store)
	store = logging.WithEventStore(logger.With("backend", cfg.Backend), store)

	invoice := example.Create("2024-0001",
		example.NewItem("prod.123.456", "Product", 3, 5.95, 21),
		example.NewItem("", "Shipping", 1, 4.95, 0),
	)
	tx := invoice.StartPaymentTransaction("Manual", 10)
	if err := invoice.CompletePaymentTransaction(tx.ID); err != nil {
		return err
	}

	if err := store.Save(ctx, invoice); err != nil {
		return err
	}
	invoice.ClearEvents()

	loaded := example.Init(invoice.AggregateRootID())
	if err := store.Load(ctx, loaded); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "invoice %s (%s)\n", loaded.Number, loaded.AggregateRootID())
	fmt.Fprintf(stdout, "subtotal %.2f\n", loaded.SubTotal())
	fmt.Fprintf(stdout, "tax      %.2f\n", loaded.Tax())
	fmt.Fprintf(stdout, "total    %.2f\n", loaded.Total())
	return nil
}
