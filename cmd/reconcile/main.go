package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/stackpay/stackpay.go/ledger"
	"github.com/stackpay/stackpay.go/lib"
	"github.com/stackpay/stackpay.go/lib/service"
)

// one-shot reconciliation run: walk the ledger, resolve every invoice's
// status against the current tip and print the result. Useful for support
// and for eyeballing contract state without the dashboard.
func main() {

	c := &service.Config{}

	// Load configuration from environment variables
	err := godotenv.Load(".env")
	if err != nil {
		fmt.Println("Failed to load .env file")
	}
	err = envconfig.Process("", c)
	if err != nil {
		log.Fatalf("Error loading environment variables: %v", err)
	}

	// Setup logging to STDOUT or a configured log file
	logger := lib.Logger(c.LogFilePath)

	ledgerConfig, err := ledger.LoadConfig()
	if err != nil {
		logger.Fatalf("Error loading ledger config: %v", err)
	}
	ledgerClient := ledger.NewStacksClient(ledgerConfig, logger)

	// no database needed for a read-only walk
	svc := service.NewService(c, nil, ledgerClient, logger)

	ctx := context.Background()
	if err := svc.Oracle.RefreshTip(ctx); err != nil {
		logger.Errorf("Could not fetch chain tip, expiry resolution will be incomplete: %v", err)
	}

	invoices, stale, err := svc.Cache.GetInvoices(ctx, service.InvoiceFilter{}, true)
	if err != nil {
		logger.Fatalf("Reconciliation failed: %v", err)
	}
	if stale {
		logger.Error("Serving stale data")
	}

	tip := svc.Oracle.CurrentTip()
	for i := range invoices {
		invoice := &invoices[i]
		fmt.Printf("%s\t%d %s\tmerchant=%s\tstatus=%s\n",
			invoice.ID, invoice.Amount, invoice.Currency, invoice.Merchant, service.ResolveStatus(invoice, tip))
	}
	logger.Infof("Reconciled %d invoices", len(invoices))
}
