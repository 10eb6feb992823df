package service

import (
	"github.com/stackpay/stackpay.go/ledger"
	"github.com/uptrace/bun"
	"github.com/ziflex/lecho/v3"
)

type StackpayService struct {
	Config        *Config
	DB            *bun.DB
	Ledger        ledger.Client
	Oracle        *BlockTimeOracle
	Cache         *ReconciliationCache
	InvoicePubSub *Pubsub
	Logger        *lecho.Logger
}

func NewService(config *Config, db *bun.DB, ledgerClient ledger.Client, logger *lecho.Logger) *StackpayService {
	svc := &StackpayService{
		Config:        config,
		DB:            db,
		Ledger:        ledgerClient,
		InvoicePubSub: NewPubsub(),
		Logger:        logger,
	}
	svc.Oracle = NewBlockTimeOracle(svc)
	svc.Cache = NewReconciliationCache(svc)
	return svc
}
