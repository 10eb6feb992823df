package ledger

import (
	"context"
	"errors"

	"github.com/kelseyhightower/envconfig"
)

// ErrLedgerUnavailable marks a transient remote failure: timeouts, RPC errors,
// bad gateway responses. Callers isolate these per item, they are never fatal
// for a whole reconciliation batch.
var ErrLedgerUnavailable = errors.New("ledger unavailable")

type SubmitPaymentRequest struct {
	InvoiceID      string
	Amount         uint64
	Proof          []byte
	TokenPrincipal string
}

type SubmitPaymentResponse struct {
	TransactionID string `json:"txid"`
}

// Client is the point-query interface to the invoice ledger. The contract
// exposes no range queries: reconciliation walks count -> id -> record.
type Client interface {
	GetInvoiceCount(ctx context.Context) (uint64, error)
	GetInvoiceID(ctx context.Context, index uint64) (string, error)
	GetInvoiceRecord(ctx context.Context, id string) (*RawRecord, error)
	GetTipHeight(ctx context.Context) (uint64, error)
	SubmitPayment(ctx context.Context, req *SubmitPaymentRequest) (*SubmitPaymentResponse, error)
}

type Config struct {
	StacksAPIUrl    string `envconfig:"STACKS_API_URL" default:"https://api.testnet.hiro.so"`
	APIKey          string `envconfig:"STACKS_API_KEY"`
	ContractAddress string `envconfig:"CONTRACT_ADDRESS" required:"true"`
	ContractName    string `envconfig:"CONTRACT_NAME" default:"architecturee"`
	SenderAddress   string `envconfig:"SENDER_ADDRESS"`
	RequestTimeout  int    `envconfig:"LEDGER_REQUEST_TIMEOUT" default:"10"` // seconds
	MaxRetries      int    `envconfig:"LEDGER_MAX_RETRIES" default:"2"`
}

func LoadConfig() (c *Config, err error) {
	c = &Config{}
	err = envconfig.Process("", c)
	if err != nil {
		return nil, err
	}
	if c.SenderAddress == "" {
		c.SenderAddress = c.ContractAddress
	}
	return c, nil
}
