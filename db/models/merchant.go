package models

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Merchant : denormalized merchant profile keyed by the on-chain principal.
// The ledger is authoritative for everything invoice related, this row only
// carries dashboard metadata.
type Merchant struct {
	ID         int64        `json:"id" bun:",pk,autoincrement"`
	Principal  string       `json:"principal" bun:",unique,notnull" validate:"required"`
	Name       string       `json:"name" bun:",nullzero"`
	Email      string       `json:"email,omitempty" bun:",nullzero"`
	WebhookUrl string       `json:"webhook_url,omitempty" bun:",nullzero"`
	CreatedAt  time.Time    `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt  bun.NullTime `json:"updated_at"`
}

func (m *Merchant) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.UpdateQuery:
		m.UpdatedAt = bun.NullTime{Time: time.Now()}
	}
	return nil
}

var _ bun.BeforeAppendModelHook = (*Merchant)(nil)
