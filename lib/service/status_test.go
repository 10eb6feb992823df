package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveStatusPaidWins(t *testing.T) {
	invoice := &Invoice{OnChainStatus: OnChainStatusPaid, ExpiresAtBlock: uptr(10)}
	// far past the expiry height, a settled invoice stays paid
	assert.Equal(t, StatusPaid, ResolveStatus(invoice, &ChainTip{Height: 100000}))
}

func TestResolveStatusExpiryBoundary(t *testing.T) {
	invoice := &Invoice{OnChainStatus: OnChainStatusPending, ExpiresAtBlock: uptr(1000)}

	assert.Equal(t, StatusPending, ResolveStatus(invoice, &ChainTip{Height: 999}))
	assert.Equal(t, StatusExpired, ResolveStatus(invoice, &ChainTip{Height: 1000}))
	assert.Equal(t, StatusExpired, ResolveStatus(invoice, &ChainTip{Height: 1001}))
}

func TestResolveStatusWithoutExpiryHeight(t *testing.T) {
	invoice := &Invoice{OnChainStatus: OnChainStatusPending}
	assert.Equal(t, StatusPending, ResolveStatus(invoice, &ChainTip{Height: 1 << 40}))
}

func TestResolveStatusWithoutTip(t *testing.T) {
	invoice := &Invoice{OnChainStatus: OnChainStatusPending, ExpiresAtBlock: uptr(1)}
	assert.Equal(t, StatusPending, ResolveStatus(invoice, nil))
}
