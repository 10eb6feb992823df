package service

import (
	"context"
	"sync"
	"time"
)

// ChainTip is the most recently observed block height. Replaced wholesale on
// every successful refresh and retained as-is when a refresh fails, so status
// resolution degrades to a stale tip instead of losing expiry information.
type ChainTip struct {
	Height     uint64
	ObservedAt time.Time
}

// BlockTimeOracle projects block heights onto wall-clock time using the
// current tip and the chain's average block interval.
type BlockTimeOracle struct {
	svc *StackpayService

	mu  sync.RWMutex
	tip *ChainTip
}

func NewBlockTimeOracle(svc *StackpayService) *BlockTimeOracle {
	return &BlockTimeOracle{svc: svc}
}

// CurrentTip returns the last known tip, nil before the first successful
// refresh.
func (o *BlockTimeOracle) CurrentTip() *ChainTip {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.tip
}

// RefreshTip fetches the tip height from the ledger. The previous value is
// kept on failure, it is never reset to nil.
func (o *BlockTimeOracle) RefreshTip(ctx context.Context) error {
	height, err := o.svc.Ledger.GetTipHeight(ctx)
	if err != nil {
		return err
	}
	o.mu.Lock()
	o.tip = &ChainTip{Height: height, ObservedAt: time.Now()}
	o.mu.Unlock()
	return nil
}

func (o *BlockTimeOracle) blockInterval() time.Duration {
	return time.Duration(o.svc.Config.BlockIntervalSeconds) * time.Second
}

// BlockToWallClock estimates the wall-clock time of a block height. A nil
// height returns nil, callers must render "unknown" explicitly instead of
// substituting now. With a tip the projection is linear around it and heights
// above the tip land in the future; without one the estimate falls back to a
// fixed genesis offset at lower precision.
func (o *BlockTimeOracle) BlockToWallClock(height *uint64, tip *ChainTip, now time.Time) *time.Time {
	if height == nil {
		return nil
	}
	interval := o.blockInterval()
	if tip != nil {
		diff := int64(*height) - int64(tip.Height)
		t := now.Add(time.Duration(diff) * interval)
		return &t
	}
	t := time.Unix(o.svc.Config.GenesisTimestamp, 0).Add(time.Duration(*height) * interval)
	return &t
}

// IsBlockExpired reports whether a height lies at or below the tip. Unknown
// heights and an unknown tip are never expired.
func IsBlockExpired(height *uint64, tip *ChainTip) bool {
	return height != nil && tip != nil && *height <= tip.Height
}
