package service

import (
	"context"
	"time"
)

// StartTipRefreshRoutine keeps the block-time oracle's chain tip current on a
// fixed period, independent of the on-demand cache refresh. A failed fetch is
// logged and the previous tip is kept, so status resolution keeps working
// with slightly stale expiry information.
func (svc *StackpayService) StartTipRefreshRoutine(ctx context.Context) {
	interval := time.Duration(svc.Config.TipRefreshInterval) * time.Second

	if err := svc.Oracle.RefreshTip(ctx); err != nil {
		svc.Logger.Errorf("Initial chain tip fetch failed: %v", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := svc.Oracle.RefreshTip(ctx); err != nil {
				svc.Logger.Errorf("Chain tip refresh failed, keeping previous tip: %v", err)
				continue
			}
			if tip := svc.Oracle.CurrentTip(); tip != nil {
				svc.Logger.Debugf("Chain tip is now %d", tip.Height)
			}
		}
	}
}
