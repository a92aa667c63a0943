package shop

import (
	"context"
	"log"
	"time"
)

// Tick advances every armed restock countdown by one step. Items that come
// due re-arm to their configured interval and, unless uncapped, are pulled
// toward half capacity under their own policy. Changed stock is written
// through immediately; a failed write is logged and the in-memory value kept.
func (s *Shop) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range sortedIDs(s.items) {
		it := s.items[id]
		if it.RestockTime <= 0 {
			continue
		}
		it.countdown--
		if it.countdown > 0 {
			continue
		}
		it.countdown = it.RestockTime
		if it.rebalanceTo(it.RestockType) {
			s.persistFieldLocked(it.ID, FieldStock, it.Stock)
			s.recordLocked(AuditEntry{Op: "RESTOCK", ItemID: it.ID, Stock: it.Stock})
		}
	}
}

// Scheduler drives Shop.Tick on a fixed wall-clock interval.
type Scheduler struct {
	shop     *Shop
	interval time.Duration
	log      *log.Logger
}

func NewScheduler(s *Shop, interval time.Duration, logger *log.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Second
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{shop: s, interval: interval, log: logger}
}

// Run ticks until ctx is cancelled.
func (sc *Scheduler) Run(ctx context.Context) {
	t := time.NewTicker(sc.interval)
	defer t.Stop()
	sc.log.Printf("restock scheduler running (interval %s)", sc.interval)
	for {
		select {
		case <-ctx.Done():
			sc.log.Printf("restock scheduler stopped")
			return
		case <-t.C:
			sc.shop.Tick()
		}
	}
}
