// Package shop is the server shop engine: an owned item table with prices,
// stock and restock policy, buy/sell against an external currency ledger,
// and a zone gate on every transaction.
package shop

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"servershop.gg/internal/itemdefs"
	"servershop.gg/internal/protocol"
	"servershop.gg/internal/zones"
)

// Config carries the engine's account wiring.
type Config struct {
	// ShopAccount is the central ledger account purchases pay into and
	// sales pay out of.
	ShopAccount string
	// Currency is the display name of the ledger's currency.
	Currency string
}

// Shop owns all shop state: the item table and the set of zone names where
// transactions are permitted. Every exported method serializes on one mutex;
// the restock scheduler ticks through the same lock, so the host may call in
// from any number of goroutines.
type Shop struct {
	mu sync.Mutex

	items map[int]*Item
	zones []string // insertion-ordered, unique

	cfg     Config
	defs    *itemdefs.Catalog
	zoneReg *zones.Registry
	store   Store
	ledger  Ledger
	audit   Auditor
	log     *log.Logger
}

func New(cfg Config, defs *itemdefs.Catalog, zr *zones.Registry, st Store, led Ledger, logger *log.Logger) *Shop {
	if logger == nil {
		logger = log.Default()
	}
	return &Shop{
		items:   map[int]*Item{},
		cfg:     cfg,
		defs:    defs,
		zoneReg: zr,
		store:   st,
		ledger:  led,
		log:     logger,
	}
}

// SetAuditor wires in an optional operational audit trail.
func (s *Shop) SetAuditor(a Auditor) { s.audit = a }

// Load replaces all in-memory state with the store's rows. Restock countdowns
// re-arm from the persisted intervals, so loading mid-countdown starts that
// item's timer over.
func (s *Shop) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *Shop) loadLocked() error {
	rows, err := s.store.LoadItems()
	if err != nil {
		return fmt.Errorf("load inventory: %w", err)
	}
	regions, err := s.store.LoadRegions()
	if err != nil {
		return fmt.Errorf("load shop regions: %w", err)
	}

	items := make(map[int]*Item, len(rows))
	for _, row := range rows {
		if _, dup := items[row.ID]; dup {
			s.log.Printf("duplicate inventory row for item %d; keeping first", row.ID)
			continue
		}
		it := row
		if it.RestockTime > 0 {
			it.countdown = it.RestockTime
		}
		items[it.ID] = &it
	}

	var zs []string
	seen := make(map[string]bool, len(regions))
	for _, r := range regions {
		if seen[r] {
			continue
		}
		seen[r] = true
		zs = append(zs, r)
	}

	s.items = items
	s.zones = zs
	return nil
}

// Item returns a copy of one table entry.
func (s *Shop) Item(id int) (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		return Item{}, false
	}
	return *it, true
}

// Items returns a copy of the whole table in id order.
func (s *Shop) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Item, 0, len(s.items))
	for _, id := range sortedIDs(s.items) {
		out = append(out, *s.items[id])
	}
	return out
}

// Zones returns the permitted zone names in insertion order.
func (s *Shop) Zones() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.zones))
	copy(out, s.zones)
	return out
}

// resolveLocked maps an item ref (id or name fragment) to its definition and
// live table entry.
func (s *Shop) resolveLocked(ref string) (itemdefs.Def, *Item, error) {
	def, err := s.defs.Resolve(ref)
	if err != nil {
		return itemdefs.Def{}, nil, &Reject{Code: protocol.ErrBadRequest, Message: err.Error()}
	}
	it, ok := s.items[def.ID]
	if !ok {
		return def, nil, rejectf(protocol.ErrBadRequest, "%s is not sold in this shop", def.Name)
	}
	return def, it, nil
}

func (s *Shop) inShopZoneLocked(actor Actor) bool {
	x, y := actor.Position()
	return s.zoneReg.InAny(s.zones, x, y)
}

// persistFieldLocked writes one column through to the store. On failure the
// in-memory value stays authoritative until the next reload.
func (s *Shop) persistFieldLocked(id int, field Field, value int) {
	if err := s.store.UpdateField(id, field, value); err != nil {
		s.log.Printf("persist item=%d %s=%d: %v", id, field, value, err)
	}
}

func (s *Shop) recordLocked(e AuditEntry) {
	if s.audit == nil {
		return
	}
	e.Time = time.Now().UTC().Format(time.RFC3339Nano)
	if err := s.audit.Record(e); err != nil {
		s.log.Printf("audit: %v", err)
	}
}

func sortedIDs(items map[int]*Item) []int {
	ids := make([]int, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
