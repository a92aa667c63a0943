package shop

import (
	"fmt"
	"strings"

	"servershop.gg/internal/protocol"
)

// Modify sets one field on one item and persists it. restocktype is
// restricted to the three defined policies.
func (s *Shop) Modify(ref, field string, value int) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	def, it, err := s.resolveLocked(ref)
	if err != nil {
		return Item{}, err
	}

	switch strings.ToLower(field) {
	case "price":
		if value < 0 {
			return Item{}, rejectf(protocol.ErrBadRequest, "price must be >= 0")
		}
		it.Price = value
		s.persistFieldLocked(it.ID, FieldPrice, value)
	case "stock":
		if value < 0 {
			return Item{}, rejectf(protocol.ErrBadRequest, "stock must be >= 0")
		}
		it.Stock = value
		s.persistFieldLocked(it.ID, FieldStock, value)
	case "maxstock":
		if value < Unlimited {
			return Item{}, rejectf(protocol.ErrBadRequest, "max stock must be -1 (unlimited) or >= 0")
		}
		it.MaxStock = value
		s.persistFieldLocked(it.ID, FieldMaxStock, value)
	case "restocktime":
		it.RestockTime = value
		if value > 0 {
			it.countdown = value
		} else {
			it.countdown = 0
		}
		s.persistFieldLocked(it.ID, FieldRestockTime, value)
	case "restocktype":
		if !validPolicy(value) {
			return Item{}, rejectf(protocol.ErrBadRequest, "restock type must be one of -1, 0, 1")
		}
		it.RestockType = value
		s.persistFieldLocked(it.ID, FieldRestockType, value)
	default:
		return Item{}, rejectf(protocol.ErrBadRequest,
			"unknown field %q; expected price, stock, maxstock, restocktime or restocktype", field)
	}

	s.recordLocked(AuditEntry{Op: "MODIFY", ItemID: it.ID, Item: def.Name,
		Detail: fmt.Sprintf("%s=%d", strings.ToLower(field), value)})
	return *it, nil
}

// Populate inserts one row per defined item id, deriving defaults from the
// item's intrinsic definition: value becomes the price, half the stack limit
// becomes the opening stock, and single-stack items are left uncapped.
// Nothing guards against rows that already exist; running this twice is an
// operator decision, hence the confirm flag.
func (s *Shop) Populate(confirm bool) (int, error) {
	if !confirm {
		return 0, ErrConfirmRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := 0
	for _, id := range s.defs.IDs() {
		if id == 0 {
			// Reserved "no item" sentinel.
			continue
		}
		def, ok := s.defs.Get(id)
		if !ok {
			continue
		}
		price := def.Value
		if price == 0 {
			price = 1
		}
		maxStock := def.MaxStack
		if maxStock == 0 {
			maxStock = 1
		}
		stock := maxStock / 2
		if maxStock == 1 {
			maxStock = Unlimited
		}
		row := Item{
			ID:          id,
			Price:       price,
			Stock:       stock,
			MaxStock:    maxStock,
			RestockTime: NeverRestock,
			RestockType: RestockShortage,
		}
		if err := s.store.InsertItem(row); err != nil {
			s.log.Printf("populate insert item=%d: %v", id, err)
			continue
		}
		inserted++
	}

	if err := s.loadLocked(); err != nil {
		return inserted, err
	}
	s.recordLocked(AuditEntry{Op: "POPULATE", Detail: fmt.Sprintf("inserted=%d", inserted)})
	return inserted, nil
}

// BalanceStocks applies one restock policy across the whole table as a
// one-time batch instead of waiting for scheduled ticks. Returns how many
// items changed.
func (s *Shop) BalanceStocks(policy int) (int, error) {
	if !validPolicy(policy) {
		return 0, rejectf(protocol.ErrBadRequest, "balance policy must be one of -1, 0, 1")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	changed := 0
	for _, id := range sortedIDs(s.items) {
		it := s.items[id]
		if it.rebalanceTo(policy) {
			s.persistFieldLocked(it.ID, FieldStock, it.Stock)
			changed++
		}
	}
	s.recordLocked(AuditEntry{Op: "BALANCE", Amount: changed, Detail: fmt.Sprintf("policy=%d", policy)})
	return changed, nil
}

// Reload discards all in-memory state, including restock countdowns, and
// re-reads the store.
func (s *Shop) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return err
	}
	s.recordLocked(AuditEntry{Op: "RELOAD"})
	return nil
}

// AddRegion marks a defined zone as a shop zone and persists it.
func (s *Shop) AddRegion(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.zoneReg.Exists(name) {
		return rejectf(protocol.ErrBadRequest, "unknown zone %q", name)
	}
	for _, z := range s.zones {
		if z == name {
			return rejectf(protocol.ErrBadRequest, "%s is already a shop zone", name)
		}
	}
	s.zones = append(s.zones, name)
	if err := s.store.InsertRegion(name); err != nil {
		s.log.Printf("persist region add %q: %v", name, err)
	}
	s.recordLocked(AuditEntry{Op: "REGION_ADD", Detail: name})
	return nil
}

// DelRegion removes a zone from the shop zone set and persists the removal.
func (s *Shop) DelRegion(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, z := range s.zones {
		if z == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return rejectf(protocol.ErrBadRequest, "%s is not a shop zone", name)
	}
	s.zones = append(s.zones[:idx], s.zones[idx+1:]...)
	if err := s.store.DeleteRegion(name); err != nil {
		s.log.Printf("persist region del %q: %v", name, err)
	}
	s.recordLocked(AuditEntry{Op: "REGION_DEL", Detail: name})
	return nil
}
