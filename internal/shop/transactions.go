package shop

import (
	"fmt"
	"strconv"
	"strings"

	"servershop.gg/internal/itemdefs"
	"servershop.gg/internal/protocol"
)

// Receipt summarizes a completed buy or sell.
type Receipt struct {
	Item   string
	ItemID int
	Amount int
	Price  int64
	Stock  int // stock after the transaction
}

// Report is the read-only search view of one item.
type Report struct {
	Name        string
	BuyPrice    int
	SellPrice   int // unit sell price
	Stock       int
	MaxStock    int // Unlimited when uncapped
	RestockTime int // NeverRestock when never scheduled
}

// Buy validates and executes a purchase. Checks run in a fixed order and the
// first failure rejects with no state change: zone, inventory space, stock,
// funds. The ledger transfer happens before any stock mutation, so a failed
// transfer also leaves the table untouched.
func (s *Shop) Buy(actor Actor, ref, amountArg string) (Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	def, it, err := s.resolveLocked(ref)
	if err != nil {
		return Receipt{}, err
	}

	if !s.inShopZoneLocked(actor) {
		return Receipt{}, rejectf(protocol.ErrNotInZone, "you are not in a valid shop zone")
	}
	if !actor.FreeSlot() {
		return Receipt{}, rejectf(protocol.ErrNoSpace, "insufficient inventory space")
	}

	amount, isAll, err := parseAmount(amountArg)
	if err != nil {
		return Receipt{}, err
	}
	if isAll {
		amount = it.Stock
	}
	if amount < 1 {
		if isAll {
			return Receipt{}, rejectf(protocol.ErrNoStock, "%s is out of stock", def.Name)
		}
		return Receipt{}, rejectf(protocol.ErrBadRequest, "invalid amount")
	}
	if amount > it.Stock {
		return Receipt{}, rejectf(protocol.ErrNoStock, "there are only %d %s(s) left in stock", it.Stock, def.Name)
	}

	// A unit price below 1 is floored to 1 so zero-priced items cannot be
	// acquired for free.
	unit := it.Price
	if unit < 1 {
		unit = 1
	}
	price := int64(unit) * int64(amount)

	balance, err := s.ledger.Balance(actor.Name())
	if err != nil {
		return Receipt{}, fmt.Errorf("balance lookup for %s: %w", actor.Name(), err)
	}
	if price > balance {
		return Receipt{}, rejectf(protocol.ErrNoFunds, "you are short %d %s from buying %d %s(s)",
			price-balance, s.cfg.Currency, amount, def.Name)
	}

	memo := fmt.Sprintf("buying %d %s(s) from the shop", amount, def.Name)
	if err := s.ledger.Transfer(actor.Name(), s.cfg.ShopAccount, price, memo); err != nil {
		return Receipt{}, fmt.Errorf("purchase transfer: %w", err)
	}

	it.Stock -= amount
	s.persistFieldLocked(it.ID, FieldStock, it.Stock)
	grant(actor, def, amount)

	s.recordLocked(AuditEntry{Op: "BUY", Actor: actor.Name(), ItemID: it.ID, Item: def.Name,
		Amount: amount, Price: price, Stock: it.Stock})
	return Receipt{Item: def.Name, ItemID: it.ID, Amount: amount, Price: price, Stock: it.Stock}, nil
}

// Sell validates and executes a sale of items the actor already holds.
// "all" sells every held unit. The payout transfer happens before any stock
// or slot mutation.
func (s *Shop) Sell(actor Actor, ref, amountArg string) (Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	def, it, err := s.resolveLocked(ref)
	if err != nil {
		return Receipt{}, err
	}

	if !s.inShopZoneLocked(actor) {
		return Receipt{}, rejectf(protocol.ErrNotInZone, "you are not in a valid shop zone")
	}

	// Scan held stacks from the highest slot down; this order decides which
	// stacks are drained first.
	var slots []int
	held := 0
	for i := actor.SlotCount() - 1; i >= 0; i-- {
		id, count := actor.Slot(i)
		if id == def.ID && count > 0 {
			held += count
			slots = append(slots, i)
		}
	}

	amount, isAll, err := parseAmount(amountArg)
	if err != nil {
		return Receipt{}, err
	}
	if isAll {
		amount = held
	}
	if amount < 1 {
		if isAll {
			return Receipt{}, rejectf(protocol.ErrBadRequest, "you have no %s(s) to sell", def.Name)
		}
		return Receipt{}, rejectf(protocol.ErrBadRequest, "invalid amount")
	}
	if held < amount {
		return Receipt{}, rejectf(protocol.ErrBadRequest, "you do not own %d %s(s)", amount, def.Name)
	}
	if it.MaxStock != Unlimited && it.Stock+amount > it.MaxStock {
		return Receipt{}, rejectf(protocol.ErrMaxStock, "the maximum you can sell is %d %s(s)",
			it.MaxStock-it.Stock, def.Name)
	}

	price := sellPayout(it.Price, amount)
	memo := fmt.Sprintf("selling %d %s(s) to the shop", amount, def.Name)
	if err := s.ledger.Transfer(s.cfg.ShopAccount, actor.Name(), price, memo); err != nil {
		return Receipt{}, fmt.Errorf("sale transfer: %w", err)
	}

	it.Stock += amount
	s.persistFieldLocked(it.ID, FieldStock, it.Stock)

	// Drain the scanned stacks, still high to low, until the full amount is
	// removed.
	remaining := amount
	for _, i := range slots {
		if remaining == 0 {
			break
		}
		_, count := actor.Slot(i)
		if count <= remaining {
			remaining -= count
			actor.SetSlot(i, 0, 0)
		} else {
			actor.SetSlot(i, def.ID, count-remaining)
			remaining = 0
		}
	}

	s.recordLocked(AuditEntry{Op: "SELL", Actor: actor.Name(), ItemID: it.ID, Item: def.Name,
		Amount: amount, Price: price, Stock: it.Stock})
	return Receipt{Item: def.Name, ItemID: it.ID, Amount: amount, Price: price, Stock: it.Stock}, nil
}

// Search reports an item's prices, stock and restock interval. No mutation.
func (s *Shop) Search(ref string) (Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	def, it, err := s.resolveLocked(ref)
	if err != nil {
		return Report{}, err
	}
	return Report{
		Name:        def.Name,
		BuyPrice:    it.Price,
		SellPrice:   int(sellPayout(it.Price, 1)),
		Stock:       it.Stock,
		MaxStock:    it.MaxStock,
		RestockTime: it.RestockTime,
	}, nil
}

// sellPayout is the shop's 5:1 buy:sell ratio: cheap items (unit price <= 5)
// sell at face value, anything above at a fifth, never below 1 in total.
func sellPayout(price, amount int) int64 {
	var p int64
	if price <= 5 {
		p = int64(price) * int64(amount)
	} else {
		p = int64(price) * int64(amount) / 5
	}
	if p < 1 {
		p = 1
	}
	return p
}

// grant hands over amount units in stack-sized batches, one Give per stack.
func grant(actor Actor, def itemdefs.Def, amount int) {
	stack := def.MaxStack
	if stack < 1 {
		stack = 1
	}
	for amount > 0 {
		n := amount
		if n > stack {
			n = stack
		}
		actor.Give(def.ID, n)
		amount -= n
	}
}

func parseAmount(arg string) (amount int, isAll bool, err error) {
	arg = strings.TrimSpace(strings.ToLower(arg))
	if arg == "" {
		return 1, false, nil
	}
	if arg == "all" {
		return 0, true, nil
	}
	n, convErr := strconv.Atoi(arg)
	if convErr != nil {
		return 0, false, rejectf(protocol.ErrBadRequest, "invalid amount %q", arg)
	}
	return n, false, nil
}
