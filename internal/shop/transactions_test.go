package shop

import (
	"testing"

	"servershop.gg/internal/protocol"
)

func assertReject(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected rejection %s, got nil", code)
	}
	rej, ok := AsReject(err)
	if !ok {
		t.Fatalf("expected rejection %s, got %v", code, err)
	}
	if rej.Code != code {
		t.Fatalf("code = %s (%s), want %s", rej.Code, rej.Message, code)
	}
}

func TestBuy(t *testing.T) {
	s, st, led := newTestShop(t, []Item{
		{ID: 1, Price: 15, Stock: 10, MaxStock: 30, RestockTime: -1, RestockType: 0},
	}, []string{"Market"}, map[string]int64{"alice": 100})

	actor := marketActor("alice")
	rec, err := s.Buy(actor, "Healing Potion", "2")
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if rec.Amount != 2 || rec.Price != 30 || rec.Stock != 8 {
		t.Fatalf("receipt = %+v", rec)
	}
	if led.balances["alice"] != 70 || led.balances["server-shop"] != 30 {
		t.Fatalf("balances = %v", led.balances)
	}
	if len(actor.given) != 1 || actor.given[0] != (fakeSlot{item: 1, count: 2}) {
		t.Fatalf("given = %v", actor.given)
	}
	it, _ := s.Item(1)
	if it.Stock != 8 {
		t.Fatalf("stock = %d", it.Stock)
	}
	if len(st.updates) != 1 || st.updates[0] != "1:Stock=8" {
		t.Fatalf("updates = %v", st.updates)
	}
}

func TestBuyRejectionsLeaveStateUntouched(t *testing.T) {
	rows := []Item{
		{ID: 1, Price: 15, Stock: 3, MaxStock: 30, RestockTime: -1, RestockType: 0},
	}

	cases := []struct {
		name   string
		actor  *fakeActor
		ref    string
		amount string
		funds  int64
		code   string
	}{
		{name: "unknown item", actor: marketActor("alice"), ref: "Excalibur", amount: "1", funds: 100, code: protocol.ErrBadRequest},
		{name: "not stocked", actor: marketActor("alice"), ref: "Iron Pickaxe", amount: "1", funds: 100, code: protocol.ErrBadRequest},
		{name: "outside zone", actor: &fakeActor{name: "alice", x: 999, y: 999, slots: make([]fakeSlot, 10)}, ref: "1", amount: "1", funds: 100, code: protocol.ErrNotInZone},
		{name: "no free slot", actor: &fakeActor{name: "alice", x: 10, y: 10, slots: []fakeSlot{{item: 5, count: 1}}}, ref: "1", amount: "1", funds: 100, code: protocol.ErrNoSpace},
		{name: "bad amount", actor: marketActor("alice"), ref: "1", amount: "many", funds: 100, code: protocol.ErrBadRequest},
		{name: "zero amount", actor: marketActor("alice"), ref: "1", amount: "0", funds: 100, code: protocol.ErrBadRequest},
		{name: "over stock", actor: marketActor("alice"), ref: "1", amount: "4", funds: 100, code: protocol.ErrNoStock},
		{name: "short funds", actor: marketActor("alice"), ref: "1", amount: "3", funds: 44, code: protocol.ErrNoFunds},
	}

	for _, tc := range cases {
		s, st, led := newTestShop(t, rows, []string{"Market"}, map[string]int64{"alice": tc.funds})
		_, err := s.Buy(tc.actor, tc.ref, tc.amount)
		assertReject(t, err, tc.code)
		if it, _ := s.Item(1); it.Stock != 3 {
			t.Fatalf("%s: stock mutated to %d", tc.name, it.Stock)
		}
		if len(led.transfers) != 0 {
			t.Fatalf("%s: ledger mutated: %v", tc.name, led.transfers)
		}
		if len(st.updates) != 0 {
			t.Fatalf("%s: store mutated: %v", tc.name, st.updates)
		}
		if len(tc.actor.given) != 0 {
			t.Fatalf("%s: items granted: %v", tc.name, tc.actor.given)
		}
	}
}

func TestBuyAllAndOutOfStock(t *testing.T) {
	s, _, led := newTestShop(t, []Item{
		{ID: 2, Price: 1, Stock: 7, MaxStock: 100, RestockTime: -1, RestockType: 0},
	}, []string{"Market"}, map[string]int64{"alice": 100})

	actor := marketActor("alice")
	rec, err := s.Buy(actor, "torch", "all")
	if err != nil {
		t.Fatalf("buy all: %v", err)
	}
	if rec.Amount != 7 || rec.Price != 7 || rec.Stock != 0 {
		t.Fatalf("receipt = %+v", rec)
	}
	if led.balances["alice"] != 93 {
		t.Fatalf("balance = %d", led.balances["alice"])
	}

	_, err = s.Buy(actor, "torch", "all")
	assertReject(t, err, protocol.ErrNoStock)
}

func TestBuyDefaultAmountIsOne(t *testing.T) {
	s, _, _ := newTestShop(t, []Item{
		{ID: 2, Price: 1, Stock: 7, MaxStock: 100, RestockTime: -1, RestockType: 0},
	}, []string{"Market"}, map[string]int64{"alice": 100})

	rec, err := s.Buy(marketActor("alice"), "torch", "")
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if rec.Amount != 1 {
		t.Fatalf("amount = %d", rec.Amount)
	}
}

func TestBuyZeroPriceChargesMinimumUnit(t *testing.T) {
	s, _, led := newTestShop(t, []Item{
		{ID: 4, Price: 0, Stock: 50, MaxStock: 250, RestockTime: -1, RestockType: 0},
	}, []string{"Market"}, map[string]int64{"alice": 10})

	rec, err := s.Buy(marketActor("alice"), "scrap", "3")
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if rec.Price != 3 {
		t.Fatalf("price = %d, zero-priced units must cost 1 each", rec.Price)
	}
	if led.balances["alice"] != 7 {
		t.Fatalf("balance = %d", led.balances["alice"])
	}
}

func TestBuySplitsGrantsByStackSize(t *testing.T) {
	s, _, _ := newTestShop(t, []Item{
		{ID: 1, Price: 1, Stock: 100, MaxStock: 100, RestockTime: -1, RestockType: 0},
	}, []string{"Market"}, map[string]int64{"alice": 1000})

	actor := marketActor("alice")
	if _, err := s.Buy(actor, "1", "70"); err != nil {
		t.Fatalf("buy: %v", err)
	}
	// Healing Potion stacks to 30.
	want := []fakeSlot{{item: 1, count: 30}, {item: 1, count: 30}, {item: 1, count: 10}}
	if len(actor.given) != len(want) {
		t.Fatalf("given = %v", actor.given)
	}
	for i, g := range actor.given {
		if g != want[i] {
			t.Fatalf("given[%d] = %v, want %v", i, g, want[i])
		}
	}
}

func TestSell(t *testing.T) {
	s, _, led := newTestShop(t, []Item{
		{ID: 1, Price: 15, Stock: 5, MaxStock: 30, RestockTime: -1, RestockType: 0},
	}, []string{"Market"}, map[string]int64{"server-shop": 1000})

	actor := marketActor("bob")
	actor.slots[3] = fakeSlot{item: 1, count: 10}
	rec, err := s.Sell(actor, "1", "4")
	if err != nil {
		t.Fatalf("sell: %v", err)
	}
	// 15 * 4 / 5 = 12.
	if rec.Amount != 4 || rec.Price != 12 || rec.Stock != 9 {
		t.Fatalf("receipt = %+v", rec)
	}
	if led.balances["bob"] != 12 || led.balances["server-shop"] != 988 {
		t.Fatalf("balances = %v", led.balances)
	}
	if actor.slots[3] != (fakeSlot{item: 1, count: 6}) {
		t.Fatalf("slot = %v", actor.slots[3])
	}
}

func TestSellDrainsHighSlotsFirst(t *testing.T) {
	s, _, _ := newTestShop(t, []Item{
		{ID: 2, Price: 1, Stock: 0, MaxStock: 100, RestockTime: -1, RestockType: 0},
	}, []string{"Market"}, map[string]int64{"server-shop": 1000})

	actor := marketActor("bob")
	actor.slots[2] = fakeSlot{item: 2, count: 5}
	actor.slots[7] = fakeSlot{item: 2, count: 10}
	if _, err := s.Sell(actor, "2", "12"); err != nil {
		t.Fatalf("sell: %v", err)
	}
	if actor.slots[7] != (fakeSlot{}) {
		t.Fatalf("slot 7 = %v, should drain first", actor.slots[7])
	}
	if actor.slots[2] != (fakeSlot{item: 2, count: 3}) {
		t.Fatalf("slot 2 = %v", actor.slots[2])
	}
}

func TestSellAll(t *testing.T) {
	s, _, _ := newTestShop(t, []Item{
		{ID: 2, Price: 1, Stock: 0, MaxStock: 100, RestockTime: -1, RestockType: 0},
	}, []string{"Market"}, map[string]int64{"server-shop": 1000})

	actor := marketActor("bob")
	actor.slots[0] = fakeSlot{item: 2, count: 9}
	actor.slots[5] = fakeSlot{item: 2, count: 4}
	rec, err := s.Sell(actor, "torch", "all")
	if err != nil {
		t.Fatalf("sell all: %v", err)
	}
	if rec.Amount != 13 || rec.Price != 13 {
		t.Fatalf("receipt = %+v", rec)
	}
	for i, sl := range actor.slots {
		if sl.count != 0 {
			t.Fatalf("slot %d not drained: %v", i, sl)
		}
	}

	_, err = s.Sell(actor, "torch", "all")
	assertReject(t, err, protocol.ErrBadRequest)
}

func TestSellRejections(t *testing.T) {
	rows := []Item{
		{ID: 1, Price: 15, Stock: 28, MaxStock: 30, RestockTime: -1, RestockType: 0},
	}

	s, st, led := newTestShop(t, rows, []string{"Market"}, map[string]int64{"server-shop": 1000})

	outside := &fakeActor{name: "bob", x: 999, y: 999, slots: []fakeSlot{{item: 1, count: 10}}}
	_, err := s.Sell(outside, "1", "1")
	assertReject(t, err, protocol.ErrNotInZone)

	actor := marketActor("bob")
	actor.slots[0] = fakeSlot{item: 1, count: 10}

	_, err = s.Sell(actor, "1", "11")
	assertReject(t, err, protocol.ErrBadRequest) // owns only 10

	_, err = s.Sell(actor, "1", "5")
	assertReject(t, err, protocol.ErrMaxStock) // room for only 2

	if it, _ := s.Item(1); it.Stock != 28 {
		t.Fatalf("stock mutated to %d", it.Stock)
	}
	if len(led.transfers) != 0 || len(st.updates) != 0 {
		t.Fatalf("rejected sells mutated state: %v %v", led.transfers, st.updates)
	}

	rec, err := s.Sell(actor, "1", "2")
	if err != nil {
		t.Fatalf("sell at capacity edge: %v", err)
	}
	if rec.Stock != 30 {
		t.Fatalf("stock = %d", rec.Stock)
	}
}

func TestSellUncappedIgnoresCapacity(t *testing.T) {
	s, _, _ := newTestShop(t, []Item{
		{ID: 3, Price: 50, Stock: 9999, MaxStock: Unlimited, RestockTime: -1, RestockType: 0},
	}, []string{"Market"}, map[string]int64{"server-shop": 1000})

	actor := marketActor("bob")
	actor.slots[0] = fakeSlot{item: 3, count: 1}
	rec, err := s.Sell(actor, "pickaxe", "1")
	if err != nil {
		t.Fatalf("sell: %v", err)
	}
	if rec.Price != 10 || rec.Stock != 10000 {
		t.Fatalf("receipt = %+v", rec)
	}
}

func TestBuySellRoundTripRestoresStock(t *testing.T) {
	s, _, _ := newTestShop(t, []Item{
		{ID: 1, Price: 15, Stock: 10, MaxStock: 30, RestockTime: -1, RestockType: 0},
	}, []string{"Market"}, map[string]int64{"alice": 100, "server-shop": 1000})

	actor := marketActor("alice")
	if _, err := s.Buy(actor, "1", "3"); err != nil {
		t.Fatalf("buy: %v", err)
	}
	// Mirror the grant into the actor's slots so the sale can find it.
	actor.slots[0] = fakeSlot{item: 1, count: 3}
	if _, err := s.Sell(actor, "1", "3"); err != nil {
		t.Fatalf("sell: %v", err)
	}
	if it, _ := s.Item(1); it.Stock != 10 {
		t.Fatalf("stock = %d", it.Stock)
	}
}

func TestSearchReport(t *testing.T) {
	s, _, _ := newTestShop(t, []Item{
		{ID: 1, Price: 15, Stock: 10, MaxStock: 30, RestockTime: 5, RestockType: 0},
		{ID: 2, Price: 3, Stock: 40, MaxStock: Unlimited, RestockTime: NeverRestock, RestockType: 0},
	}, []string{"Market"}, nil)

	rep, err := s.Search("potion")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	want := Report{Name: "Healing Potion", BuyPrice: 15, SellPrice: 3, Stock: 10, MaxStock: 30, RestockTime: 5}
	if rep != want {
		t.Fatalf("report = %+v, want %+v", rep, want)
	}

	rep, err = s.Search("torch")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if rep.SellPrice != 3 || rep.MaxStock != Unlimited || rep.RestockTime != NeverRestock {
		t.Fatalf("report = %+v", rep)
	}
}

func TestSellPayoutRatio(t *testing.T) {
	cases := []struct {
		price, amount int
		want          int64
	}{
		{price: 4, amount: 3, want: 12}, // cheap items sell at face value
		{price: 5, amount: 2, want: 10},
		{price: 6, amount: 1, want: 1},  // 6/5 truncates
		{price: 15, amount: 4, want: 12},
		{price: 0, amount: 5, want: 1},  // payout never drops below 1
		{price: 7, amount: 0, want: 1},
	}
	for _, tc := range cases {
		if got := sellPayout(tc.price, tc.amount); got != tc.want {
			t.Fatalf("sellPayout(%d, %d) = %d, want %d", tc.price, tc.amount, got, tc.want)
		}
	}
}
