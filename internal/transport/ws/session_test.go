package ws

import (
	"encoding/json"
	"testing"

	"servershop.gg/internal/itemdefs"
	"servershop.gg/internal/protocol"
)

func testSession(t *testing.T, slots int) *session {
	t.Helper()
	defs, err := itemdefs.New([]itemdefs.Def{
		{ID: 11, Name: "Healing Potion", Value: 15, MaxStack: 30},
		{ID: 15, Name: "Grappling Hook", Value: 120, MaxStack: 1},
	})
	if err != nil {
		t.Fatalf("defs: %v", err)
	}
	return newSession("alice", slots, defs, make(chan []byte, 64))
}

func drainSlots(t *testing.T, s *session) []protocol.SlotMsg {
	t.Helper()
	var out []protocol.SlotMsg
	for {
		select {
		case b := <-s.out:
			var m protocol.SlotMsg
			if err := json.Unmarshal(b, &m); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if m.Type != protocol.TypeSlot {
				t.Fatalf("type = %s", m.Type)
			}
			out = append(out, m)
		default:
			return out
		}
	}
}

func TestGiveTopsUpPartialStacksFirst(t *testing.T) {
	s := testSession(t, 5)
	s.slots[2] = slot{item: 11, count: 25}

	s.Give(11, 10)

	if s.slots[2] != (slot{item: 11, count: 30}) {
		t.Fatalf("slot 2 = %v", s.slots[2])
	}
	if s.slots[0] != (slot{item: 11, count: 5}) {
		t.Fatalf("slot 0 = %v", s.slots[0])
	}

	msgs := drainSlots(t, s)
	if len(msgs) != 2 {
		t.Fatalf("slot messages = %v", msgs)
	}
	if msgs[0].Slot != 2 || msgs[0].Count != 30 {
		t.Fatalf("msgs[0] = %+v", msgs[0])
	}
	if msgs[1].Slot != 0 || msgs[1].Count != 5 {
		t.Fatalf("msgs[1] = %+v", msgs[1])
	}
}

func TestGiveSingleStackItems(t *testing.T) {
	s := testSession(t, 3)
	s.Give(15, 2)

	want := []slot{{item: 15, count: 1}, {item: 15, count: 1}, {}}
	for i, w := range want {
		if s.slots[i] != w {
			t.Fatalf("slot %d = %v, want %v", i, s.slots[i], w)
		}
	}
}

func TestGiveDropsOverflow(t *testing.T) {
	s := testSession(t, 2)
	s.Give(11, 100)

	if s.slots[0].count != 30 || s.slots[1].count != 30 {
		t.Fatalf("slots = %v", s.slots)
	}
	if s.FreeSlot() {
		t.Fatalf("expected full inventory")
	}
}

func TestSetSlot(t *testing.T) {
	s := testSession(t, 3)
	s.SetSlot(1, 11, 4)
	if item, count := s.Slot(1); item != 11 || count != 4 {
		t.Fatalf("slot = %d,%d", item, count)
	}

	// Count zero clears the item id.
	s.SetSlot(1, 11, 0)
	if item, count := s.Slot(1); item != 0 || count != 0 {
		t.Fatalf("slot = %d,%d", item, count)
	}

	// Out-of-range writes and reads are ignored.
	s.SetSlot(99, 11, 1)
	if item, count := s.Slot(99); item != 0 || count != 0 {
		t.Fatalf("slot = %d,%d", item, count)
	}
}

func TestPushSlotDropsWhenClientIsBehind(t *testing.T) {
	defs, _ := itemdefs.New([]itemdefs.Def{{ID: 11, Name: "Healing Potion", Value: 15, MaxStack: 30}})
	s := newSession("alice", 1, defs, make(chan []byte)) // unbuffered, nobody reading
	s.SetSlot(0, 11, 1)                                  // must not block
	if item, _ := s.Slot(0); item != 11 {
		t.Fatalf("slot not set")
	}
}
