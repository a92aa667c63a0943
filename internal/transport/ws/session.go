package ws

import (
	"encoding/json"
	"sync"

	"servershop.gg/internal/itemdefs"
	"servershop.gg/internal/protocol"
)

type slot struct {
	item  int
	count int
}

// session is one connected player. It implements shop.Actor: the engine reads
// position and slots through it and pushes slot changes back out as SLOT
// messages.
type session struct {
	name string
	out  chan []byte
	defs *itemdefs.Catalog

	mu    sync.Mutex
	x, y  int
	slots []slot
}

func newSession(name string, slots int, defs *itemdefs.Catalog, out chan []byte) *session {
	return &session{
		name:  name,
		out:   out,
		defs:  defs,
		slots: make([]slot, slots),
	}
}

func (s *session) Name() string { return s.name }

func (s *session) Position() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.x, s.y
}

func (s *session) setPosition(x, y int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.x, s.y = x, y
}

func (s *session) FreeSlot() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sl := range s.slots {
		if sl.count == 0 {
			return true
		}
	}
	return false
}

func (s *session) SlotCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}

func (s *session) Slot(i int) (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.slots) {
		return 0, 0
	}
	return s.slots[i].item, s.slots[i].count
}

func (s *session) SetSlot(i, item, count int) {
	s.mu.Lock()
	if i < 0 || i >= len(s.slots) {
		s.mu.Unlock()
		return
	}
	if count == 0 {
		item = 0
	}
	s.slots[i] = slot{item: item, count: count}
	s.mu.Unlock()
	s.pushSlot(i, item, count)
}

// Give stacks the grant onto existing partial stacks of the same item first,
// then into empty slots. Anything that still does not fit is dropped, as the
// host world would spill it on the ground.
func (s *session) Give(item, count int) {
	max := 1
	if d, ok := s.defs.Get(item); ok && d.MaxStack > 0 {
		max = d.MaxStack
	}

	type change struct{ idx, item, count int }
	var changes []change

	s.mu.Lock()
	for i := range s.slots {
		if count == 0 {
			break
		}
		if s.slots[i].item == item && s.slots[i].count > 0 && s.slots[i].count < max {
			room := max - s.slots[i].count
			n := count
			if n > room {
				n = room
			}
			s.slots[i].count += n
			count -= n
			changes = append(changes, change{i, item, s.slots[i].count})
		}
	}
	for i := range s.slots {
		if count == 0 {
			break
		}
		if s.slots[i].count == 0 {
			n := count
			if n > max {
				n = max
			}
			s.slots[i] = slot{item: item, count: n}
			count -= n
			changes = append(changes, change{i, item, n})
		}
	}
	s.mu.Unlock()

	for _, c := range changes {
		s.pushSlot(c.idx, c.item, c.count)
	}
}

func (s *session) pushSlot(i, item, count int) {
	msg := protocol.SlotMsg{
		Type:            protocol.TypeSlot,
		ProtocolVersion: protocol.Version,
		Slot:            i,
		Item:            item,
		Count:           count,
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case s.out <- b:
	default:
		// Drop if the client falls behind; the next full query resyncs.
	}
}
