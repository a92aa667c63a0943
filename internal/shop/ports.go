package shop

// Field names one persisted Inventory column.
type Field string

const (
	FieldPrice       Field = "Price"
	FieldStock       Field = "Stock"
	FieldMaxStock    Field = "MaxStock"
	FieldRestockTime Field = "RestockTime"
	FieldRestockType Field = "RestockType"
)

// Store is the durable row storage behind the in-memory table. All writes are
// blocking single attempts; the engine never retries and never rolls back an
// in-memory mutation when a write fails.
type Store interface {
	LoadItems() ([]Item, error)
	LoadRegions() ([]string, error)
	InsertItem(Item) error
	UpdateField(id int, field Field, value int) error
	InsertRegion(name string) error
	DeleteRegion(name string) error
}

// Ledger is the external currency account service. Transfer is atomic: when
// it returns an error, no balance has moved.
type Ledger interface {
	Balance(account string) (int64, error)
	Transfer(src, dst string, amount int64, memo string) error
}

// Actor is a player as the host exposes one to the engine: a position for the
// zone gate and a slot-indexed item inventory.
type Actor interface {
	Name() string
	Position() (x, y int)
	// FreeSlot reports whether at least one empty inventory slot remains.
	FreeSlot() bool
	SlotCount() int
	// Slot returns the item id and count held at index i (0, 0 when empty).
	Slot(i int) (item, count int)
	// SetSlot overwrites slot i and notifies the host's world representation.
	SetSlot(i, item, count int)
	// Give grants count units of one item; callers keep count within one stack.
	Give(item, count int)
}

// AuditEntry is one line of the operational audit trail.
type AuditEntry struct {
	Time   string `json:"time"`
	Op     string `json:"op"`
	Actor  string `json:"actor,omitempty"`
	ItemID int    `json:"item_id,omitempty"`
	Item   string `json:"item,omitempty"`
	Amount int    `json:"amount,omitempty"`
	Price  int64  `json:"price,omitempty"`
	Stock  int    `json:"stock,omitempty"`
	Detail string `json:"detail,omitempty"`
}

type Auditor interface {
	Record(AuditEntry) error
}
