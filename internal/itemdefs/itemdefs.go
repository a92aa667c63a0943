package itemdefs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Def is the intrinsic definition of one game item: the host registry's
// display name, base value and stack limit. Item id 0 is reserved as the
// "no item" sentinel and must not appear in a catalog.
type Def struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Value    int    `json:"value"`
	MaxStack int    `json:"max_stack"`
}

type Catalog struct {
	byID   map[int]Def
	byName map[string]int // lowercased exact name -> id
	ids    []int          // sorted
	digest string
}

func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var defs []Def
	if err := json.Unmarshal(raw, &defs); err != nil {
		return nil, fmt.Errorf("items catalog: %w", err)
	}
	c, err := New(defs)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(raw)
	c.digest = hex.EncodeToString(sum[:])
	return c, nil
}

func New(defs []Def) (*Catalog, error) {
	c := &Catalog{
		byID:   make(map[int]Def, len(defs)),
		byName: make(map[string]int, len(defs)),
	}
	for _, d := range defs {
		if d.ID == 0 {
			return nil, fmt.Errorf("item id 0 is reserved")
		}
		if d.Name == "" {
			return nil, fmt.Errorf("item %d: empty name", d.ID)
		}
		if _, dup := c.byID[d.ID]; dup {
			return nil, fmt.Errorf("duplicate item id %d", d.ID)
		}
		lower := strings.ToLower(d.Name)
		if _, dup := c.byName[lower]; dup {
			return nil, fmt.Errorf("duplicate item name %q", d.Name)
		}
		c.byID[d.ID] = d
		c.byName[lower] = d.ID
		c.ids = append(c.ids, d.ID)
	}
	sort.Ints(c.ids)
	b, _ := json.Marshal(defs)
	sum := sha256.Sum256(b)
	c.digest = hex.EncodeToString(sum[:])
	return c, nil
}

func (c *Catalog) Get(id int) (Def, bool) {
	d, ok := c.byID[id]
	return d, ok
}

// IDs returns every defined item id in ascending order.
func (c *Catalog) IDs() []int {
	out := make([]int, len(c.ids))
	copy(out, c.ids)
	return out
}

func (c *Catalog) Digest() string { return c.digest }

// AmbiguousError reports a name fragment matching more than one item.
type AmbiguousError struct {
	Ref     string
	Matches []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("%q matches multiple items: %s", e.Ref, strings.Join(e.Matches, ", "))
}

// NotFoundError reports a reference matching no defined item.
type NotFoundError struct {
	Ref string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no item matches %q", e.Ref)
}

// Resolve maps an item id or (partial) name to its definition. A numeric ref
// is treated as an id; otherwise an exact name match wins, then a unique
// case-insensitive substring match.
func (c *Catalog) Resolve(ref string) (Def, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Def{}, &NotFoundError{Ref: ref}
	}
	if id, err := strconv.Atoi(ref); err == nil {
		if d, ok := c.byID[id]; ok {
			return d, nil
		}
		return Def{}, &NotFoundError{Ref: ref}
	}
	lower := strings.ToLower(ref)
	if id, ok := c.byName[lower]; ok {
		return c.byID[id], nil
	}
	var matches []string
	matchID := 0
	for _, id := range c.ids {
		d := c.byID[id]
		if strings.Contains(strings.ToLower(d.Name), lower) {
			matches = append(matches, d.Name)
			matchID = id
		}
	}
	switch len(matches) {
	case 0:
		return Def{}, &NotFoundError{Ref: ref}
	case 1:
		return c.byID[matchID], nil
	default:
		return Def{}, &AmbiguousError{Ref: ref, Matches: matches}
	}
}
