package database

import (
	"strings"
	"sync"
)

// Collection is a filterable view over a Database. The restricted items are
// the ones matching the current filter text.
type Collection struct {
	db *Database

	mu     sync.RWMutex
	filter string

	listeners listeners
	unsub     func()
}

// NewCollection follows db: every LoadData fires the items-changed event.
func NewCollection(db *Database) *Collection {
	c := &Collection{db: db}
	c.unsub = db.OnChange(c.listeners.fire)
	return c
}

func (c *Collection) Database() *Database { return c.db }

// SetFilter restricts the collection to items whose label, type or any
// property value contains text (case-insensitive). Empty text clears it.
func (c *Collection) SetFilter(text string) {
	text = strings.ToLower(strings.TrimSpace(text))
	c.mu.Lock()
	changed := c.filter != text
	c.filter = text
	c.mu.Unlock()
	if changed {
		c.listeners.fire()
	}
}

func (c *Collection) Filter() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.filter
}

func (c *Collection) matches(id, filter string) bool {
	if filter == "" {
		return true
	}
	it, ok := c.db.Item(id)
	if !ok {
		return false
	}
	if strings.Contains(strings.ToLower(it.Label), filter) || strings.Contains(strings.ToLower(it.Type), filter) {
		return true
	}
	for _, vals := range it.Props {
		for _, v := range vals {
			if strings.Contains(strings.ToLower(v), filter) {
				return true
			}
		}
	}
	return false
}

// VisitRestricted calls fn for every restricted item in load order.
func (c *Collection) VisitRestricted(fn func(id string)) {
	filter := c.Filter()
	for _, id := range c.db.IDs() {
		if c.matches(id, filter) {
			fn(id)
		}
	}
}

func (c *Collection) CountRestricted() int {
	n := 0
	c.VisitRestricted(func(string) { n++ })
	return n
}

// OnItemsChanged registers fn for data loads and filter changes.
func (c *Collection) OnItemsChanged(fn func()) func() {
	return c.listeners.add(fn)
}

// Dispose detaches the collection from its database.
func (c *Collection) Dispose() {
	if c.unsub != nil {
		c.unsub()
		c.unsub = nil
	}
}
