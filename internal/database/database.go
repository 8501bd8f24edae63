package database

import (
	"fmt"
	"net/url"
	"sort"
	"sync"
)

// Item is one record. ID, Label and Type are also readable as the "id",
// "label" and "type" properties.
type Item struct {
	ID    string
	Label string
	Type  string
	Props map[string][]string
}

// Property describes how values of a property are interpreted.
type Property struct {
	ValueType string `json:"valueType"` // text, number, url, item
}

// Payload is one batch of data handed to LoadData.
type Payload struct {
	Items      []Item
	Properties map[string]Property
}

// Database is an in-memory item store. It is safe for concurrent reads;
// change listeners run on the goroutine that called LoadData.
type Database struct {
	mu    sync.RWMutex
	items map[string]*Item
	order []string
	props map[string]Property

	listeners listeners
}

func New() *Database {
	return &Database{
		items: make(map[string]*Item),
		props: make(map[string]Property),
	}
}

// LoadData merges p into the database. Items are merged by id: property
// values are unioned keeping first-seen order. Values of url-typed properties
// are resolved against baseURL when it is set. Items without an id are
// skipped and reported in the returned error; the rest are still merged.
func (db *Database) LoadData(p Payload, baseURL string) error {
	var base *url.URL
	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return err
		}
		base = u
	}
	db.mu.Lock()
	for name, prop := range p.Properties {
		db.props[name] = prop
	}
	var skipped int
	for _, in := range p.Items {
		if in.ID == "" {
			skipped++
			continue
		}
		cur, ok := db.items[in.ID]
		if !ok {
			cur = &Item{ID: in.ID, Props: make(map[string][]string)}
			db.items[in.ID] = cur
			db.order = append(db.order, in.ID)
		}
		if in.Label != "" {
			cur.Label = in.Label
		}
		if in.Type != "" {
			cur.Type = in.Type
		}
		for name, vals := range in.Props {
			isURL := db.props[name].ValueType == "url"
			for _, v := range vals {
				if isURL && base != nil {
					v = resolve(base, v)
				}
				cur.Props[name] = appendUnique(cur.Props[name], v)
			}
		}
		if cur.Label == "" {
			cur.Label = cur.ID
		}
	}
	db.mu.Unlock()

	db.listeners.fire()
	if skipped > 0 {
		return fmt.Errorf("database: %d items without id were skipped", skipped)
	}
	return nil
}

func resolve(base *url.URL, v string) string {
	ref, err := url.Parse(v)
	if err != nil {
		return v
	}
	return base.ResolveReference(ref).String()
}

func appendUnique(vals []string, v string) []string {
	for _, x := range vals {
		if x == v {
			return vals
		}
	}
	return append(vals, v)
}

// Item returns a copy of the stored item.
func (db *Database) Item(id string) (Item, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	it, ok := db.items[id]
	if !ok {
		return Item{}, false
	}
	cp := Item{ID: it.ID, Label: it.Label, Type: it.Type, Props: make(map[string][]string, len(it.Props))}
	for k, v := range it.Props {
		cp.Props[k] = append([]string(nil), v...)
	}
	return cp, true
}

// IDs returns item ids in load order.
func (db *Database) IDs() []string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return append([]string(nil), db.order...)
}

func (db *Database) Size() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.order)
}

// OnChange registers fn to run after every LoadData. The returned func
// unregisters it.
func (db *Database) OnChange(fn func()) func() {
	return db.listeners.add(fn)
}

// values returns the values of prop on item id. Caller holds mu.
func (db *Database) values(id, prop string) []string {
	it, ok := db.items[id]
	if !ok {
		return nil
	}
	switch prop {
	case "id":
		return []string{it.ID}
	case "label":
		return []string{it.Label}
	case "type":
		if it.Type == "" {
			return nil
		}
		return []string{it.Type}
	}
	return it.Props[prop]
}

// subjects returns the ids of items whose prop holds value. Caller holds mu.
func (db *Database) subjects(value, prop string) []string {
	var out []string
	for _, id := range db.order {
		for _, v := range db.values(id, prop) {
			if v == value {
				out = append(out, id)
				break
			}
		}
	}
	return out
}

// Evaluate runs e starting from item id and returns the distinct resulting
// values in discovery order.
func (db *Database) Evaluate(id string, e Expression) []string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	cur := []string{id}
	for _, step := range e.Steps {
		var next []string
		seen := make(map[string]struct{})
		for _, v := range cur {
			var vals []string
			if step.Forward {
				vals = db.values(v, step.Property)
			} else {
				vals = db.subjects(v, step.Property)
			}
			for _, x := range vals {
				if _, ok := seen[x]; ok {
					continue
				}
				seen[x] = struct{}{}
				next = append(next, x)
			}
		}
		cur = next
		if len(cur) == 0 {
			break
		}
	}
	return cur
}

type listeners struct {
	mu   sync.Mutex
	next int
	fns  map[int]func()
}

func (l *listeners) add(fn func()) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fns == nil {
		l.fns = make(map[int]func())
	}
	id := l.next
	l.next++
	l.fns[id] = fn
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.fns, id)
	}
}

func (l *listeners) fire() {
	l.mu.Lock()
	ids := make([]int, 0, len(l.fns))
	for id := range l.fns {
		ids = append(ids, id)
	}
	l.mu.Unlock()
	sort.Ints(ids)
	for _, id := range ids {
		l.mu.Lock()
		fn, ok := l.fns[id]
		l.mu.Unlock()
		if ok {
			fn()
		}
	}
}
