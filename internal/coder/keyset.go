package coder

import "sort"

// KeySet is an unordered set of keys.
type KeySet map[string]struct{}

func NewKeySet(keys ...string) KeySet {
	s := make(KeySet, len(keys))
	for _, k := range keys {
		s.Add(k)
	}
	return s
}

func (s KeySet) Add(k string) { s[k] = struct{}{} }

func (s KeySet) AddSet(o KeySet) {
	for k := range o {
		s[k] = struct{}{}
	}
}

func (s KeySet) Has(k string) bool {
	_, ok := s[k]
	return ok
}

func (s KeySet) Len() int { return len(s) }

func (s KeySet) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Flags records, for one visual channel across one plotting pass, whether any
// key set mixed several values, had no key, or used an unknown key. Keys
// collects every known key that was translated.
type Flags struct {
	Mixed   bool
	Missing bool
	Others  bool
	Keys    KeySet
}

func NewFlags() *Flags {
	return &Flags{Keys: NewKeySet()}
}
