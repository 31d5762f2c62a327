package model

import "strings"

// LinkSet is an insertion-ordered set of URLs.
//
// It is used as the seen set: the report links that a previous run already
// processed. The set is loaded from the store when a run starts and flushed
// back when it ends, so links added during a run are tracked as pending until
// MarkFlushed is called.
type LinkSet struct {
	order   []string
	index   map[string]struct{}
	pending []string
}

// NewLinkSet returns a set holding links. Initial links are not pending.
func NewLinkSet(links ...string) *LinkSet {
	s := &LinkSet{
		order: make([]string, 0, len(links)),
		index: make(map[string]struct{}, len(links)),
	}
	for _, l := range links {
		s.insert(l)
	}
	return s
}

// Add inserts link and reports whether it was new.
// Surrounding whitespace is ignored and empty links are rejected.
func (s *LinkSet) Add(link string) bool {
	link = strings.TrimSpace(link)
	if !s.insert(link) {
		return false
	}
	s.pending = append(s.pending, link)
	return true
}

func (s *LinkSet) insert(link string) bool {
	link = strings.TrimSpace(link)
	if link == "" {
		return false
	}
	if _, ok := s.index[link]; ok {
		return false
	}
	s.index[link] = struct{}{}
	s.order = append(s.order, link)
	return true
}

// Contains reports whether link is in the set.
func (s *LinkSet) Contains(link string) bool {
	_, ok := s.index[strings.TrimSpace(link)]
	return ok
}

// Len returns the number of links in the set.
func (s *LinkSet) Len() int {
	return len(s.order)
}

// Links returns a copy of the links in insertion order.
func (s *LinkSet) Links() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Pending returns the links added since the set was created or last flushed.
func (s *LinkSet) Pending() []string {
	out := make([]string, len(s.pending))
	copy(out, s.pending)
	return out
}

// MarkFlushed clears the pending list after the links were persisted.
func (s *LinkSet) MarkFlushed() {
	s.pending = nil
}
