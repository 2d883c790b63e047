package models

// ActorSet is an insertion-ordered collection with uniqueness enforced by the
// actor URL. The scroll loop owns exactly one instance; records are never
// mutated after Add.
type ActorSet struct {
	seen  map[string]struct{}
	items []*Actor
}

// NewActorSet returns an empty set.
func NewActorSet() *ActorSet {
	return &ActorSet{seen: make(map[string]struct{})}
}

// Add inserts the actor unless its URL was seen before. It reports whether
// the actor was stored; the first record for a URL always wins.
func (s *ActorSet) Add(a *Actor) bool {
	if a == nil || a.URL == "" {
		return false
	}
	if _, ok := s.seen[a.URL]; ok {
		return false
	}
	s.seen[a.URL] = struct{}{}
	s.items = append(s.items, a)
	return true
}

// Has reports whether a record with the given URL is already stored.
func (s *ActorSet) Has(url string) bool {
	_, ok := s.seen[url]
	return ok
}

// Len returns the number of stored records.
func (s *ActorSet) Len() int {
	return len(s.items)
}

// All returns the records in insertion order. The slice is a copy; the
// records themselves are shared and treated as immutable.
func (s *ActorSet) All() []*Actor {
	out := make([]*Actor, len(s.items))
	copy(out, s.items)
	return out
}
