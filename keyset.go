package wxkey

// KeySet is a set of candidate keys that remembers discovery order.
type KeySet struct {
	keys []string
	seen map[string]struct{}
}

func NewKeySet() *KeySet {
	return &KeySet{seen: map[string]struct{}{}}
}

// Add inserts key and reports whether it was not present yet.
func (s *KeySet) Add(key string) bool {
	if _, ok := s.seen[key]; ok {
		return false
	}
	s.seen[key] = struct{}{}
	s.keys = append(s.keys, key)
	return true
}

func (s *KeySet) Len() int {
	return len(s.keys)
}

// Keys returns a copy of the keys in discovery order.
func (s *KeySet) Keys() []string {
	return append([]string(nil), s.keys...)
}
