package classifier

import "sort"

// ClassSet is an immutable set of class labels.
type ClassSet struct {
	names map[string]struct{}
}

// NewClassSet builds a set from the given labels. Duplicates collapse.
func NewClassSet(names ...string) ClassSet {
	set := ClassSet{names: make(map[string]struct{}, len(names))}
	for _, name := range names {
		set.names[name] = struct{}{}
	}
	return set
}

// Contains reports whether label is a member of the set.
func (s ClassSet) Contains(label string) bool {
	_, ok := s.names[label]
	return ok
}

// Len returns the number of distinct labels.
func (s ClassSet) Len() int {
	return len(s.names)
}

// Names returns the labels in sorted order.
func (s ClassSet) Names() []string {
	out := make([]string, 0, len(s.names))
	for name := range s.names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
