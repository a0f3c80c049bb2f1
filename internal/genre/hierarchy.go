package genre

import (
	"sort"
	"strings"
)

// Hierarchy describes a genre's place in the genre graph.
type Hierarchy struct {
	Genre    string   `json:"genre"`
	Parents  []string `json:"parents"`
	Children []string `json:"children"`
	Siblings []string `json:"siblings"`
}

// HierarchyOf infers a genre's parents, children, and siblings from two
// signals: explicit subgenre listings in the genre data, and compound-name
// parsing ("folk rock" has parents folk and rock).
func (m *Mapper) HierarchyOf(name string) Hierarchy {
	h := Hierarchy{
		Genre:    name,
		Parents:  []string{},
		Children: []string{},
		Siblings: []string{},
	}
	lower := strings.ToLower(name)

	// Explicit listings: g lists name as a subgenre -> g is a parent;
	// name's own subgenre list -> children.
	for _, g := range m.genres {
		for _, sub := range g.Subgenres {
			if strings.EqualFold(sub, name) {
				h.Parents = appendIfMissing(h.Parents, g.Name)
			}
		}
		if strings.EqualFold(g.Name, name) {
			for _, sub := range g.Subgenres {
				h.Children = appendIfMissing(h.Children, sub)
			}
		}
	}

	// Compound names: each word that is itself a known genre is a parent.
	words := strings.Fields(lower)
	if len(words) > 1 {
		for _, word := range words {
			if g := m.lookup(word); g != nil {
				h.Parents = appendIfMissing(h.Parents, g.Name)
			}
		}
	}

	// Siblings share a parent.
	for _, parent := range h.Parents {
		if g := m.lookup(parent); g != nil {
			for _, sub := range g.Subgenres {
				if !strings.EqualFold(sub, name) {
					h.Siblings = appendIfMissing(h.Siblings, sub)
				}
			}
		}
		// Other compounds sharing a parent word are siblings too.
		for _, other := range m.genres {
			if strings.EqualFold(other.Name, name) {
				continue
			}
			otherWords := strings.Fields(strings.ToLower(other.Name))
			if len(otherWords) > 1 && containsWord(otherWords, strings.ToLower(parent)) {
				h.Siblings = appendIfMissing(h.Siblings, other.Name)
			}
		}
	}

	sort.Strings(h.Siblings)
	return h
}

// parentsOf returns just the parent names; used by hierarchical scoring.
func (m *Mapper) parentsOf(name string) []string {
	var parents []string
	for _, g := range m.genres {
		for _, sub := range g.Subgenres {
			if strings.EqualFold(sub, name) {
				parents = appendIfMissing(parents, g.Name)
			}
		}
	}
	words := strings.Fields(strings.ToLower(name))
	if len(words) > 1 {
		for _, word := range words {
			if g := m.lookup(word); g != nil {
				parents = appendIfMissing(parents, g.Name)
			}
		}
	}
	return parents
}

func appendIfMissing(ss []string, s string) []string {
	for _, existing := range ss {
		if strings.EqualFold(existing, s) {
			return ss
		}
	}
	return append(ss, s)
}

func containsWord(words []string, w string) bool {
	for _, word := range words {
		if word == w {
			return true
		}
	}
	return false
}
