package domain

import "slices"

// History is the ordered list of nodes currently considered done. Each node appears at most once.
type History []string

// Contains reports whether node is in the history.
func (h History) Contains(node string) bool {
	return slices.Contains(h, node)
}

// Append adds node to the end unless already present. It reports whether it was added.
func (h *History) Append(node string) bool {
	if h.Contains(node) {
		return false
	}
	*h = append(*h, node)
	return true
}

// Remove deletes every node in the set, preserving the relative order of the remainder.
// It returns the nodes actually removed, in their former order.
func (h *History) Remove(nodes map[string]struct{}) []string {
	if len(nodes) == 0 {
		return nil
	}
	var removed []string
	kept := (*h)[:0]
	for _, n := range *h {
		if _, drop := nodes[n]; drop {
			removed = append(removed, n)
			continue
		}
		kept = append(kept, n)
	}
	*h = kept
	return removed
}

// Clone returns an independent copy.
func (h History) Clone() History {
	if h == nil {
		return History{}
	}
	return slices.Clone(h)
}
