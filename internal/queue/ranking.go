package queue

import "slices"

// ahead reports whether a ranks strictly before b: higher priority first,
// then earlier arrival, then insertion order.
func ahead(a, b Entry) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	if a.EnteredAt != b.EnteredAt {
		return a.EnteredAt < b.EnteredAt
	}
	return a.seq < b.seq
}

// Rank returns the 1-based live position of target among entries. It is a
// pure function of the entry set; nothing about positions is cached.
func Rank(entries []Entry, target Entry) int {
	pos := 1
	for _, e := range entries {
		if e.TicketID == target.TicketID {
			continue
		}
		if ahead(e, target) {
			pos++
		}
	}
	return pos
}

// Order sorts entries into service order and fills in Position.
func Order(entries []Entry) []Entry {
	out := slices.Clone(entries)
	slices.SortStableFunc(out, func(a, b Entry) int {
		switch {
		case ahead(a, b):
			return -1
		case ahead(b, a):
			return 1
		default:
			return 0
		}
	})
	for i := range out {
		out[i].Position = i + 1
	}
	return out
}
