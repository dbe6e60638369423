package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRankPriorityThenArrival(t *testing.T) {
	entries := []Entry{
		{TicketID: "T1", Priority: 5, EnteredAt: 1, seq: 1},
		{TicketID: "T2", Priority: 8, EnteredAt: 2, seq: 2},
		{TicketID: "T3", Priority: 5, EnteredAt: 3, seq: 3},
	}

	assert.Equal(t, 2, Rank(entries, entries[0]))
	assert.Equal(t, 1, Rank(entries, entries[1]))
	assert.Equal(t, 3, Rank(entries, entries[2]))
}

func TestRankTieOnTimestampUsesSequence(t *testing.T) {
	entries := []Entry{
		{TicketID: "late", Priority: 1, EnteredAt: 10, seq: 2},
		{TicketID: "early", Priority: 1, EnteredAt: 10, seq: 1},
	}

	assert.Equal(t, 1, Rank(entries, entries[1]))
	assert.Equal(t, 2, Rank(entries, entries[0]))
}

func TestOrderFillsPositions(t *testing.T) {
	in := []Entry{
		{TicketID: "c", Priority: 1, EnteredAt: 1, seq: 1},
		{TicketID: "a", Priority: 9, EnteredAt: 3, seq: 3},
		{TicketID: "b", Priority: 1, EnteredAt: 2, seq: 2},
	}

	out := Order(in)
	got := []string{out[0].TicketID, out[1].TicketID, out[2].TicketID}
	assert.Equal(t, []string{"a", "c", "b"}, got)
	for i, e := range out {
		assert.Equal(t, i+1, e.Position)
		assert.Equal(t, Rank(in, e), e.Position)
	}
	assert.Equal(t, 0, in[0].Position, "input must not be mutated")
}
