package memtransport

import (
	"github.com/distlab/courier/comm"
)

// Builder can help building fabrics.
type Builder struct {
	ranks []comm.Rank
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{}
}

// WithRanks sets the exact ranks the fabric connects.
func (b Builder) WithRanks(ranks []comm.Rank) Builder {
	b.ranks = append([]comm.Rank(nil), ranks...)
	return b
}

// WithRankCount connects ranks 0 through n-1.
func (b Builder) WithRankCount(n int) Builder {
	b.ranks = make([]comm.Rank, n)
	for i := range b.ranks {
		b.ranks[i] = comm.Rank(i)
	}

	return b
}

// Build creates the fabric.
func (b Builder) Build(name string) *Comp {
	comm.NameMustBeValid(name)

	if len(b.ranks) == 0 {
		panic("fabric " + name + " built without ranks")
	}

	c := &Comp{
		name:      name,
		mailboxes: make(map[comm.Rank]*comm.Mailbox, len(b.ranks)),
	}

	for _, r := range b.ranks {
		c.mailboxes[r] = comm.NewMailbox()
	}

	return c
}
