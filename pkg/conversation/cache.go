// Package conversation keeps the participants of the last skipped dialogue so
// it can be reopened later.
package conversation

import "github.com/jwebster45206/fast-dialogue/pkg/host"

// Cache holds references to host-owned participants. The most recent
// capture wins. It is not safe for concurrent use.
type Cache struct {
	players  []host.Participant
	others   []host.Participant
	first    host.Participant
	captured bool
}

// Capture overwrites the held participants unconditionally.
func (c *Cache) Capture(players, others []host.Participant, first host.Participant) {
	c.players = players
	c.others = others
	c.first = first
	c.captured = true
}

// Current returns the participants as held, without checking that a
// capture happened.
func (c *Cache) Current() (players, others []host.Participant, first host.Participant) {
	return c.players, c.others, c.first
}

func (c *Cache) Captured() bool {
	return c.captured
}
