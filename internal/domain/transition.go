package domain

import "time"

// Transition records a change of a site's status between two consecutive
// checks. The first check on a fresh site (unknown -> up/down) counts.
type Transition struct {
	Site     Site
	From     Status
	To       Status
	Result   CheckResult
	Downtime time.Duration // recovery only: time since the DOWN episode began
}

// Recovered reports whether this transition ended a DOWN episode.
func (t Transition) Recovered() bool {
	return t.From == StatusDown && t.To == StatusUp
}
