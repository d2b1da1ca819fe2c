// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package publisher

import "regexp"

// Status is a pattern rule's verdict for one page.
type Status int

const (
	NotTriggered Status = iota
	Positive
	Neutral
	Negative
)

func (s Status) String() string {
	switch s {
	case Positive:
		return "POSITIVE"
	case Neutral:
		return "NEUTRAL"
	case Negative:
		return "NEGATIVE"
	default:
		return "NOT_TRIGGERED"
	}
}

// Rule evaluates a page's text and reports a Status.
type Rule interface {
	Evaluate(pageText string) Status
}

// Standalone triggers its status when its pattern occurs anywhere in the
// page text, case-insensitively.
type Standalone struct {
	re        *regexp.Regexp
	onTrigger Status
}

// NewStandalone compiles pattern as a case-insensitive regular expression.
func NewStandalone(pattern string, onTrigger Status) Standalone {
	return Standalone{
		re:        regexp.MustCompile("(?i)" + pattern),
		onTrigger: onTrigger,
	}
}

// Evaluate reports the rule's status for the page.
func (s Standalone) Evaluate(pageText string) Status {
	if s.re.MatchString(pageText) {
		return s.onTrigger
	}
	return NotTriggered
}

// DominantPair couples two rules: the leader's status, whenever it
// triggers at all, wins over the follower's.
type DominantPair struct {
	Leader   Standalone
	Follower Standalone
}

// Evaluate reports the pair's combined status.
func (d DominantPair) Evaluate(pageText string) Status {
	if leader := d.Leader.Evaluate(pageText); leader != NotTriggered {
		return leader
	}
	return d.Follower.Evaluate(pageText)
}

// genericRules is the heuristic rule set applied to unknown publishers'
// pages. "Open Access" dominating "Get Access" handles pages that offer
// both wordings at once.
var genericRules = []Rule{
	NewStandalone(`\bdownload\b`, Neutral),
	NewStandalone(`PDF`, Neutral),
	NewStandalone(`only available via PDF`, Negative),
	NewStandalone(`PDF is available to Subscribers`, Negative),
	NewStandalone(`Institutional Access`, Negative),
	DominantPair{
		Leader:   NewStandalone(`Open Access`, Positive),
		Follower: NewStandalone(`Get Access`, Negative),
	},
}

// verdict aggregates rule statuses: at least one trigger and no negative
// means the page is judged speculatively downloadable. The aggregation
// is order-insensitive; only the dominant pair orders its two members.
// Whether one negative should dismiss the verdict outright, as it does
// here, is a tunable policy.
func verdict(statuses []Status) bool {
	triggered := false
	for _, s := range statuses {
		if s == Negative {
			return false
		}
		if s != NotTriggered {
			triggered = true
		}
	}
	return triggered
}
