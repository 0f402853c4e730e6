package domain

import "strings"

// Status is the lifecycle state shared by referrals and rewards.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

// AllStatuses lists every known status in lifecycle order.
var AllStatuses = []Status{StatusPending, StatusApproved, StatusPaid, StatusCancelled}

// ParseStatus returns the Status for s or ErrInvalidStatus.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllStatuses {
		if st == known {
			return st, nil
		}
	}
	return "", ErrInvalidStatus
}

// TransitionPolicy decides which referral status changes are legal.
type TransitionPolicy interface {
	Allowed(from, to Status) bool
	// SourcesFor returns every status a referral may currently hold to move into to.
	SourcesFor(to Status) []Status
}

// StrictTransitions is the referral lifecycle:
// pending -> approved | cancelled, approved -> paid. paid and cancelled are final.
var StrictTransitions TransitionPolicy = transitionTable{
	StatusPending:  {StatusApproved, StatusCancelled},
	StatusApproved: {StatusPaid},
}

// OverrideTransitions accepts any change of status, mirroring administrative
// overrides. Re-applying the current status is still rejected so an approval
// can never be issued twice for the same referral.
var OverrideTransitions TransitionPolicy = overridePolicy{}

type transitionTable map[Status][]Status

func (t transitionTable) Allowed(from, to Status) bool {
	for _, next := range t[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (t transitionTable) SourcesFor(to Status) []Status {
	var sources []Status
	for _, from := range AllStatuses {
		if t.Allowed(from, to) {
			sources = append(sources, from)
		}
	}
	return sources
}

type overridePolicy struct{}

func (overridePolicy) Allowed(from, to Status) bool {
	return from != to
}

func (overridePolicy) SourcesFor(to Status) []Status {
	sources := make([]Status, 0, len(AllStatuses)-1)
	for _, from := range AllStatuses {
		if from != to {
			sources = append(sources, from)
		}
	}
	return sources
}
