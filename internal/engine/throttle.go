package engine

import (
	domain "github.com/donaldgifford/gcp-budget-notifier/pkg/types"
)

// Decide reports whether alert is new information given the prior throttle
// state, and returns the state to persist if it is.
//
// A different cost interval means the billing period rolled over, so the
// working state restarts at threshold -1 for the new interval. Within an
// interval only a strictly higher threshold notifies; ties are repeats.
// Interval comparison is exact (same instant) with no tolerance.
func Decide(alert *domain.AlertEvent, prior domain.AlertState) (bool, domain.AlertState) {
	working := prior

	if !alert.CostIntervalStart.Equal(prior.LastInterval) {
		working = domain.AlertState{
			LastInterval:  alert.CostIntervalStart,
			LastThreshold: -1,
		}
	}

	threshold := alert.Threshold()
	if threshold <= working.LastThreshold {
		return false, working
	}

	working.LastThreshold = threshold

	return true, working
}
