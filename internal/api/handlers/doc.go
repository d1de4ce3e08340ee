// Package handlers implements the HTTP handlers for the budget notifier's
// push server: Pub/Sub push delivery, throttle state inspection and probes.
package handlers

// StatusResponse is the probe response body.
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
	// Failed names the readiness checks that did not respond.
	Failed []string `json:"failed,omitempty"`
}
