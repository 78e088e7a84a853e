package main

import "github.com/alexisbeaulieu97/dagflow/internal/id"

// generateCorrelationID mints a fresh id for tying one CLI invocation's log
// entries together.
func generateCorrelationID() string {
	return id.New().String()
}
