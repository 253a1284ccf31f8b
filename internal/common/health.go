package common

import "sync"

// DefaultLivenessThreshold is the number of consecutive request errors
// after which the service reports itself as not alive.
const DefaultLivenessThreshold = 3

// ErrorCounter tracks consecutive request failures for the liveness probe.
// A success resets the count.
type ErrorCounter struct {
	mu        sync.Mutex
	count     int
	threshold int
}

// NewErrorCounter creates a counter that trips at threshold consecutive errors.
func NewErrorCounter(threshold int) *ErrorCounter {
	if threshold <= 0 {
		threshold = DefaultLivenessThreshold
	}
	return &ErrorCounter{threshold: threshold}
}

// Failure records an error.
func (c *ErrorCounter) Failure() {
	c.mu.Lock()
	c.count++
	c.mu.Unlock()
}

// Success resets the consecutive error count.
func (c *ErrorCounter) Success() {
	c.mu.Lock()
	c.count = 0
	c.mu.Unlock()
}

// Consecutive returns the current consecutive error count.
func (c *ErrorCounter) Consecutive() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// Alive reports whether fewer than threshold consecutive errors have occurred.
func (c *ErrorCounter) Alive() bool {
	return c.Consecutive() < c.threshold
}
