// ABOUTME: Output that discards audio
// ABOUTME: Used for headless runs and tests; counts the samples it receives
package output

import "sync"

// Null is an Output that drops samples
type Null struct {
	mu         sync.Mutex
	sampleRate int
	channels   int
	open       bool
	written    int64
	peak       int32
}

// NewNull creates a discarding output
func NewNull() *Null {
	return &Null{}
}

// Open records the format
func (n *Null) Open(sampleRate, channels int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sampleRate = sampleRate
	n.channels = channels
	n.open = true
	return nil
}

// Write discards samples
func (n *Null) Write(samples []int32) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.open {
		return ErrNotOpen
	}
	n.written += int64(len(samples))
	for _, s := range samples {
		if s < 0 {
			s = -s
		}
		if s > n.peak {
			n.peak = s
		}
	}
	return nil
}

// Close marks the output closed
func (n *Null) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.open = false
	return nil
}

// Written returns the total number of samples received
func (n *Null) Written() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.written
}

// Peak returns the largest absolute sample seen
func (n *Null) Peak() int32 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.peak
}
