// Package capture exports depth frames as point files and color images when triggered.
package capture

import "sync/atomic"

// Trigger is a latch that requests one export. Pressing it again before it is cleared does
// nothing; releasing the button that pressed it does not cancel it.
type Trigger struct {
	pending atomic.Bool
}

// Press requests an export.
func (t *Trigger) Press() {
	t.pending.Store(true)
}

// Pending reports whether an export was requested.
func (t *Trigger) Pending() bool {
	return t.pending.Load()
}

// Clear resets the trigger after an export.
func (t *Trigger) Clear() {
	t.pending.Store(false)
}
