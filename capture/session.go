package capture

import (
	"context"

	"go.viam.com/depthcapture/components/camera"
)

// Session carries the capture state through a frame loop: the trigger and the number of the next
// export. The number starts at the configured index and grows by one per completed export.
type Session struct {
	Trigger  Trigger
	Exporter *Exporter

	next uint64
}

// NewSession returns a session whose first export is numbered startIndex.
func NewSession(exporter *Exporter, startIndex uint64) *Session {
	return &Session{Exporter: exporter, next: startIndex}
}

// Next is the number the next export will use.
func (s *Session) Next() uint64 {
	return s.next
}

// Step exports fs if the trigger is pending. On success the trigger is cleared and the number
// advances. exported is false when nothing was pending.
func (s *Session) Step(ctx context.Context, fs *camera.FrameSet) (a Artifacts, exported bool, err error) {
	if !s.Trigger.Pending() {
		return Artifacts{}, false, nil
	}
	a, err = s.Exporter.Export(ctx, s.next, fs)
	if err != nil {
		return a, false, err
	}
	s.Trigger.Clear()
	s.next++
	return a, true, nil
}
