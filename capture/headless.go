package capture

import (
	"context"
	"errors"
	"sync"

	"go.viam.com/utils"

	"go.viam.com/depthcapture/components/camera"
	"go.viam.com/depthcapture/logging"
)

// HeadlessOptions control when a windowless loop exports and when it stops.
type HeadlessOptions struct {
	// CaptureEvery presses the trigger on every CaptureEvery-th frame; zero disables it.
	CaptureEvery int
	// MaxCaptures stops the loop after this many exports; zero means run until cancelled.
	MaxCaptures int
}

// RunHeadless runs the frame loop without a window. The trigger is pressed by SIGQUIT (when the
// context carries the quit signal from utils.ContextualMain) or by the CaptureEvery schedule.
// It returns nil when ctx is cancelled or MaxCaptures exports are done.
func RunHeadless(ctx context.Context, dev camera.Device, s *Session, opts HeadlessOptions, logger logging.Logger) error {
	if quitC := utils.ContextMainQuitSignal(ctx); quitC != nil {
		quitCtx, cancel := context.WithCancel(ctx)
		var wg sync.WaitGroup
		wg.Add(1)
		defer wg.Wait()
		defer cancel()
		utils.PanicCapturingGo(func() {
			defer wg.Done()
			for {
				select {
				case <-quitCtx.Done():
					return
				case <-quitC:
					logger.Info("capture requested")
					s.Trigger.Press()
				}
			}
		})
	}

	exports := 0
	for frames := 0; ; frames++ {
		fs, err := dev.WaitForFrames(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				return nil
			}
			return err
		}
		if opts.CaptureEvery > 0 && frames%opts.CaptureEvery == 0 {
			s.Trigger.Press()
		}
		_, exported, err := s.Step(ctx, fs)
		if err != nil {
			return err
		}
		if exported {
			exports++
			if opts.MaxCaptures > 0 && exports >= opts.MaxCaptures {
				return nil
			}
		}
	}
}
