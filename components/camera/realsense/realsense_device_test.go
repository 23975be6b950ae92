//go:build realsense

package realsense

import (
	"context"
	"testing"

	"go.viam.com/test"

	"go.viam.com/depthcapture/logging"
)

func TestFrameMetadata(t *testing.T) {
	devices, err := QueryDevices()
	test.That(t, err, test.ShouldBeNil)
	if len(devices) == 0 {
		t.Skip("no RealSense device connected")
	}

	ctx := context.Background()
	cam, err := NewCamera(ctx, &Config{Serial: devices[0].Serial}, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	defer func() {
		test.That(t, cam.Close(ctx), test.ShouldBeNil)
	}()
	test.That(t, cam.Start(ctx), test.ShouldBeNil)

	first, err := cam.WaitForFrames(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, first.CheckValid(), test.ShouldBeNil)
	test.That(t, first.Timestamp.IsZero(), test.ShouldBeFalse)

	second, err := cam.WaitForFrames(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, second.Sequence, test.ShouldBeGreaterThan, first.Sequence)
	test.That(t, second.Timestamp.Before(first.Timestamp), test.ShouldBeFalse)
}
