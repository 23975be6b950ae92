// Package register registers all camera models.
package register

import (
	// register camera models.
	_ "go.viam.com/depthcapture/components/camera/fake"
	_ "go.viam.com/depthcapture/components/camera/file"
	_ "go.viam.com/depthcapture/components/camera/realsense"
)
