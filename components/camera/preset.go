package camera

import (
	"sort"

	"github.com/pkg/errors"
)

// StreamProfile is the resolution and rate a stream is enabled with.
type StreamProfile struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	FPS    int `json:"fps"`
}

// Preset pairs the depth and color profiles a device is started with.
type Preset struct {
	Name  string
	Depth StreamProfile
	Color StreamProfile
}

// DefaultPreset is used when no preset is configured.
const DefaultPreset = "best_quality"

// Presets are the known stream presets.
var Presets = map[string]Preset{
	"best_quality": {
		Name:  "best_quality",
		Depth: StreamProfile{Width: 640, Height: 480, FPS: 30},
		Color: StreamProfile{Width: 1280, Height: 720, FPS: 30},
	},
	"largest_image": {
		Name:  "largest_image",
		Depth: StreamProfile{Width: 1280, Height: 720, FPS: 30},
		Color: StreamProfile{Width: 1920, Height: 1080, FPS: 30},
	},
	"highest_framerate": {
		Name:  "highest_framerate",
		Depth: StreamProfile{Width: 848, Height: 480, FPS: 90},
		Color: StreamProfile{Width: 640, Height: 480, FPS: 60},
	},
}

// LookupPreset returns the named preset; the empty name is the default preset.
func LookupPreset(name string) (Preset, error) {
	if name == "" {
		name = DefaultPreset
	}
	p, ok := Presets[name]
	if !ok {
		names := make([]string, 0, len(Presets))
		for n := range Presets {
			names = append(names, n)
		}
		sort.Strings(names)
		return Preset{}, errors.Errorf("unknown preset %q, expected one of %v", name, names)
	}
	return p, nil
}
