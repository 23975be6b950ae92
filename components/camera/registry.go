package camera

import (
	"context"
	"reflect"
	"sort"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"

	"go.viam.com/depthcapture/logging"
)

// Config selects a device model and carries its model specific attributes.
type Config struct {
	Model      string                 `json:"model"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

// A ConfigValidator validates a model's native configuration.
type ConfigValidator interface {
	Validate(path string) error
}

// Registration describes how to build a device model from its native configuration.
type Registration[ConfigT ConfigValidator] struct {
	Constructor func(ctx context.Context, conf ConfigT, logger logging.Logger) (Device, error)
}

type registration struct {
	open func(ctx context.Context, conf Config, logger logging.Logger) (Device, error)
}

var (
	registryMu sync.RWMutex
	registry   = map[string]registration{}
)

// RegisterDevice registers a device model. It panics if the model is already registered.
func RegisterDevice[ConfigT ConfigValidator](model string, reg Registration[ConfigT]) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := registry[model]; ok {
		panic(errors.Errorf("trying to register two devices with the same model %q", model))
	}
	if reg.Constructor == nil {
		panic(errors.Errorf("cannot register a nil constructor for model %q", model))
	}
	registry[model] = registration{
		open: func(ctx context.Context, conf Config, logger logging.Logger) (Device, error) {
			native, err := TransformAttributeMap[ConfigT](conf.Attributes)
			if err != nil {
				return nil, errors.Wrapf(err, "error converting attributes for model %q", model)
			}
			if err := native.Validate("camera.attributes"); err != nil {
				return nil, err
			}
			return reg.Constructor(ctx, native, logger)
		},
	}
}

// RegisteredModels returns the sorted names of all registered models.
func RegisteredModels() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	models := make([]string, 0, len(registry))
	for m := range registry {
		models = append(models, m)
	}
	sort.Strings(models)
	return models
}

// Open constructs the device described by conf.
func Open(ctx context.Context, conf Config, logger logging.Logger) (Device, error) {
	registryMu.RLock()
	reg, ok := registry[conf.Model]
	registryMu.RUnlock()
	if !ok {
		return nil, errors.Errorf("unknown camera model %q, expected one of %v", conf.Model, RegisteredModels())
	}
	return reg.open(ctx, conf, logger.Sublogger(conf.Model))
}

// TransformAttributeMap decodes attributes into a model's native configuration using the json
// tags of its fields. Unknown attributes are an error.
func TransformAttributeMap[T any](attributes map[string]interface{}) (T, error) {
	var out T
	var forResult interface{}

	toT := reflect.TypeOf(out)
	if toT == nil {
		return out, nil
	}
	if toT.Kind() == reflect.Ptr {
		var ok bool
		out, ok = reflect.New(toT.Elem()).Interface().(T)
		if !ok {
			return out, errors.Errorf("failed to allocate default config type %T", out)
		}
		forResult = out
	} else {
		forResult = &out
	}

	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           forResult,
		Metadata:         &md,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return out, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return out, err
	}
	if len(md.Unused) != 0 {
		sort.Strings(md.Unused)
		return out, errors.Errorf("unknown attributes %v", md.Unused)
	}
	return out, nil
}
