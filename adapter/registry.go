package adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	apperrors "github.com/kbukum/strategykit/errors"
	"github.com/kbukum/strategykit/provider"
	"github.com/kbukum/strategykit/validation"
)

// Config declares one adapter instance: the protocol tag nodes refer to,
// the family that builds it and family-specific settings.
type Config struct {
	Tag      string         `yaml:"tag" mapstructure:"tag"`
	Family   string         `yaml:"family" mapstructure:"family"`
	Settings map[string]any `yaml:"settings" mapstructure:"settings"`
}

// Factory builds an adapter for a protocol tag.
type Factory = provider.Factory[Adapter]

// Info describes a registered adapter.
type Info struct {
	Tag       string `json:"tag"`
	Family    string `json:"family"`
	Available bool   `json:"available"`
}

// Registry maps protocol tags to adapters. New protocols are added by
// registering a factory or an instance; the compiler only looks tags up.
type Registry struct {
	inner *provider.Registry[Adapter]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{inner: provider.NewRegistry[Adapter]()}
}

// RegisterFactory registers the factory for a family.
func (r *Registry) RegisterFactory(family string, f Factory) {
	r.inner.RegisterFactory(family, f)
}

// Register stores a under its own name.
func (r *Registry) Register(a Adapter) {
	r.inner.Set(a.Name(), a)
}

// Configure creates one adapter per entry of cfgs.
func (r *Registry) Configure(cfgs []Config) error {
	for _, c := range cfgs {
		if c.Tag == "" {
			return apperrors.InvalidInput("adapters.tag", "is required")
		}
		if _, err := r.inner.Create(c.Family, c.Tag, c.Settings); err != nil {
			return apperrors.InvalidInput("adapters."+c.Tag, err.Error()).WithCause(err)
		}
	}
	return nil
}

// Lookup returns the adapter registered for tag.
func (r *Registry) Lookup(tag string) (Adapter, bool) {
	return r.inner.Get(tag)
}

// Tags returns the registered protocol tags, sorted.
func (r *Registry) Tags() []string { return r.inner.Names() }

// Families returns the families with a registered factory, sorted.
func (r *Registry) Families() []string { return r.inner.Families() }

// Describe lists every adapter with its availability.
func (r *Registry) Describe(ctx context.Context) []Info {
	tags := r.Tags()
	out := make([]Info, 0, len(tags))
	for _, tag := range tags {
		a, _ := r.Lookup(tag)
		out = append(out, Info{Tag: tag, Family: a.Family(), Available: a.IsAvailable(ctx)})
	}
	return out
}

// DecodeSettings decodes an adapter settings map into T and validates it
// with T's struct tags. Durations may be given as strings such as "3s".
func DecodeSettings[T any](settings map[string]any) (T, error) {
	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return out, err
	}
	if err := dec.Decode(settings); err != nil {
		return out, fmt.Errorf("settings: %w", err)
	}
	if errs := validation.ValidateStruct(out); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Field + ": " + e.Message
		}
		return out, fmt.Errorf("settings: %s", strings.Join(msgs, "; "))
	}
	return out, nil
}
