package layout

import (
	"github.com/charmbracelet/log"

	sverrors "github.com/matzehuels/sparqlviz/pkg/errors"
)

// Defaults match the interactive canvas of the browser version.
const (
	DefaultWidth          = 900.0
	DefaultHeight         = 600.0
	DefaultTicks          = 300
	DefaultCollideRadius  = 100.0
	DefaultChargeStrength = -1.0
	DefaultLinkStrength   = 0.2
	DefaultLinkDistance   = 30.0
)

// Options configures a force layout run.
type Options struct {
	Width  float64 `json:"width,omitempty" toml:"width"`
	Height float64 `json:"height,omitempty" toml:"height"`
	// Ticks bounds the number of simulation steps. The run also stops
	// once the simulation has cooled down.
	Ticks          int     `json:"ticks,omitempty" toml:"ticks"`
	CollideRadius  float64 `json:"collide_radius,omitempty" toml:"collide_radius"`
	ChargeStrength float64 `json:"charge_strength,omitempty" toml:"charge_strength"`
	LinkStrength   float64 `json:"link_strength,omitempty" toml:"link_strength"`
	LinkDistance   float64 `json:"link_distance,omitempty" toml:"link_distance"`
	FontSize       float64 `json:"font_size,omitempty" toml:"font_size"`

	// OnTick, if set, is called after every step with the step number.
	OnTick func(tick int) `json:"-" toml:"-"`
	Logger *log.Logger    `json:"-" toml:"-"`
}

// SetDefaults fills zero fields with their defaults.
func (o *Options) SetDefaults() {
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.Ticks == 0 {
		o.Ticks = DefaultTicks
	}
	if o.CollideRadius == 0 {
		o.CollideRadius = DefaultCollideRadius
	}
	if o.ChargeStrength == 0 {
		o.ChargeStrength = DefaultChargeStrength
	}
	if o.LinkStrength == 0 {
		o.LinkStrength = DefaultLinkStrength
	}
	if o.LinkDistance == 0 {
		o.LinkDistance = DefaultLinkDistance
	}
	if o.FontSize == 0 {
		o.FontSize = DefaultFontSize
	}
}

// Validate rejects settings the simulation cannot run with.
func (o Options) Validate() error {
	switch {
	case o.Width < 0 || o.Height < 0:
		return sverrors.New(sverrors.ErrCodeInvalidInput, "canvas size must not be negative")
	case o.Ticks < 0:
		return sverrors.New(sverrors.ErrCodeInvalidInput, "ticks must not be negative")
	case o.CollideRadius < 0 || o.LinkDistance < 0:
		return sverrors.New(sverrors.ErrCodeInvalidInput, "radii and distances must not be negative")
	case o.LinkStrength < 0 || o.LinkStrength > 1:
		return sverrors.New(sverrors.ErrCodeInvalidInput, "link strength must be within [0, 1]")
	}
	return nil
}
