// Package config loads forcegraph settings from TOML.
package config

import (
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/TFMV/forcegraph/physics"
	"github.com/TFMV/forcegraph/render"
	"github.com/TFMV/forcegraph/view"
	"github.com/TFMV/forcegraph/viewport"
	"github.com/pkg/errors"
)

// ErrInvalid is returned by Validate for out of range settings
var ErrInvalid = errors.New("invalid configuration")

// Config holds forcegraph configuration.
type Config struct {
	Simulation SimulationConfig `toml:"simulation"`
	Render     RenderConfig     `toml:"render"`
	Viewport   ViewportConfig   `toml:"viewport"`
	Server     ServerConfig     `toml:"server"`
}

// SimulationConfig controls the force simulation and its tick loop.
type SimulationConfig struct {
	LinkDistance      float64  `toml:"link_distance"`
	ChargeStrength    float64  `toml:"charge_strength"`
	Theta             float64  `toml:"theta"`
	DistanceMin       float64  `toml:"distance_min"`
	DistanceMax       float64  `toml:"distance_max"` // 0 disables the cut-off
	CenterStrength    float64  `toml:"center_strength"`
	AxisStrength      float64  `toml:"axis_strength"`
	AlphaMin          float64  `toml:"alpha_min"`
	AlphaDecay        float64  `toml:"alpha_decay"` // 0 derives it from alpha_min over 300 ticks
	VelocityDecay     float64  `toml:"velocity_decay"`
	Reheat            float64  `toml:"reheat"`
	ParallelThreshold int      `toml:"parallel_threshold"`
	Workers           int      `toml:"workers"`
	Seed              int64    `toml:"seed"`
	TickInterval      Duration `toml:"tick_interval"`
	MaxTicks          int      `toml:"max_ticks"` // Upper bound for headless layouts
}

// RenderConfig controls the drawing surface and styling.
type RenderConfig struct {
	Title          string   `toml:"title"`
	Width          float64  `toml:"width"`
	Height         float64  `toml:"height"`
	NodeRadius     float64  `toml:"node_radius"`
	LabelDX        float64  `toml:"label_dx"`
	LabelDY        float64  `toml:"label_dy"`
	BaseURL        string   `toml:"base_url"`
	DimOpacity     float64  `toml:"dim_opacity"`
	LabelColor     string   `toml:"label_color"`
	HighlightColor string   `toml:"highlight_color"`
	LinkColor      string   `toml:"link_color"`
	Background     string   `toml:"background"`
	FontSize       float64  `toml:"font_size"`
	Palette        []string `toml:"palette"`
}

// ViewportConfig bounds the zoom scale.
type ViewportConfig struct {
	MinScale float64 `toml:"min_scale"`
	MaxScale float64 `toml:"max_scale"`
}

// ServerConfig controls the HTTP server and live sessions.
type ServerConfig struct {
	Addr          string   `toml:"addr"`
	Payload       string   `toml:"payload"`
	Format        string   `toml:"format"` // Empty picks the format from the payload extension
	Watch         bool     `toml:"watch"`
	WatchDebounce Duration `toml:"watch_debounce"`
	EventRate     float64  `toml:"event_rate"` // Inbound events per second per session
	EventBurst    int      `toml:"event_burst"`
	MaxSessions   int      `toml:"max_sessions"`
	ReadTimeout   Duration `toml:"read_timeout"`
	WriteTimeout  Duration `toml:"write_timeout"`
	IdleTimeout   Duration `toml:"idle_timeout"`
}

// Duration is a time.Duration written as a string such as "16ms"
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return errors.Wrapf(ErrInvalid, "duration %q", text)
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the default configuration.
func Default() *Config {
	p := physics.DefaultOptions()
	r := render.DefaultOptions()
	return &Config{
		Simulation: SimulationConfig{
			LinkDistance:      p.LinkDistance,
			ChargeStrength:    p.ChargeStrength,
			Theta:             p.Theta,
			DistanceMin:       p.DistanceMin,
			DistanceMax:       p.DistanceMax,
			CenterStrength:    p.CenterStrength,
			AxisStrength:      p.AxisStrength,
			AlphaMin:          p.AlphaMin,
			VelocityDecay:     p.VelocityDecay,
			Reheat:            0.3,
			ParallelThreshold: p.ParallelThreshold,
			Seed:              p.Seed,
			TickInterval:      Duration{view.DefaultTickInterval},
			MaxTicks:          1000,
		},
		Render: RenderConfig{
			Title:          "forcegraph",
			Width:          r.Width,
			Height:         r.Height,
			NodeRadius:     r.NodeRadius,
			LabelDX:        r.LabelDX,
			LabelDY:        r.LabelDY,
			BaseURL:        r.BaseURL,
			DimOpacity:     r.DimOpacity,
			LabelColor:     r.LabelColor,
			HighlightColor: r.HighlightColor,
			LinkColor:      r.LinkColor,
			FontSize:       r.FontSize,
		},
		Viewport: ViewportConfig{
			MinScale: viewport.DefaultMinScale,
			MaxScale: viewport.DefaultMaxScale,
		},
		Server: ServerConfig{
			Addr:          ":8080",
			WatchDebounce: Duration{250 * time.Millisecond},
			EventRate:     120,
			EventBurst:    60,
			MaxSessions:   64,
			ReadTimeout:   Duration{10 * time.Second},
			WriteTimeout:  Duration{30 * time.Second},
			IdleTimeout:   Duration{120 * time.Second},
		},
	}
}

// ConfigDir returns the forcegraph config directory path.
func ConfigDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "forcegraph")
}

// DefaultPath returns the config file read when no path is given
func DefaultPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file at path over the defaults. An empty path reads
// DefaultPath if it exists. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Write encodes the config as TOML.
func (c *Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Validate checks that every setting is usable
func (c *Config) Validate() error {
	s := c.Simulation
	switch {
	case s.LinkDistance < 0:
		return errors.Wrap(ErrInvalid, "simulation.link_distance must not be negative")
	case s.Theta <= 0:
		return errors.Wrap(ErrInvalid, "simulation.theta must be positive")
	case s.DistanceMin <= 0:
		return errors.Wrap(ErrInvalid, "simulation.distance_min must be positive")
	case s.DistanceMax < 0:
		return errors.Wrap(ErrInvalid, "simulation.distance_max must not be negative")
	case s.AlphaMin <= 0 || s.AlphaMin >= 1:
		return errors.Wrap(ErrInvalid, "simulation.alpha_min must be in (0, 1)")
	case s.AlphaDecay < 0 || s.AlphaDecay >= 1:
		return errors.Wrap(ErrInvalid, "simulation.alpha_decay must be in [0, 1)")
	case s.VelocityDecay < 0 || s.VelocityDecay > 1:
		return errors.Wrap(ErrInvalid, "simulation.velocity_decay must be in [0, 1]")
	case s.Reheat <= 0 || s.Reheat > 1:
		return errors.Wrap(ErrInvalid, "simulation.reheat must be in (0, 1]")
	case s.Workers < 0:
		return errors.Wrap(ErrInvalid, "simulation.workers must not be negative")
	case s.TickInterval.Duration <= 0:
		return errors.Wrap(ErrInvalid, "simulation.tick_interval must be positive")
	case s.MaxTicks <= 0:
		return errors.Wrap(ErrInvalid, "simulation.max_ticks must be positive")
	}

	r := c.Render
	switch {
	case r.Width <= 0 || r.Height <= 0:
		return errors.Wrap(ErrInvalid, "render.width and render.height must be positive")
	case r.NodeRadius <= 0:
		return errors.Wrap(ErrInvalid, "render.node_radius must be positive")
	case r.DimOpacity < 0 || r.DimOpacity > 1:
		return errors.Wrap(ErrInvalid, "render.dim_opacity must be in [0, 1]")
	}

	v := c.Viewport
	if v.MinScale <= 0 || v.MaxScale < v.MinScale {
		return errors.Wrap(ErrInvalid, "viewport scale bounds must satisfy 0 < min_scale <= max_scale")
	}

	srv := c.Server
	switch {
	case srv.EventRate <= 0 || srv.EventBurst <= 0:
		return errors.Wrap(ErrInvalid, "server.event_rate and server.event_burst must be positive")
	case srv.MaxSessions <= 0:
		return errors.Wrap(ErrInvalid, "server.max_sessions must be positive")
	case srv.WatchDebounce.Duration < 0:
		return errors.Wrap(ErrInvalid, "server.watch_debounce must not be negative")
	}
	return nil
}

// PhysicsOptions returns the simulation parameters
func (c *Config) PhysicsOptions() physics.Options {
	s := c.Simulation
	opts := physics.DefaultOptions()
	opts.LinkDistance = s.LinkDistance
	opts.ChargeStrength = s.ChargeStrength
	opts.Theta = s.Theta
	opts.DistanceMin = s.DistanceMin
	opts.DistanceMax = s.DistanceMax
	opts.CenterStrength = s.CenterStrength
	opts.AxisStrength = s.AxisStrength
	opts.AlphaMin = s.AlphaMin
	opts.AlphaDecay = s.AlphaDecay
	if opts.AlphaDecay == 0 {
		opts.AlphaDecay = 1 - math.Pow(s.AlphaMin, 1.0/300)
	}
	opts.VelocityDecay = s.VelocityDecay
	opts.ParallelThreshold = s.ParallelThreshold
	opts.Workers = s.Workers
	opts.Seed = s.Seed
	return opts
}

// RenderOptions returns the drawing parameters
func (c *Config) RenderOptions() render.Options {
	r := c.Render
	return render.Options{
		Width:          r.Width,
		Height:         r.Height,
		NodeRadius:     r.NodeRadius,
		LabelDX:        r.LabelDX,
		LabelDY:        r.LabelDY,
		BaseURL:        r.BaseURL,
		DimOpacity:     r.DimOpacity,
		LabelColor:     r.LabelColor,
		HighlightColor: r.HighlightColor,
		LinkColor:      r.LinkColor,
		Background:     r.Background,
		FontSize:       r.FontSize,
	}
}

// ViewOptions returns the options of a view built from this config
func (c *Config) ViewOptions() view.Options {
	return view.Options{
		Physics:      c.PhysicsOptions(),
		Render:       c.RenderOptions(),
		Palette:      c.Render.Palette,
		MinScale:     c.Viewport.MinScale,
		MaxScale:     c.Viewport.MaxScale,
		Reheat:       c.Simulation.Reheat,
		TickInterval: c.Simulation.TickInterval.Duration,
	}
}
