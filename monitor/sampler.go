package monitor

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/najoast/steady/channel"
	"github.com/najoast/steady/config"
)

// AlertColor is the alert level derived from channel fill.
type AlertColor uint8

const (
	AlertNone AlertColor = iota
	AlertOrange
	AlertRed
)

// String returns the color name.
func (c AlertColor) String() string {
	switch c {
	case AlertNone:
		return "none"
	case AlertOrange:
		return "orange"
	case AlertRed:
		return "red"
	default:
		return "unknown"
	}
}

// ParseAlertColor parses "orange" or "red".
func ParseAlertColor(s string) (AlertColor, error) {
	switch s {
	case "orange":
		return AlertOrange, nil
	case "red":
		return AlertRed, nil
	default:
		return AlertNone, fmt.Errorf("unknown alert color %q", s)
	}
}

// Trigger fires Color when the rolling average fill ratio exceeds Above.
type Trigger struct {
	Above float64
	Color AlertColor
}

// TriggersFromConfig converts configured triggers.
func TriggersFromConfig(cfgs []config.TriggerConfig) ([]Trigger, error) {
	triggers := make([]Trigger, 0, len(cfgs))
	for _, c := range cfgs {
		color, err := ParseAlertColor(c.Color)
		if err != nil {
			return nil, err
		}
		triggers = append(triggers, Trigger{Above: c.Above, Color: color})
	}
	return triggers, nil
}

// Report is the latest rolling view of one channel.
type Report struct {
	Channel    string     `json:"channel"`
	Capacity   int        `json:"capacity"`
	Filled     int        `json:"filled"`
	Closed     bool       `json:"closed"`
	Sent       uint64     `json:"sent"`
	Taken      uint64     `json:"taken"`
	Avg        float64    `json:"fill_avg"`
	Percentile float64    `json:"fill_percentile"`
	Alert      AlertColor `json:"-"`
	AlertName  string     `json:"alert"`
}

// SamplerOptions configures a Sampler.
type SamplerOptions struct {
	// Window is the number of samples kept per channel
	Window int

	// Percentile of the fill ratio to report, in (0, 1]
	Percentile float64

	// Triggers are evaluated from the highest threshold down
	Triggers []Trigger

	Logger *zap.Logger
}

// Sampler periodically samples channel fill into a sliding window.
type Sampler struct {
	metrics    *Metrics
	window     int
	percentile float64
	triggers   []Trigger
	logger     *zap.Logger

	mu      sync.Mutex
	sources []channel.Monitored
	history map[string][]float64
	reports map[string]Report
	order   []string
}

// NewSampler creates a sampler. metrics may be nil.
func NewSampler(metrics *Metrics, opts SamplerOptions) *Sampler {
	if opts.Window < 1 {
		opts.Window = 1
	}
	if opts.Percentile <= 0 || opts.Percentile > 1 {
		opts.Percentile = 0.8
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	triggers := append([]Trigger(nil), opts.Triggers...)
	sort.Slice(triggers, func(i, j int) bool { return triggers[i].Above > triggers[j].Above })

	return &Sampler{
		metrics:    metrics,
		window:     opts.Window,
		percentile: opts.Percentile,
		triggers:   triggers,
		logger:     opts.Logger,
		history:    make(map[string][]float64),
		reports:    make(map[string]Report),
	}
}

// Track adds channels to sample.
func (s *Sampler) Track(sources ...channel.Monitored) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources = append(s.sources, sources...)
}

// Run samples every interval until ctx is done.
func (s *Sampler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sample()
		}
	}
}

// Sample takes one sample of every tracked channel and returns the
// updated reports.
func (s *Sampler) Sample() []Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Report, 0, len(s.sources))
	for _, src := range s.sources {
		snap := src.Snapshot()

		ratio := float64(snap.Filled) / float64(snap.Capacity)
		hist := append(s.history[snap.Name], ratio)
		if len(hist) > s.window {
			hist = hist[len(hist)-s.window:]
		}
		s.history[snap.Name] = hist

		sorted := append([]float64(nil), hist...)
		sort.Float64s(sorted)

		r := Report{
			Channel:    snap.Name,
			Capacity:   snap.Capacity,
			Filled:     snap.Filled,
			Closed:     snap.Closed,
			Sent:       snap.Sent,
			Taken:      snap.Taken,
			Avg:        stat.Mean(hist, nil),
			Percentile: stat.Quantile(s.percentile, stat.Empirical, sorted, nil),
		}
		r.Alert = s.alertFor(r.Avg)
		r.AlertName = r.Alert.String()

		if prev, ok := s.reports[snap.Name]; !ok {
			s.order = append(s.order, snap.Name)
		} else if prev.Alert != r.Alert {
			s.logger.Info("channel alert changed",
				zap.String("channel", snap.Name),
				zap.Stringer("from", prev.Alert),
				zap.Stringer("to", r.Alert),
				zap.Float64("fill_avg", r.Avg))
		}
		s.reports[snap.Name] = r

		if s.metrics != nil {
			s.metrics.ChannelCapacity.WithLabelValues(snap.Name).Set(float64(snap.Capacity))
			s.metrics.ChannelFilled.WithLabelValues(snap.Name).Set(float64(snap.Filled))
			s.metrics.ChannelFillAvg.WithLabelValues(snap.Name).Set(r.Avg)
			s.metrics.ChannelFillPct.WithLabelValues(snap.Name).Set(r.Percentile)
			s.metrics.ChannelAlert.WithLabelValues(snap.Name).Set(float64(r.Alert))
		}
		out = append(out, r)
	}
	return out
}

// Reports returns the latest report of every channel in tracking order.
func (s *Sampler) Reports() []Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Report, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.reports[name])
	}
	return out
}

func (s *Sampler) alertFor(avg float64) AlertColor {
	for _, t := range s.triggers {
		if avg > t.Above {
			return t.Color
		}
	}
	return AlertNone
}
