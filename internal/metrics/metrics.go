// Package metrics exposes measurement progress as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cwbudde/algo-audiotest/measure/level"
	"github.com/cwbudde/algo-audiotest/measure/sweep"
)

const namespace = "audiotest"

// Metrics holds the collectors of one process. A nil *Metrics ignores
// every observation.
type Metrics struct {
	registry *prometheus.Registry

	sweepPoints    prometheus.Counter
	sweepSkips     prometheus.Counter
	sweepFrequency prometheus.Gauge // last measured frequency
	sweepGain      prometheus.Gauge
	sweepPhase     prometheus.Gauge
	sweepRMS       prometheus.Gauge
	sweepSamples   prometheus.Histogram

	levelIterations prometheus.Counter
	levelClamped    prometheus.Counter
	levelAmplitude  prometheus.Gauge
	levelRMS        prometheus.Gauge
	levelError      prometheus.Gauge
	levelConverged  prometheus.Gauge
}

// New creates the collectors on a private registry that also carries the
// Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		sweepPoints: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_points_total",
			Help:      "Number of measured sweep points",
		}),
		sweepSkips: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_skips_total",
			Help:      "Number of sweep points that could not be measured",
		}),
		sweepFrequency: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sweep_frequency_hz",
			Help:      "Frequency of the last measured sweep point",
		}),
		sweepGain: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sweep_gain_db",
			Help:      "Gain of the last measured sweep point in dB",
		}),
		sweepPhase: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sweep_phase_degrees",
			Help:      "Phase of the last measured sweep point",
		}),
		sweepRMS: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sweep_rms_volts",
			Help:      "RMS voltage of the last measured sweep point",
		}),
		sweepSamples: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_capture_samples",
			Help:      "Samples acquired per sweep point",
			Buckets:   prometheus.ExponentialBuckets(64, 2, 12),
		}),

		levelIterations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "level_iterations_total",
			Help:      "Number of leveling iterations",
		}),
		levelClamped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "level_clamped_total",
			Help:      "Number of leveling iterations whose amplitude was clamped",
		}),
		levelAmplitude: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "level_amplitude_vpp",
			Help:      "Generator amplitude of the last leveling iteration",
		}),
		levelRMS: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "level_rms_volts",
			Help:      "Measured RMS voltage of the last leveling iteration",
		}),
		levelError: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "level_error_volts",
			Help:      "Target minus measured RMS of the last leveling iteration",
		}),
		levelConverged: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "level_converged",
			Help:      "1 once the leveling loop has converged",
		}),
	}
}

// ObservePoint records a measured sweep point.
func (m *Metrics) ObservePoint(rec sweep.Record) {
	if m == nil {
		return
	}
	m.sweepPoints.Inc()
	m.sweepFrequency.Set(rec.Frequency)
	m.sweepGain.Set(rec.GainDB)
	m.sweepRMS.Set(rec.RMS)
	m.sweepSamples.Observe(float64(rec.Samples))
	if rec.HasPhase {
		m.sweepPhase.Set(rec.Phase)
	}
}

// ObserveSkip records a skipped sweep point.
func (m *Metrics) ObserveSkip(sweep.Skip) {
	if m == nil {
		return
	}
	m.sweepSkips.Inc()
}

// ObserveLevelStep records one leveling iteration.
func (m *Metrics) ObserveLevelStep(step level.Step) {
	if m == nil {
		return
	}
	m.levelIterations.Inc()
	m.levelAmplitude.Set(step.Amplitude)
	m.levelRMS.Set(step.RMS)
	m.levelError.Set(step.Error)
	if step.Control.Clamped {
		m.levelClamped.Inc()
	}
	if step.Converged {
		m.levelConverged.Set(1)
	} else {
		m.levelConverged.Set(0)
	}
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

var _ sweep.Observer = (*Metrics)(nil)
