// Package metrics provides application-level metrics collection.
// RPC calls are recorded into a private Prometheus registry; the summary
// printed in verbose mode is read back from that registry.
package metrics

import (
	"cmp"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	looperr "github.com/loopfi/loopchain/pkg/errors"
)

// OutcomeOK is the outcome label of a successful call.
const OutcomeOK = "ok"

// Metric family names in the registry.
const (
	CallsTotalName = "loopchain_rpc_calls_total"
	DurationName   = "loopchain_rpc_duration_seconds"
)

// Metrics holds RPC metrics. All methods are safe for concurrent use.
type Metrics struct {
	registry *prometheus.Registry

	callsTotal *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// New creates a Metrics instance with its own registry.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.callsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "loopchain",
			Subsystem: "rpc",
			Name:      "calls_total",
			Help:      "Total JSON-RPC calls by network, method and outcome",
		},
		[]string{"network", "method", "outcome"},
	)

	m.duration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "loopchain",
			Subsystem: "rpc",
			Name:      "duration_seconds",
			Help:      "JSON-RPC call latency",
			Buckets:   []float64{.025, .05, .1, .25, .5, 1, 2.5, 5, 10, 15},
		},
		[]string{"network", "method"},
	)

	m.registry.MustRegister(m.callsTotal, m.duration)
	return m
}

// Global is the global metrics instance.
// Use this for recording metrics throughout the application.
//
//nolint:gochecknoglobals // Intentional global for metrics access
var Global = New()

// Registry exposes the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordRPCCall records an RPC call with its duration and outcome.
func (m *Metrics) RecordRPCCall(network, method string, duration time.Duration, err error) {
	m.callsTotal.WithLabelValues(network, method, Outcome(err)).Inc()
	m.duration.WithLabelValues(network, method).Observe(duration.Seconds())
}

// Outcome returns the outcome label for an error: "ok" for nil, otherwise
// the lower-cased error code (e.g. "network_unreachable").
func Outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	return strings.ToLower(looperr.Code(err))
}

// MethodStats aggregates the calls of one method on one network.
type MethodStats struct {
	Network      string
	Method       string
	Calls        int64
	Errors       int64
	LatencyNanos int64
	// Outcomes counts calls per outcome label.
	Outcomes map[string]int64
}

// AvgMs returns the average latency in milliseconds.
func (s MethodStats) AvgMs() float64 {
	if s.Calls == 0 {
		return 0
	}
	return float64(s.LatencyNanos) / float64(s.Calls) / 1e6
}

// Snapshot is a point-in-time view of the registry.
type Snapshot struct {
	RPCCallsTotal   int64
	RPCErrorsTotal  int64
	RPCLatencyNanos int64
	// Methods is ordered by network, then method.
	Methods []MethodStats
}

// Snapshot gathers the registry and folds it into totals and per-method stats.
func (m *Metrics) Snapshot() (Snapshot, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return Snapshot{}, fmt.Errorf("gathering metrics: %w", err)
	}

	var snap Snapshot
	index := make(map[string]int)
	stats := func(labels []*dto.LabelPair) *MethodStats {
		network, method := label(labels, "network"), label(labels, "method")
		key := network + "\x00" + method
		i, ok := index[key]
		if !ok {
			i = len(snap.Methods)
			index[key] = i
			snap.Methods = append(snap.Methods, MethodStats{Network: network, Method: method, Outcomes: make(map[string]int64)})
		}
		return &snap.Methods[i]
	}

	for _, family := range families {
		switch family.GetName() {
		case CallsTotalName:
			for _, metric := range family.GetMetric() {
				count := int64(metric.GetCounter().GetValue())
				outcome := label(metric.GetLabel(), "outcome")
				s := stats(metric.GetLabel())
				s.Calls += count
				s.Outcomes[outcome] += count
				snap.RPCCallsTotal += count
				if outcome != OutcomeOK {
					s.Errors += count
					snap.RPCErrorsTotal += count
				}
			}
		case DurationName:
			for _, metric := range family.GetMetric() {
				nanos := int64(math.Round(metric.GetHistogram().GetSampleSum() * float64(time.Second)))
				stats(metric.GetLabel()).LatencyNanos += nanos
				snap.RPCLatencyNanos += nanos
			}
		}
	}

	slices.SortFunc(snap.Methods, func(a, b MethodStats) int {
		return cmp.Or(cmp.Compare(a.Network, b.Network), cmp.Compare(a.Method, b.Method))
	})
	return snap, nil
}

func label(pairs []*dto.LabelPair, name string) string {
	for _, p := range pairs {
		if p.GetName() == name {
			return p.GetValue()
		}
	}
	return ""
}

// RPCCallsTotal returns the total number of RPC calls made.
func (m *Metrics) RPCCallsTotal() int64 {
	snap, _ := m.Snapshot()
	return snap.RPCCallsTotal
}

// RPCErrorsTotal returns the total number of failed RPC calls.
func (m *Metrics) RPCErrorsTotal() int64 {
	snap, _ := m.Snapshot()
	return snap.RPCErrorsTotal
}

// RPCLatencyAvgMs returns the average RPC latency in milliseconds.
// Returns 0 if no calls have been made.
func (m *Metrics) RPCLatencyAvgMs() float64 {
	snap, _ := m.Snapshot()
	if snap.RPCCallsTotal == 0 {
		return 0
	}
	return float64(snap.RPCLatencyNanos) / float64(snap.RPCCallsTotal) / 1e6
}

// Summary renders the totals as a single log-friendly line.
func (m *Metrics) Summary() string {
	snap, err := m.Snapshot()
	if err != nil {
		return "rpc metrics unavailable: " + err.Error()
	}
	avg := 0.0
	if snap.RPCCallsTotal > 0 {
		avg = float64(snap.RPCLatencyNanos) / float64(snap.RPCCallsTotal) / 1e6
	}
	return fmt.Sprintf("rpc_calls=%d rpc_errors=%d rpc_latency_avg_ms=%.1f",
		snap.RPCCallsTotal, snap.RPCErrorsTotal, avg)
}

// Breakdown renders one line per network and method, e.g.
// "hardhat eth_getBalance calls=3 errors=1 avg_ms=2.0 network_unreachable=1".
func (m *Metrics) Breakdown() []string {
	snap, err := m.Snapshot()
	if err != nil {
		return nil
	}

	lines := make([]string, 0, len(snap.Methods))
	for _, s := range snap.Methods {
		var b strings.Builder
		fmt.Fprintf(&b, "%s %s calls=%d errors=%d avg_ms=%.1f", s.Network, s.Method, s.Calls, s.Errors, s.AvgMs())
		for _, outcome := range slices.Sorted(maps.Keys(s.Outcomes)) {
			if outcome != OutcomeOK {
				fmt.Fprintf(&b, " %s=%d", outcome, s.Outcomes[outcome])
			}
		}
		lines = append(lines, b.String())
	}
	return lines
}

// Reset clears the Prometheus vectors.
// Useful for testing.
func (m *Metrics) Reset() {
	m.callsTotal.Reset()
	m.duration.Reset()
}
