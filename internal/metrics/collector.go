// Package metrics exposes the socket-core daemon's Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// -------------------------------------------------------------------------
// Prometheus Metric Constants
// -------------------------------------------------------------------------

const (
	namespace = "socketcore"
	subsystem = "socket"
)

// Label names for socket-core metrics.
const (
	labelKind  = "kind"
	labelLevel = "level"
	labelName  = "name"
	labelErrno = "errno"
)

// -------------------------------------------------------------------------
// Collector — Prometheus Socket-Core Metrics
// -------------------------------------------------------------------------

// Collector holds all socket-core Prometheus metrics.
//
//   - OpenSockets gauges the live table occupancy per socket kind.
//   - OptionSets counts setsockopt() calls per level/name.
//   - MulticastGroups/MulticastSources gauge current membership state.
//   - Errno counts every errno surfaced to a caller, labeled by mnemonic.
//   - BytesSent/BytesReceived count payload bytes moved per socket kind.
type Collector struct {
	// OpenSockets tracks the number of currently open sockets per kind
	// (stream/dgram/raw). cmd/socketcored sets it by periodically sampling
	// the socket table; RegisterSocket/UnregisterSocket adjust it by one.
	OpenSockets *prometheus.GaugeVec

	// OptionSets counts setsockopt() calls, labeled by level and option name.
	OptionSets *prometheus.CounterVec

	// MulticastGroups gauges the number of groups currently joined, labeled
	// by socket kind.
	MulticastGroups *prometheus.GaugeVec

	// MulticastSources gauges the number of source-filter entries currently
	// recorded across all joined groups.
	MulticastSources *prometheus.GaugeVec

	// Errno counts every errno value surfaced to a caller, labeled by its
	// POSIX mnemonic, for alerting on error-rate spikes.
	Errno *prometheus.CounterVec

	// BytesSent/BytesReceived count payload bytes moved through
	// send/sendto/sendmsg and recv/recvfrom/recvmsg, labeled by kind.
	BytesSent     *prometheus.CounterVec
	BytesReceived *prometheus.CounterVec
}

// NewCollector creates a Collector with all socket-core metrics registered
// against the provided prometheus.Registerer. If reg is nil,
// prometheus.DefaultRegisterer is used.
//
// All metrics are created with the "socketcore_socket_" prefix
// (namespace_subsystem) to avoid collisions with other exporters.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := newMetrics()

	reg.MustRegister(
		c.OpenSockets,
		c.OptionSets,
		c.MulticastGroups,
		c.MulticastSources,
		c.Errno,
		c.BytesSent,
		c.BytesReceived,
	)

	return c
}

// newMetrics creates all Prometheus metric vectors without registering them.
func newMetrics() *Collector {
	kindLabels := []string{labelKind}
	optionLabels := []string{labelLevel, labelName}
	errnoLabels := []string{labelErrno}

	return &Collector{
		OpenSockets: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "open_total",
			Help:      "Number of currently open sockets, by kind.",
		}, kindLabels),

		OptionSets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "option_sets_total",
			Help:      "Total setsockopt() calls, by level and option name.",
		}, optionLabels),

		MulticastGroups: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "multicast_groups",
			Help:      "Number of multicast groups currently joined, by kind.",
		}, kindLabels),

		MulticastSources: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "multicast_sources",
			Help:      "Number of multicast source-filter entries currently recorded, by kind.",
		}, kindLabels),

		Errno: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "errno_total",
			Help:      "Total errno values surfaced to callers, by POSIX mnemonic.",
		}, errnoLabels),

		BytesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "bytes_sent_total",
			Help:      "Total payload bytes sent, by socket kind.",
		}, kindLabels),

		BytesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "bytes_received_total",
			Help:      "Total payload bytes received, by socket kind.",
		}, kindLabels),
	}
}

// -------------------------------------------------------------------------
// Socket Lifecycle
// -------------------------------------------------------------------------

// RegisterSocket increments the open-socket gauge for kind.
func (c *Collector) RegisterSocket(kind string) {
	c.OpenSockets.WithLabelValues(kind).Inc()
}

// UnregisterSocket decrements the open-socket gauge for kind.
func (c *Collector) UnregisterSocket(kind string) {
	c.OpenSockets.WithLabelValues(kind).Dec()
}

// -------------------------------------------------------------------------
// Options
// -------------------------------------------------------------------------

// IncOptionSet increments the setsockopt() counter for (level, name).
func (c *Collector) IncOptionSet(level, name string) {
	c.OptionSets.WithLabelValues(level, name).Inc()
}

// -------------------------------------------------------------------------
// Multicast
// -------------------------------------------------------------------------

// SetMulticastGroups sets the current group-membership gauge for kind.
func (c *Collector) SetMulticastGroups(kind string, n int) {
	c.MulticastGroups.WithLabelValues(kind).Set(float64(n))
}

// SetMulticastSources sets the current source-filter-entry gauge for kind.
func (c *Collector) SetMulticastSources(kind string, n int) {
	c.MulticastSources.WithLabelValues(kind).Set(float64(n))
}

// -------------------------------------------------------------------------
// Errors
// -------------------------------------------------------------------------

// IncErrno increments the errno counter for mnemonic (e.g. "EAGAIN").
func (c *Collector) IncErrno(mnemonic string) {
	c.Errno.WithLabelValues(mnemonic).Inc()
}

// -------------------------------------------------------------------------
// Byte Counters
// -------------------------------------------------------------------------

// AddBytesSent adds n to the sent-byte counter for kind.
func (c *Collector) AddBytesSent(kind string, n int) {
	c.BytesSent.WithLabelValues(kind).Add(float64(n))
}

// AddBytesReceived adds n to the received-byte counter for kind.
func (c *Collector) AddBytesReceived(kind string, n int) {
	c.BytesReceived.WithLabelValues(kind).Add(float64(n))
}
