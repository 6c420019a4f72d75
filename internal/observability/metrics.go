package observability

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const (
	DecodeOK           = "ok"
	DecodeUnrecognized = "unrecognized"
	DecodeError        = "error"
)

var (
	registerOnce sync.Once

	decodes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wirectl",
			Subsystem: "codec",
			Name:      "decodes_total",
			Help:      "Messages decoded, by template and result.",
		},
		[]string{"template", "result"},
	)
	decodeBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wirectl",
			Subsystem: "codec",
			Name:      "message_bytes",
			Help:      "Size of decoded messages in bytes.",
			Buckets:   prometheus.ExponentialBuckets(16, 4, 8),
		},
		[]string{"template"},
	)
	edits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wirectl",
			Subsystem: "codec",
			Name:      "edits_total",
			Help:      "In-place edits, by operation and success.",
		},
		[]string{"op", "success"},
	)
	commandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wirectl",
			Subsystem: "cli",
			Name:      "command_duration_seconds",
			Help:      "wirectl command duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"command", "success"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(decodes, decodeBytes, edits, commandDuration)
	})
}

// RecordDecode counts one decode. size is ignored unless result is
// DecodeOK.
func RecordDecode(template int, result string, size int) {
	RegisterMetrics()
	label := strconv.Itoa(template)
	decodes.WithLabelValues(label, result).Inc()
	if result == DecodeOK {
		decodeBytes.WithLabelValues(label).Observe(float64(size))
	}
}

func RecordEdit(op string, success bool) {
	RegisterMetrics()
	edits.WithLabelValues(op, strconv.FormatBool(success)).Inc()
}

func RecordCommand(command string, duration time.Duration, success bool) {
	RegisterMetrics()
	commandDuration.WithLabelValues(command, strconv.FormatBool(success)).Observe(duration.Seconds())
}

// WriteMetrics dumps every wirectl metric family in the text exposition
// format.
func WriteMetrics(w io.Writer, g prometheus.Gatherer) error {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), "wirectl_") {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}
