package cmd

import (
	"github.com/prometheus/client_golang/prometheus"
)

var metricsRegistry = prometheus.NewRegistry()

var (
	filesRead = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "blheli",
		Name:      "files_read_total",
		Help:      "Hex files whose settings block was read",
	})
	readFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "blheli",
		Name:      "read_failures_total",
		Help:      "Hex files that could not be read",
	})
	filesWritten = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "blheli",
		Name:      "files_written_total",
		Help:      "Hex files written with re-encoded settings",
	})
	checksumWarnings = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "blheli",
		Name:      "checksum_warnings_total",
		Help:      "Records read with a checksum mismatch or skipped as malformed",
	})
	settingsChanged = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blheli",
		Name:      "settings_changed_total",
		Help:      "Settings whose value changed in a written file",
	}, []string{"setting"})
)

func init() {
	metricsRegistry.MustRegister(filesRead, readFailures, filesWritten, checksumWarnings, settingsChanged)
}

// writeMetrics is meant for node_exporter's textfile collector.
func writeMetrics(path string) error {
	return prometheus.WriteToTextfile(path, metricsRegistry)
}
