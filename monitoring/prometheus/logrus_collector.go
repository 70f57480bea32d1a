package prometheus

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
)

const (
	prefixKey     = "prefix"
	defaultPrefix = "global"
)

var logEntriesCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "log_entries_total",
	Help: "Total number of log messages by level and package prefix.",
}, []string{"level", "prefix"})

// LogrusCollector is a logrus hook counting log entries per level and prefix.
type LogrusCollector struct {
	levels []logrus.Level
}

// NewLogrusCollector returns a hook counting entries at the given levels, or at info
// and above when none are given.
func NewLogrusCollector(levels ...logrus.Level) *LogrusCollector {
	if len(levels) == 0 {
		levels = []logrus.Level{logrus.InfoLevel, logrus.WarnLevel, logrus.ErrorLevel}
	}
	return &LogrusCollector{levels: levels}
}

// Fire is called on every log call.
func (c *LogrusCollector) Fire(entry *logrus.Entry) error {
	prefix := defaultPrefix
	if v, ok := entry.Data[prefixKey]; ok {
		prefix = fmt.Sprint(v)
	}
	logEntriesCounter.WithLabelValues(entry.Level.String(), prefix).Inc()
	return nil
}

// Levels returns the levels the hook fires for.
func (c *LogrusCollector) Levels() []logrus.Level {
	return c.levels
}
