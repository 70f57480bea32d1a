package prometheus

import (
	"io"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/prysmaticlabs/prysm-epbs/testing/assert"
	"github.com/sirupsen/logrus"
)

func TestLogrusCollector(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.AddHook(NewLogrusCollector())

	tests := []struct {
		name   string
		prefix string
		level  logrus.Level
		count  int
	}{
		{name: "info without prefix", level: logrus.InfoLevel, count: 3},
		{name: "warn with prefix", prefix: "blockchain", level: logrus.WarnLevel, count: 2},
		{name: "error with prefix", prefix: "sync", level: logrus.ErrorLevel, count: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label := defaultPrefix
			entry := logrus.NewEntry(logger)
			if tt.prefix != "" {
				label = tt.prefix
				entry = entry.WithField(prefixKey, tt.prefix)
			}
			counter := logEntriesCounter.WithLabelValues(tt.level.String(), label)
			before := testutil.ToFloat64(counter)
			for i := 0; i < tt.count; i++ {
				entry.Log(tt.level, "message")
			}
			assert.Equal(t, before+float64(tt.count), testutil.ToFloat64(counter))
		})
	}
}

func TestLogrusCollector_Levels(t *testing.T) {
	assert.Equal(t, 3, len(NewLogrusCollector().Levels()))
	assert.DeepEqual(t, []logrus.Level{logrus.DebugLevel}, NewLogrusCollector(logrus.DebugLevel).Levels())
}
