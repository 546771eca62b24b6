package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var sampleOutput = []string{
	"---LOADAVG---",
	"0.52 0.58 0.59 1/617 8964",
	"---MEMINFO---",
	"MemTotal:        8058952 kB",
	"MemFree:          512340 kB",
	"MemAvailable:    4029476 kB",
	"Buffers:          203544 kB",
	"Cached:          2517892 kB",
	"---UPTIME---",
	"86461.41 330229.70",
	"---TEMP---",
	"48200",
	"---DISK---",
	"/dev/root       61229104 21430232  37282384  37% /",
	"---UNAME---",
	"Linux pi4 6.1.21-v8+ aarch64",
	"---NPROC---",
	"4",
	"---END---",
}

func TestParseMetrics(t *testing.T) {
	var metrics Metrics

	parseMetrics(sampleOutput, &metrics)

	assert.InDelta(t, 0.52, metrics.Load1, 0.001)
	assert.InDelta(t, 0.58, metrics.Load5, 0.001)
	assert.InDelta(t, 0.59, metrics.Load15, 0.001)

	assert.Equal(t, uint64(8058952)*1024, metrics.MemTotal)
	assert.Equal(t, uint64(8058952-4029476)*1024, metrics.MemUsed)

	assert.Equal(t, 86461*time.Second+410*time.Millisecond, metrics.Uptime.Round(10*time.Millisecond))

	assert.True(t, metrics.HasTemperature)
	assert.InDelta(t, 48.2, metrics.Temperature, 0.001)

	assert.Equal(t, uint64(61229104)*1024, metrics.DiskTotal)
	assert.Equal(t, uint64(21430232)*1024, metrics.DiskUsed)

	assert.Equal(t, "Linux pi4 6.1.21-v8+ aarch64", metrics.OSInfo)
	assert.Equal(t, 4, metrics.CPUCores)
}

func TestParseMetricsAllSectionsUnavailable(t *testing.T) {
	lines := []string{
		"---LOADAVG---", "N/A",
		"---MEMINFO---", "N/A",
		"---UPTIME---", "N/A",
		"---TEMP---", "N/A",
		"---DISK---", "N/A",
		"---UNAME---", "N/A",
		"---NPROC---", "N/A",
		"---END---",
	}

	var metrics Metrics

	parseMetrics(lines, &metrics)

	assert.Equal(t, Metrics{}, metrics)
}

func TestSplitSectionsIgnoresLeadingGarbage(t *testing.T) {
	sections := splitSections([]string{
		"motd banner",
		"---LOADAVG---",
		"0.1 0.2 0.3",
	})

	assert.Equal(t, []string{"0.1 0.2 0.3"}, sections["LOADAVG"])
	assert.NotContains(t, sections, "motd banner")
}

func TestParseMeminfoWithoutMemAvailable(t *testing.T) {
	var metrics Metrics

	parseMeminfo([]string{
		"MemTotal:  1000 kB",
		"MemFree:    200 kB",
		"Buffers:    100 kB",
		"Cached:     300 kB",
	}, &metrics)

	assert.Equal(t, uint64(1000)*1024, metrics.MemTotal)
	assert.Equal(t, uint64(400)*1024, metrics.MemUsed)
}

func TestParseTempVcgencmd(t *testing.T) {
	var metrics Metrics

	parseTemp([]string{"temp=42.8'C"}, &metrics)

	assert.True(t, metrics.HasTemperature)
	assert.InDelta(t, 42.8, metrics.Temperature, 0.001)
}

func TestParseTempPlainDegrees(t *testing.T) {
	var metrics Metrics

	parseTemp([]string{"55.5"}, &metrics)

	assert.True(t, metrics.HasTemperature)
	assert.InDelta(t, 55.5, metrics.Temperature, 0.001)
}

func TestParseTempMalformed(t *testing.T) {
	var metrics Metrics

	parseTemp([]string{"temp=burning"}, &metrics)

	assert.False(t, metrics.HasTemperature)
}

func TestParseLoadavgMalformed(t *testing.T) {
	var metrics Metrics

	parseLoadavg([]string{"one two three"}, &metrics)

	assert.Zero(t, metrics.Load1)
}
