package monitor

import (
	"strconv"
	"strings"
	"time"
)

const bytesPerKiB = 1024

// parseMetrics fills metrics from the output lines of the metrics script.
// Unavailable or malformed sections are skipped, leaving the zero values.
func parseMetrics(lines []string, metrics *Metrics) {
	sections := splitSections(lines)

	parseLoadavg(sections["LOADAVG"], metrics)
	parseMeminfo(sections["MEMINFO"], metrics)
	parseUptime(sections["UPTIME"], metrics)
	parseTemp(sections["TEMP"], metrics)
	parseDisk(sections["DISK"], metrics)
	parseUname(sections["UNAME"], metrics)
	parseNproc(sections["NPROC"], metrics)
}

// splitSections groups the output lines by their ---NAME--- markers.
func splitSections(lines []string) map[string][]string {
	sections := map[string][]string{}
	current := ""

	for _, line := range lines {
		stripped := strings.TrimSpace(line)

		if strings.HasPrefix(stripped, "---") && strings.HasSuffix(stripped, "---") {
			current = strings.Trim(stripped, "-")
			sections[current] = nil

			continue
		}

		if current != "" {
			sections[current] = append(sections[current], stripped)
		}
	}

	return sections
}

func sectionValue(lines []string) (string, bool) {
	if len(lines) == 0 || lines[0] == "N/A" {
		return "", false
	}

	return lines[0], true
}

func parseLoadavg(lines []string, metrics *Metrics) {
	value, ok := sectionValue(lines)
	if !ok {
		return
	}

	fields := strings.Fields(value)
	if len(fields) < 3 {
		return
	}

	load1, err1 := strconv.ParseFloat(fields[0], 64)
	load5, err2 := strconv.ParseFloat(fields[1], 64)
	load15, err3 := strconv.ParseFloat(fields[2], 64)

	if err1 != nil || err2 != nil || err3 != nil {
		return
	}

	metrics.Load1 = load1
	metrics.Load5 = load5
	metrics.Load15 = load15
}

func parseMeminfo(lines []string, metrics *Metrics) {
	if _, ok := sectionValue(lines); !ok {
		return
	}

	mem := map[string]uint64{}

	for _, line := range lines {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}

		fields := strings.Fields(value)
		if len(fields) == 0 {
			continue
		}

		kb, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			continue
		}

		mem[strings.TrimSpace(key)] = kb * bytesPerKiB
	}

	metrics.MemTotal = mem["MemTotal"]

	if available := mem["MemAvailable"]; available != 0 {
		metrics.MemUsed = metrics.MemTotal - available
		return
	}

	used := metrics.MemTotal - mem["MemFree"] - mem["Buffers"] - mem["Cached"]
	if used <= metrics.MemTotal {
		metrics.MemUsed = used
	}
}

func parseUptime(lines []string, metrics *Metrics) {
	value, ok := sectionValue(lines)
	if !ok {
		return
	}

	fields := strings.Fields(value)
	if len(fields) == 0 {
		return
	}

	seconds, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return
	}

	metrics.Uptime = time.Duration(seconds * float64(time.Second))
}

// parseTemp understands both the millidegree value of
// /sys/class/thermal/... and the "temp=42.8'C" output of vcgencmd.
func parseTemp(lines []string, metrics *Metrics) {
	value, ok := sectionValue(lines)
	if !ok {
		return
	}

	if _, after, found := strings.Cut(value, "temp="); found {
		end := strings.IndexFunc(after, func(r rune) bool {
			return (r < '0' || r > '9') && r != '.'
		})
		if end >= 0 {
			after = after[:end]
		}

		temp, err := strconv.ParseFloat(after, 64)
		if err != nil {
			return
		}

		metrics.Temperature = temp
		metrics.HasTemperature = true

		return
	}

	temp, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return
	}

	if temp > 1000 {
		temp /= 1000
	}

	metrics.Temperature = temp
	metrics.HasTemperature = true
}

func parseDisk(lines []string, metrics *Metrics) {
	value, ok := sectionValue(lines)
	if !ok {
		return
	}

	fields := strings.Fields(value)
	if len(fields) < 4 {
		return
	}

	total, err1 := strconv.ParseUint(fields[1], 10, 64)
	used, err2 := strconv.ParseUint(fields[2], 10, 64)

	if err1 != nil || err2 != nil {
		return
	}

	metrics.DiskTotal = total * bytesPerKiB
	metrics.DiskUsed = used * bytesPerKiB
}

func parseUname(lines []string, metrics *Metrics) {
	value, ok := sectionValue(lines)
	if !ok {
		return
	}

	metrics.OSInfo = value
}

func parseNproc(lines []string, metrics *Metrics) {
	value, ok := sectionValue(lines)
	if !ok {
		return
	}

	cores, err := strconv.Atoi(value)
	if err != nil {
		return
	}

	metrics.CPUCores = cores
}
