package monitor

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const (
	barWidth = 15

	tempWarnThreshold  = 60.0
	tempCritThreshold  = 75.0
	usageWarnThreshold = 60.0
	usageCritThreshold = 85.0

	panelsPerRow = 2
)

var (
	colorGreen  = lipgloss.Color("2")
	colorYellow = lipgloss.Color("3")
	colorRed    = lipgloss.Color("1")
	colorCyan   = lipgloss.Color("6")

	dimStyle    = lipgloss.NewStyle().Faint(true)
	boldStyle   = lipgloss.NewStyle().Bold(true)
	greenStyle  = lipgloss.NewStyle().Foreground(colorGreen)
	yellowStyle = lipgloss.NewStyle().Foreground(colorYellow)
	redStyle    = lipgloss.NewStyle().Foreground(colorRed)

	headerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorCyan).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Width(44)

	footerStyle = lipgloss.NewStyle().Faint(true)
)

// Render composes the dashboard for one collection round.
func Render(allMetrics []*Metrics, refreshInterval time.Duration) string {
	var rows []string

	rows = append(rows, renderHeader(allMetrics, refreshInterval), "")

	for i := 0; i < len(allMetrics); i += panelsPerRow {
		end := i + panelsPerRow
		if end > len(allMetrics) {
			end = len(allMetrics)
		}

		var panels []string
		for _, metrics := range allMetrics[i:end] {
			panels = append(panels, renderPanel(metrics))
		}

		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, panels...))
	}

	rows = append(rows, "", footerStyle.Render("Press Ctrl+C to exit"))

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func renderHeader(allMetrics []*Metrics, refreshInterval time.Duration) string {
	online, building := 0, 0

	for _, metrics := range allMetrics {
		if metrics.Online {
			online++
		}

		if metrics.Busy {
			building++
		}
	}

	offline := len(allMetrics) - online

	parts := []string{greenStyle.Render(fmt.Sprintf("● %d online", online))}
	if offline > 0 {
		parts = append(parts, redStyle.Render(fmt.Sprintf("● %d offline", offline)))
	}

	if building > 0 {
		parts = append(parts, yellowStyle.Render(fmt.Sprintf("● %d building", building)))
	}

	title := boldStyle.Foreground(colorCyan).Render(
		fmt.Sprintf("ci-farm monitor ── %d workers ── ↻ %s ── %s",
			len(allMetrics), refreshInterval, time.Now().Format("15:04:05")))

	return headerStyle.Render(title + "\n" + strings.Join(parts, "    "))
}

func renderPanel(metrics *Metrics) string {
	worker := metrics.Worker

	if !metrics.Online {
		content := renderTitle(redStyle, worker.Name) + "\n" +
			dimStyle.Render(fmt.Sprintf("%s@%s:%d", worker.User, worker.Host, worker.Port)) + "\n\n" +
			redStyle.Render(errorOrDefault(metrics.Err))

		return panelStyle.BorderForeground(colorRed).Render(content)
	}

	var lines []string

	stateStyle, borderColor := greenStyle, colorGreen
	if metrics.Busy {
		stateStyle, borderColor = yellowStyle, colorYellow
	}

	lines = append(lines,
		renderTitle(stateStyle, worker.Name),
		dimStyle.Render(fmt.Sprintf("%s@%s  %s", worker.User, worker.Host, metrics.OSInfo)),
		"",
	)

	cores := metrics.CPUCores
	if cores < 1 {
		cores = 1
	}

	cpuPct := percentage(metrics.Load1, float64(cores))
	coresLabel := ""
	if metrics.CPUCores > 0 {
		coresLabel = dimStyle.Render(fmt.Sprintf("%dc", metrics.CPUCores))
	}

	lines = append(lines, fmt.Sprintf("%s %s %4.0f%%  %s",
		boldStyle.Render("CPU "), renderBar(cpuPct), cpuPct, coresLabel))

	memPct := percentage(float64(metrics.MemUsed), float64(metrics.MemTotal))
	lines = append(lines,
		fmt.Sprintf("%s %s %4.0f%%", boldStyle.Render("MEM "), renderBar(memPct), memPct),
		dimStyle.Render(fmt.Sprintf("      %s / %s", formatBytes(metrics.MemUsed), formatBytes(metrics.MemTotal))),
	)

	diskPct := percentage(float64(metrics.DiskUsed), float64(metrics.DiskTotal))
	lines = append(lines,
		fmt.Sprintf("%s %s %4.0f%%", boldStyle.Render("DISK"), renderBar(diskPct), diskPct),
		dimStyle.Render(fmt.Sprintf("      %s / %s", formatBytes(metrics.DiskUsed), formatBytes(metrics.DiskTotal))),
		"",
	)

	tempLabel := dimStyle.Render("N/A")
	if metrics.HasTemperature {
		tempLabel = tempStyle(metrics.Temperature).Render(fmt.Sprintf("%.1f°C", metrics.Temperature))
	}

	lines = append(lines,
		fmt.Sprintf("%s %s    %s %s",
			boldStyle.Render("Temp"), tempLabel,
			boldStyle.Render("Load"),
			dimStyle.Render(fmt.Sprintf("%.2f / %.2f / %.2f", metrics.Load1, metrics.Load5, metrics.Load15))),
		fmt.Sprintf("%s %s", boldStyle.Render("Up  "), formatUptime(metrics.Uptime)),
	)

	if metrics.Busy {
		project := metrics.BusyProject
		if project == "" {
			project = "unknown"
		}

		lines = append(lines, yellowStyle.Render(
			fmt.Sprintf("Build: %s (%s)", project, formatUptime(metrics.BusyFor))))
	}

	return panelStyle.BorderForeground(borderColor).Render(strings.Join(lines, "\n"))
}

func renderTitle(stateStyle lipgloss.Style, name string) string {
	return stateStyle.Render("●") + " " + boldStyle.Render(name)
}

func renderBar(pct float64) string {
	filled := int(barWidth * pct / 100)
	if filled > barWidth {
		filled = barWidth
	}

	bar := usageStyle(pct).Render(strings.Repeat("█", filled))

	return bar + dimStyle.Render(strings.Repeat("░", barWidth-filled))
}

func usageStyle(pct float64) lipgloss.Style {
	switch {
	case pct >= usageCritThreshold:
		return redStyle
	case pct >= usageWarnThreshold:
		return yellowStyle
	default:
		return greenStyle
	}
}

func tempStyle(temp float64) lipgloss.Style {
	switch {
	case temp >= tempCritThreshold:
		return redStyle
	case temp >= tempWarnThreshold:
		return yellowStyle
	default:
		return greenStyle
	}
}

func errorOrDefault(message string) string {
	if message == "" {
		return "connection failed"
	}

	return message
}

func percentage(used, total float64) float64 {
	if total <= 0 {
		return 0
	}

	pct := used / total * 100
	if pct > 100 {
		return 100
	}

	return pct
}

func formatBytes(n uint64) string {
	if n == 0 {
		return "0 B"
	}

	units := []string{"B", "KiB", "MiB", "GiB", "TiB"}
	value := float64(n)

	for _, unit := range units[:len(units)-1] {
		if value < bytesPerKiB {
			return fmt.Sprintf("%.1f %s", value, unit)
		}

		value /= bytesPerKiB
	}

	return fmt.Sprintf("%.1f %s", value, units[len(units)-1])
}

func formatUptime(d time.Duration) string {
	seconds := int64(d.Seconds())

	days := seconds / 86400
	hours := (seconds % 86400) / 3600
	minutes := (seconds % 3600) / 60

	var parts []string

	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}

	if hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}

	return strings.Join(append(parts, fmt.Sprintf("%dm", minutes)), " ")
}
