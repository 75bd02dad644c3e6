package progress

import (
	"fmt"
	"strings"
	"time"
)

type renderer interface {
	render(Status, string, Statistics) string
}

type barRenderer struct {
	width     int
	noColor   bool
	showStats bool
}

func (r *barRenderer) render(status Status, message string, stats Statistics) string {
	var output strings.Builder

	if message != "" {
		output.WriteString("\r" + colorize(message, r.noColor) + "\n")
	}

	barWidth := r.width - 10 // room for the percentage
	if barWidth < 10 {
		barWidth = 10
	}

	filled := int(float64(barWidth) * stats.ProgressPercentage / 100)
	if filled > barWidth {
		filled = barWidth
	}

	output.WriteString("[")
	if !r.noColor {
		output.WriteString("\033[32m")
	}

	output.WriteString(strings.Repeat("=", filled))
	if filled < barWidth {
		output.WriteString(">")
		output.WriteString(strings.Repeat(" ", barWidth-filled-1))
	}

	if !r.noColor {
		output.WriteString("\033[0m")
	}

	output.WriteString("]")
	output.WriteString(fmt.Sprintf(" %3.0f%%", stats.ProgressPercentage))

	if status.CurrentItem != "" {
		output.WriteString(fmt.Sprintf("\n%s", status.CurrentItem))
	}

	if r.showStats {
		output.WriteString(fmt.Sprintf("\nSettled: %d/%s | Skipped: %d | Speed: %.1f/s | ETA: %s",
			status.Settled,
			emittedLabel(status),
			status.Skipped,
			stats.ProcessingSpeed,
			formatDuration(stats.RemainingTime)))
	}

	return output.String()
}

type spinnerRenderer struct {
	noColor   bool
	showStats bool
	frame     int
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func (r *spinnerRenderer) render(status Status, message string, stats Statistics) string {
	r.frame = (r.frame + 1) % len(spinnerFrames)
	spinner := spinnerFrames[r.frame]

	if !r.noColor {
		spinner = fmt.Sprintf("\033[36m%s\033[0m", spinner)
	}

	var output strings.Builder
	output.WriteString(fmt.Sprintf("\r%s %s %d/%s", spinner, message, status.Settled, emittedLabel(status)))

	if status.CurrentItem != "" {
		output.WriteString(fmt.Sprintf("\n%s", status.CurrentItem))
	}

	if r.showStats {
		output.WriteString(fmt.Sprintf("\nProgress: %.1f%% | Speed: %.1f/s",
			stats.ProgressPercentage,
			stats.ProcessingSpeed))
	}

	return output.String()
}

type simpleRenderer struct {
	noColor   bool
	showStats bool
}

func (r *simpleRenderer) render(status Status, message string, stats Statistics) string {
	var output strings.Builder

	output.WriteString(fmt.Sprintf("\r%s (%.0f%%)", colorize(message, r.noColor), stats.ProgressPercentage))

	if status.CurrentItem != "" {
		output.WriteString(fmt.Sprintf("\n%s", status.CurrentItem))
	}

	if r.showStats {
		output.WriteString(fmt.Sprintf("\nSettled: %d files | %s",
			stats.ItemsProcessed,
			formatSize(stats.BytesProcessed)))
	}

	return output.String()
}

// emittedLabel marks the emitted count as provisional while walks run.
func emittedLabel(status Status) string {
	if status.Sealed {
		return fmt.Sprintf("%d", status.Emitted)
	}
	return fmt.Sprintf("%d+", status.Emitted)
}

func colorize(message string, noColor bool) string {
	if noColor {
		return message
	}
	switch {
	case strings.Contains(message, "Error"), strings.Contains(message, "failed"):
		return fmt.Sprintf("\033[31m%s\033[0m", message)
	case strings.Contains(message, "Complete"):
		return fmt.Sprintf("\033[32m%s\033[0m", message)
	}
	return message
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm%ds", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
}

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
