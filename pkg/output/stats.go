package output

import (
	"fmt"
	"strings"

	"github.com/sonemaro/traverser/pkg/logger"
)

// stats summarizes a report
type stats struct {
	RunID      string `json:"runId" yaml:"runId"`
	State      string `json:"state" yaml:"state"`
	FileRoots  int    `json:"fileRoots" yaml:"fileRoots"`
	DirRoots   int    `json:"directoryRoots" yaml:"directoryRoots"`
	Emitted    int64  `json:"emitted" yaml:"emitted"`
	Duplicates int64  `json:"duplicates" yaml:"duplicates"`
	Filtered   int64  `json:"filtered" yaml:"filtered"`
	Rejected   int64  `json:"rejected" yaml:"rejected"`
	Failed     int    `json:"failed" yaml:"failed"`
	TotalSize  int64  `json:"totalSize" yaml:"totalSize"`
	Duration   string `json:"duration" yaml:"duration"`
}

func (f *formatter) calculateStats(report *Report) *stats {
	f.log.Debug("Calculating report statistics")

	s := &stats{
		RunID:      report.Stats.RunID,
		State:      report.Stats.State.String(),
		FileRoots:  report.Stats.FileRoots,
		DirRoots:   report.Stats.DirRoots,
		Emitted:    report.Stats.Emitted,
		Duplicates: report.Stats.Duplicates,
		Filtered:   report.Stats.Filtered,
		Rejected:   report.Stats.Rejected,
		Duration:   report.Stats.Duration.String(),
	}

	for _, e := range report.Entries {
		s.TotalSize += e.Size
		if e.Error != "" {
			s.Failed++
		}
	}

	f.log.WithFields(logger.Fields{
		"emitted": s.Emitted,
		"failed":  s.Failed,
		"size":    s.TotalSize,
	}).Debug("Statistics calculated")

	return s
}

func (f *formatter) writeStats(builder *strings.Builder, report *Report) {
	f.log.Debug("Adding statistics to output")

	s := f.calculateStats(report)
	builder.WriteString("\nStatistics:\n")
	builder.WriteString(fmt.Sprintf("  Run: %s\n", s.RunID))
	builder.WriteString(fmt.Sprintf("  State: %s\n", s.State))
	builder.WriteString(fmt.Sprintf("  Roots: %d files, %d directories\n", s.FileRoots, s.DirRoots))
	builder.WriteString(fmt.Sprintf("  Emitted: %d\n", s.Emitted))
	builder.WriteString(fmt.Sprintf("  Duplicates Skipped: %d\n", s.Duplicates))
	builder.WriteString(fmt.Sprintf("  Filtered: %d\n", s.Filtered))
	if s.Failed > 0 || s.Rejected > 0 {
		builder.WriteString(fmt.Sprintf("  Failed: %d\n", s.Failed))
	}
	builder.WriteString(fmt.Sprintf("  Total Size: %s\n", FormatSize(s.TotalSize)))
	builder.WriteString(fmt.Sprintf("  Duration: %s\n", s.Duration))
}

// FormatSize renders a byte count with a binary unit suffix.
func FormatSize(bytes int64) string {
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
