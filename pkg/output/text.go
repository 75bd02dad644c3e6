package output

import (
	"strings"

	"github.com/fatih/color"
)

// formatText prints one line per entry: "<digest>  <path>" when a digest
// is present, the bare path otherwise.
func (f *formatter) formatText(report *Report) (string, error) {
	f.log.Debug("Formatting text output")

	var builder strings.Builder
	for _, e := range report.Entries {
		switch {
		case e.Error != "":
			line := e.Path + ": " + e.Error
			if f.config.WithColors {
				line = paint(color.FgRed).Sprint(line)
			}
			builder.WriteString(line)
		case e.Digest != "":
			builder.WriteString(e.Digest + "  " + e.Path)
		default:
			builder.WriteString(e.Path)
		}
		builder.WriteString("\n")
	}

	if f.config.WithStats {
		f.writeStats(&builder, report)
	}

	return builder.String(), nil
}
