package output

import (
	"encoding/json"
	"time"

	"github.com/sonemaro/traverser/pkg/logger"
)

// jsonEntry represents an entry in JSON and YAML output
type jsonEntry struct {
	Path   string `json:"path" yaml:"path"`
	Size   int64  `json:"size" yaml:"size"`
	Digest string `json:"digest,omitempty" yaml:"digest,omitempty"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

// jsonOutput represents the complete JSON and YAML output
type jsonOutput struct {
	RunID      string      `json:"runId" yaml:"runId"`
	Algorithm  string      `json:"algorithm,omitempty" yaml:"algorithm,omitempty"`
	Files      []jsonEntry `json:"files" yaml:"files"`
	Statistics *stats      `json:"statistics,omitempty" yaml:"statistics,omitempty"`
	Generated  time.Time   `json:"generated" yaml:"generated"`
}

func (f *formatter) buildOutput(report *Report) *jsonOutput {
	generated := report.Generated
	if generated.IsZero() {
		generated = time.Now()
	}

	out := &jsonOutput{
		RunID:     report.Stats.RunID,
		Algorithm: report.Algorithm,
		Files:     make([]jsonEntry, 0, len(report.Entries)),
		Generated: generated,
	}

	for _, e := range report.Entries {
		out.Files = append(out.Files, jsonEntry(e))
	}

	if f.config.WithStats {
		out.Statistics = f.calculateStats(report)
	}

	return out
}

func (f *formatter) formatJSON(report *Report) (string, error) {
	f.log.Debug("Formatting JSON output")

	bytes, err := json.MarshalIndent(f.buildOutput(report), "", "  ")
	if err != nil {
		f.log.WithFields(logger.Fields{
			"error": err,
		}).Error("Failed to marshal JSON")
		return "", err
	}

	return string(bytes) + "\n", nil
}
