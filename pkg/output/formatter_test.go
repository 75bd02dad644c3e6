package output

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sonemaro/traverser/pkg/logger"
	"github.com/sonemaro/traverser/pkg/traverser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// mockLogger implements logger.Logger interface for testing
type mockLogger struct {
	mu   sync.Mutex
	logs []string
}

func (m *mockLogger) add(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, msg)
}

func (m *mockLogger) Info(msg string)                               { m.add("INFO: " + msg) }
func (m *mockLogger) Debug(msg string)                              { m.add("DEBUG: " + msg) }
func (m *mockLogger) Error(msg string)                              { m.add("ERROR: " + msg) }
func (m *mockLogger) Warn(msg string)                               { m.add("WARN: " + msg) }
func (m *mockLogger) Trace(msg string)                              { m.add("TRACE: " + msg) }
func (m *mockLogger) WithFields(fields logger.Fields) logger.Logger { return m }

func createTestReport() *Report {
	return &Report{
		Algorithm: "sha256",
		Entries: []Entry{
			{Path: "/root/dir1/file1.txt", Size: 100, Digest: "aaaa"},
			{Path: "/root/dir1/file2.json", Size: 200, Digest: "bbbb"},
			{Path: "/root/dir2/broken", Size: 0, Error: "open /root/dir2/broken: permission denied"},
			{Path: "/root/file3.txt", Size: 300, Digest: "cccc"},
		},
		Stats: traverser.Stats{
			RunID:      "run-1",
			State:      traverser.StateDone,
			DirRoots:   1,
			Emitted:    4,
			Duplicates: 2,
			Filtered:   1,
			Duration:   1500 * time.Millisecond,
		},
		Generated: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestFormatter(t *testing.T) {
	tests := []struct {
		name       string
		format     Format
		withStats  bool
		withColors bool
		verify     func(*testing.T, string, *mockLogger)
	}{
		{
			name:   "text format",
			format: FormatText,
			verify: func(t *testing.T, output string, log *mockLogger) {
				lines := strings.Split(strings.TrimSpace(output), "\n")
				require.Len(t, lines, 4)
				assert.Equal(t, "aaaa  /root/dir1/file1.txt", lines[0])
				assert.Equal(t, "/root/dir2/broken: open /root/dir2/broken: permission denied", lines[2])
				assert.NotContains(t, output, "Statistics")
			},
		},
		{
			name:      "text format with stats",
			format:    FormatText,
			withStats: true,
			verify: func(t *testing.T, output string, log *mockLogger) {
				assert.Contains(t, output, "Run: run-1")
				assert.Contains(t, output, "State: done")
				assert.Contains(t, output, "Emitted: 4")
				assert.Contains(t, output, "Duplicates Skipped: 2")
				assert.Contains(t, output, "Failed: 1")
				assert.Contains(t, output, "Total Size: 600 B")
				assert.Contains(t, log.logs, "DEBUG: Adding statistics to output")
			},
		},
		{
			name:   "tree format basic",
			format: FormatTree,
			verify: func(t *testing.T, output string, log *mockLogger) {
				assert.True(t, strings.HasPrefix(output, "/root/\n"))
				assert.Contains(t, output, "├── dir1/")
				assert.Contains(t, output, "│   ├── file1.txt  aaaa")
				assert.Contains(t, output, "│   └── file2.json  bbbb")
				assert.Contains(t, output, "├── dir2/")
				assert.Contains(t, output, "│   └── broken")
				assert.Contains(t, output, "└── file3.txt  cccc")
			},
		},
		{
			name:       "tree format with colors",
			format:     FormatTree,
			withColors: true,
			verify: func(t *testing.T, output string, log *mockLogger) {
				assert.Contains(t, output, "\x1b[34;1m") // bold blue directories
				assert.Contains(t, output, "\x1b[31m")   // red failures
				assert.Contains(t, output, "\x1b[0m")
			},
		},
		{
			name:   "json format",
			format: FormatJSON,
			verify: func(t *testing.T, output string, log *mockLogger) {
				assert.Contains(t, output, `"runId": "run-1"`)
				assert.Contains(t, output, `"algorithm": "sha256"`)
				assert.Contains(t, output, `"path": "/root/file3.txt"`)
				assert.Contains(t, output, `"error": "open /root/dir2/broken: permission denied"`)
				assert.NotContains(t, output, `"statistics"`)
				assert.Contains(t, log.logs, "DEBUG: Formatting JSON output")
			},
		},
		{
			name:      "json format with stats",
			format:    FormatJSON,
			withStats: true,
			verify: func(t *testing.T, output string, log *mockLogger) {
				assert.Contains(t, output, `"statistics"`)
				assert.Contains(t, output, `"emitted": 4`)
				assert.Contains(t, output, `"duration": "1.5s"`)
			},
		},
		{
			name:      "yaml format",
			format:    FormatYAML,
			withStats: true,
			verify: func(t *testing.T, output string, log *mockLogger) {
				var decoded struct {
					RunID string `yaml:"runId"`
					Files []struct {
						Path   string `yaml:"path"`
						Digest string `yaml:"digest"`
					} `yaml:"files"`
					Statistics struct {
						Failed int `yaml:"failed"`
					} `yaml:"statistics"`
				}
				require.NoError(t, yaml.Unmarshal([]byte(output), &decoded))
				assert.Equal(t, "run-1", decoded.RunID)
				require.Len(t, decoded.Files, 4)
				assert.Equal(t, "cccc", decoded.Files[3].Digest)
				assert.Equal(t, 1, decoded.Statistics.Failed)
				assert.Contains(t, log.logs, "DEBUG: Formatting YAML output")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := &mockLogger{}

			formatter := NewFormatter(Config{
				Format:     tt.format,
				WithStats:  tt.withStats,
				WithColors: tt.withColors,
			}, log)

			output, err := formatter.Format(createTestReport())

			require.NoError(t, err)
			require.NotEmpty(t, output)

			tt.verify(t, output, log)
		})
	}
}

func TestFormatterEdgeCases(t *testing.T) {
	tests := []struct {
		name      string
		report    *Report
		format    Format
		wantErr   bool
		errString string
	}{
		{
			name:      "nil report",
			report:    nil,
			format:    FormatTree,
			wantErr:   true,
			errString: "nil report",
		},
		{
			name:    "empty report",
			report:  &Report{},
			format:  FormatTree,
			wantErr: false,
		},
		{
			name:      "invalid format",
			report:    createTestReport(),
			format:    "invalid",
			wantErr:   true,
			errString: "unsupported format",
		},
		{
			name: "deep nesting",
			report: func() *Report {
				parts := []string{"/root"}
				for i := 0; i < 100; i++ {
					parts = append(parts, fmt.Sprintf("level%d", i))
				}
				return &Report{Entries: []Entry{
					{Path: strings.Join(append(parts, "leaf"), "/")},
					{Path: "/root/top"},
				}}
			}(),
			format:  FormatTree,
			wantErr: false,
		},
		{
			name: "large number of siblings",
			report: func() *Report {
				r := &Report{}
				for i := 0; i < 1000; i++ {
					r.Entries = append(r.Entries, Entry{Path: fmt.Sprintf("/root/file%d", i)})
				}
				return r
			}(),
			format:  FormatTree,
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := &mockLogger{}
			formatter := NewFormatter(Config{Format: tt.format}, log)

			output, err := formatter.Format(tt.report)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)

				hasError := false
				for _, logMsg := range log.logs {
					if strings.HasPrefix(logMsg, "ERROR: ") {
						hasError = true
						break
					}
				}
				assert.True(t, hasError, "Expected error log message not found")
			} else {
				assert.NoError(t, err)
				assert.NotEmpty(t, output)
			}
		})
	}
}

func TestCommonDir(t *testing.T) {
	tests := []struct {
		name     string
		paths    []string
		expected string
	}{
		{name: "none", expected: "."},
		{name: "single file", paths: []string{"/a/b/c.txt"}, expected: "/a/b"},
		{name: "siblings", paths: []string{"/a/b/c.txt", "/a/b/d.txt"}, expected: "/a/b"},
		{name: "nested", paths: []string{"/a/b/c.txt", "/a/b/x/y/z.txt"}, expected: "/a/b"},
		{name: "shared name prefix", paths: []string{"/data/a.txt", "/database/b.txt"}, expected: "/"},
		{name: "disjoint roots", paths: []string{"/x/1", "/y/2"}, expected: "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var entries []Entry
			for _, p := range tt.paths {
				entries = append(entries, Entry{Path: p})
			}
			assert.Equal(t, tt.expected, commonDir(entries))
		})
	}
}

func TestParseFormat(t *testing.T) {
	for _, name := range Formats() {
		f, err := ParseFormat(strings.ToUpper(name))
		require.NoError(t, err)
		assert.Equal(t, Format(name), f)
	}

	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "0 B", FormatSize(0))
	assert.Equal(t, "1.0 KB", FormatSize(1024))
	assert.Equal(t, "1.5 MB", FormatSize(1536*1024))
}
