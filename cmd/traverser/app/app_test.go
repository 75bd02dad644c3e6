package app

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sonemaro/traverser/internal/config"
	"github.com/sonemaro/traverser/pkg/logger"
	"github.com/sonemaro/traverser/pkg/output"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Workers:    2,
		Output:     "text",
		BufferSize: 4096,
		Algorithm:  "sha256",
		NoProgress: true,
		NoColor:    true,
	}
}

func setupFS(t *testing.T) afero.Fs {
	t.Helper()

	fs := afero.NewMemMapFs()
	files := map[string]string{
		"/proj/a.txt":          "hello",
		"/proj/sub/b.txt":      "",
		"/proj/vendor/lib.go":  "package lib",
		"/proj/sub/deep/c.txt": "hello",
	}
	for path, content := range files {
		require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0644))
	}
	return fs
}

func newTestApp(t *testing.T, cfg *config.Config, fs afero.Fs) (*App, *bytes.Buffer) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	a, err := New(cfg, WithFs(fs), WithOutput(&stdout, &stderr), WithLogger(logger.NewNop()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown() })

	return a, &stdout
}

func TestRun(t *testing.T) {
	const helloSum = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	const emptySum = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

	tests := []struct {
		name     string
		mutate   func(*config.Config)
		opts     RunOptions
		expected []string
	}{
		{
			name: "list overlapping inputs once",
			opts: RunOptions{Inputs: []string{"/proj", "/proj/sub", "/proj/a.txt"}, Format: output.FormatText},
			expected: []string{
				"/proj/a.txt",
				"/proj/sub/b.txt",
				"/proj/sub/deep/c.txt",
				"/proj/vendor/lib.go",
			},
		},
		{
			name:   "list with exclude",
			mutate: func(c *config.Config) { c.Excludes = []string{"/proj/vendor"} },
			opts:   RunOptions{Inputs: []string{"/proj"}, Format: output.FormatText},
			expected: []string{
				"/proj/a.txt",
				"/proj/sub/b.txt",
				"/proj/sub/deep/c.txt",
			},
		},
		{
			name:   "list with scope",
			mutate: func(c *config.Config) { c.Scope = "/proj/sub/" },
			opts:   RunOptions{Inputs: []string{"/proj"}, Format: output.FormatText},
			expected: []string{
				"/proj/sub/b.txt",
				"/proj/sub/deep/c.txt",
			},
		},
		{
			name: "digest",
			opts: RunOptions{Inputs: []string{"/proj/sub", "/proj/a.txt"}, Format: output.FormatText, Digest: true},
			expected: []string{
				helloSum + "  /proj/a.txt",
				emptySum + "  /proj/sub/b.txt",
				helloSum + "  /proj/sub/deep/c.txt",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			if tt.mutate != nil {
				tt.mutate(cfg)
			}

			a, stdout := newTestApp(t, cfg, setupFS(t))
			opts := tt.opts
			require.NoError(t, a.Run(&opts))

			lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
			assert.Equal(t, tt.expected, lines)
		})
	}
}

func TestRunWritesOutputFile(t *testing.T) {
	fs := setupFS(t)
	a, stdout := newTestApp(t, testConfig(), fs)

	require.NoError(t, a.Run(&RunOptions{
		Inputs:     []string{"/proj/sub"},
		Format:     output.FormatJSON,
		OutputPath: "/reports/out.json",
		WithStats:  true,
	}))

	assert.Empty(t, stdout.String())

	data, err := afero.ReadFile(fs, "/reports/out.json")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"path": "/proj/sub/b.txt"`)
	assert.Contains(t, string(data), `"emitted": 2`)
	assert.Contains(t, string(data), `"state": "done"`)
}

func TestRunDigestFailures(t *testing.T) {
	tests := []struct {
		name      string
		keepGoing bool
		wantErr   bool
	}{
		{name: "unreadable file fails the run", wantErr: true},
		{name: "keep going reports the failure", keepGoing: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := setupFS(t)
			require.NoError(t, afero.WriteFile(fs, "/proj/locked.txt", []byte("x"), 0000))

			cfg := testConfig()
			cfg.KeepGoing = tt.keepGoing

			a, stdout := newTestApp(t, cfg, fs)
			err := a.Run(&RunOptions{Inputs: []string{"/proj"}, Format: output.FormatText, Digest: true})

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "/proj/locked.txt")
				assert.Empty(t, stdout.String())
				return
			}

			require.NoError(t, err)
			assert.Contains(t, stdout.String(), "/proj/locked.txt: open /proj/locked.txt: permission denied")
		})
	}
}

func TestRunErrors(t *testing.T) {
	a, _ := newTestApp(t, testConfig(), setupFS(t))

	err := a.Run(&RunOptions{Inputs: []string{""}})
	assert.Error(t, err)

	cfg := testConfig()
	cfg.Scope = "("
	b, _ := newTestApp(t, cfg, setupFS(t))
	err = b.Run(&RunOptions{Inputs: []string{"/proj"}})
	assert.ErrorContains(t, err, "failed to prepare traversal")
}

func TestRunCancelled(t *testing.T) {
	a, _ := newTestApp(t, testConfig(), setupFS(t))
	a.cancel()

	err := a.Run(&RunOptions{Inputs: []string{"/proj"}, Digest: true})
	assert.ErrorContains(t, err, "cancel")
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Output = "xml"

	_, err := New(cfg)
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestShutdownIsIdempotent(t *testing.T) {
	a, _ := newTestApp(t, testConfig(), setupFS(t))
	require.NoError(t, a.Run(&RunOptions{Inputs: []string{"/proj"}, Digest: true}))

	assert.NoError(t, a.Shutdown())
	assert.NoError(t, a.Shutdown())
}
