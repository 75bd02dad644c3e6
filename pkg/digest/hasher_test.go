package digest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sonemaro/traverser/pkg/logger"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements logger.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Info(msg string)                               {}
func (m *mockLogger) Debug(msg string)                              {}
func (m *mockLogger) Error(msg string)                              {}
func (m *mockLogger) Warn(msg string)                               {}
func (m *mockLogger) Trace(msg string)                              {}
func (m *mockLogger) WithFields(fields logger.Fields) logger.Logger { return m }

// brokenFs fails to open one file.
type brokenFs struct {
	afero.Fs
	broken string
}

func (f *brokenFs) Open(name string) (afero.File, error) {
	if filepath.Clean(name) == f.broken {
		return nil, os.ErrPermission
	}
	return f.Fs.Open(name)
}

func writeFiles(t *testing.T, fs afero.Fs, files map[string]string) {
	t.Helper()
	for path, content := range files {
		require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0644))
	}
}

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		input   string
		want    Algorithm
		wantErr bool
	}{
		{input: "sha256", want: SHA256},
		{input: "SHA1", want: SHA1},
		{input: " md5 ", want: MD5},
		{input: "", want: SHA256},
		{input: "crc32", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAlgorithm(tt.input)
			if tt.wantErr {
				var algErr *UnsupportedAlgorithmError
				require.True(t, errors.As(err, &algErr))
				assert.Contains(t, err.Error(), "crc32")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSum(t *testing.T) {
	tests := []struct {
		name       string
		algorithm  Algorithm
		bufferSize int
		content    string
		expected   string
	}{
		{
			name:      "sha256",
			algorithm: SHA256,
			content:   "hello",
			expected:  "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		},
		{
			name:      "sha1",
			algorithm: SHA1,
			content:   "hello",
			expected:  "aaf4c61ddcc5e8a2dabede0f3b482cd9aea9434d",
		},
		{
			name:      "md5",
			algorithm: MD5,
			content:   "hello",
			expected:  "5d41402abc4b2a76b9719d911017c592",
		},
		{
			name:       "buffer smaller than content",
			algorithm:  SHA256,
			bufferSize: 2,
			content:    "hello",
			expected:   "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		},
		{
			name:      "empty file",
			algorithm: SHA256,
			content:   "",
			expected:  "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			writeFiles(t, fs, map[string]string{"/data/file": tt.content})

			h, err := NewHasher(fs, Config{
				Algorithm:  tt.algorithm,
				BufferSize: tt.bufferSize,
			}, &mockLogger{})
			require.NoError(t, err)

			entry, err := h.Sum(context.Background(), "/data/file")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, entry.Digest)
			assert.Equal(t, int64(len(tt.content)), entry.Size)
			assert.Equal(t, int64(len(tt.content)), h.BytesRead())
			assert.Equal(t, int64(1), h.FilesHashed())
		})
	}
}

func TestSumErrors(t *testing.T) {
	base := afero.NewMemMapFs()
	writeFiles(t, base, map[string]string{
		"/data/ok":     "ok",
		"/data/broken": "nope",
	})
	require.NoError(t, afero.WriteFile(base, "/data/locked", []byte("x"), 0000))

	fs := &brokenFs{Fs: base, broken: "/data/broken"}

	h, err := NewHasher(fs, Config{}, nil)
	require.NoError(t, err)
	assert.Equal(t, SHA256, h.Algorithm())

	t.Run("missing file", func(t *testing.T) {
		entry, err := h.Sum(context.Background(), "/data/missing")
		var readErr *ReadError
		require.True(t, errors.As(err, &readErr))
		assert.Equal(t, "stat", readErr.Op)
		assert.Equal(t, err, entry.Err)
	})

	t.Run("open failure", func(t *testing.T) {
		_, err := h.Sum(context.Background(), "/data/broken")
		assert.ErrorIs(t, err, os.ErrPermission)
	})

	t.Run("unreadable mode", func(t *testing.T) {
		_, err := h.Sum(context.Background(), "/data/locked")
		assert.ErrorIs(t, err, os.ErrPermission)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := h.Sum(ctx, "/data/ok")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestNewHasherRejectsUnknownAlgorithm(t *testing.T) {
	_, err := NewHasher(afero.NewMemMapFs(), Config{Algorithm: "whirlpool"}, nil)
	assert.Error(t, err)
}
