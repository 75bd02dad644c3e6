package progress

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/sonemaro/traverser/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

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

type testWriter struct {
	buffer bytes.Buffer
	mu     sync.Mutex
}

func (w *testWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buffer.Write(p)
}

func (w *testWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buffer.String()
}

func TestProgress(t *testing.T) {
	tests := []struct {
		name       string
		config     Config
		operations func(Progress)
		verify     func(*testing.T, string)
	}{
		{
			name: "bar shows settled over emitted",
			config: Config{
				Style:       StyleBar,
				Width:       50,
				NoColor:     true,
				RefreshRate: 10 * time.Millisecond,
			},
			operations: func(p Progress) {
				p.Start("Hashing files")
				p.Update(Status{Emitted: 10, Settled: 5, CurrentItem: "/data/file.txt"})
				time.Sleep(20 * time.Millisecond)
				p.Complete("Complete")
			},
			verify: func(t *testing.T, output string) {
				assert.Contains(t, output, " 50%")
				assert.Contains(t, output, "/data/file.txt")
				assert.Contains(t, output, "Complete")
				assert.Contains(t, output, "100%")
			},
		},
		{
			name: "simple with stats",
			config: Config{
				Style:       StyleSimple,
				ShowStats:   true,
				NoColor:     true,
				RefreshRate: 10 * time.Millisecond,
			},
			operations: func(p Progress) {
				p.Start("Listing")
				p.Update(Status{Emitted: 4, Settled: 3, BytesRead: 2048})
				p.Error("Traversal failed")
			},
			verify: func(t *testing.T, output string) {
				assert.Contains(t, output, "(75%)")
				assert.Contains(t, output, "2.0 KB")
				assert.Contains(t, output, "Traversal failed")
			},
		},
		{
			name: "spinner marks provisional totals",
			config: Config{
				Style:       StyleSpinner,
				NoColor:     true,
				RefreshRate: 10 * time.Millisecond,
			},
			operations: func(p Progress) {
				p.Start("Walking")
				p.Update(Status{Emitted: 7, Settled: 2})
				p.Update(Status{Emitted: 9, Settled: 9, Sealed: true})
			},
			verify: func(t *testing.T, output string) {
				assert.Contains(t, output, "2/7+")
				assert.Contains(t, output, "9/9")
			},
		},
		{
			name: "colored error message",
			config: Config{
				Style:       StyleSimple,
				RefreshRate: 10 * time.Millisecond,
			},
			operations: func(p Progress) {
				p.Start("Listing")
				p.Error("Error: walk failed")
			},
			verify: func(t *testing.T, output string) {
				assert.Contains(t, output, "\033[31mError: walk failed\033[0m")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &testWriter{}
			tt.config.Writer = w

			p := New(tt.config, &mockLogger{})
			require.NotNil(t, p)

			done := make(chan struct{})
			go func() {
				defer close(done)
				tt.operations(p)
			}()

			select {
			case <-done:
			case <-time.After(time.Second):
				t.Fatal("operations did not finish")
			}

			p.Stop()
			tt.verify(t, w.String())
		})
	}
}

func TestProgressEdgeCases(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		expect string
	}{
		{name: "nothing emitted", status: Status{}, expect: "  0%"},
		{name: "settled exceeds emitted", status: Status{Emitted: 2, Settled: 3}, expect: "100%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &testWriter{}
			p := New(Config{Style: StyleBar, Width: 40, NoColor: true, Writer: w}, nil)

			p.Start("Starting")
			p.Update(tt.status)
			p.Stop()

			assert.Contains(t, w.String(), tt.expect)
		})
	}
}

func TestStopIsIdempotent(t *testing.T) {
	w := &testWriter{}
	p := New(Config{Style: StyleBar, RefreshRate: time.Millisecond, Writer: w}, nil)

	p.Start("Starting")
	for i := 0; i < 100; i++ {
		p.Update(Status{Emitted: 100, Settled: int64(i)})
	}

	p.Complete("Complete")
	p.Stop()
	p.Stop()

	// A finished display does not restart.
	p.Start("Again")
	p.Stop()

	assert.NotEmpty(t, w.String())
}

func TestCalculateStats(t *testing.T) {
	p := New(Config{Writer: &testWriter{}}, nil).(*progress)
	p.startTime = time.Now().Add(-2 * time.Second)
	p.status = Status{Emitted: 10, Settled: 4, Sealed: true, BytesRead: 99}

	stats := p.calculateStats()
	assert.InDelta(t, 40.0, stats.ProgressPercentage, 0.01)
	assert.InDelta(t, 2.0, stats.ProcessingSpeed, 0.1)
	assert.InDelta(t, float64(3*time.Second), float64(stats.RemainingTime), float64(200*time.Millisecond))
	assert.Equal(t, int64(99), stats.BytesProcessed)

	p.status.Sealed = false
	assert.Zero(t, p.calculateStats().RemainingTime)
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "0s", formatDuration(0))
	assert.Equal(t, "42s", formatDuration(42*time.Second))
	assert.Equal(t, "2m5s", formatDuration(125*time.Second))
	assert.Equal(t, "1h1m1s", formatDuration(time.Hour+time.Minute+time.Second))

	assert.Equal(t, "512 B", formatSize(512))
	assert.Equal(t, "1.5 KB", formatSize(1536))
	assert.Equal(t, "1.0 MB", formatSize(1<<20))
}
