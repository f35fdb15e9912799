package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capture routes log output into a buffer for the duration of the test.
func capture(t *testing.T, lvl, format string) *bytes.Buffer {
	t.Helper()
	prev := snapshot()
	prevLevel := GetLevel()

	buf := new(bytes.Buffer)
	InitWithWriter(buf, lvl, format, false)

	t.Cleanup(func() {
		restored := prev
		swap(&restored)
		SetLevel(prevLevel)
	})
	return buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for line := range strings.SplitSeq(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		out = append(out, entry)
	}
	return out
}

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		level string
		want  []string
	}{
		{"DEBUG", []string{"d", "i", "w", "e"}},
		{"INFO", []string{"i", "w", "e"}},
		{"WARN", []string{"w", "e"}},
		{"ERROR", []string{"e"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf := capture(t, tt.level, "json")

			Debug("d")
			Info("i")
			Warn("w")
			Error("e")

			var got []string
			for _, e := range decodeLines(t, buf) {
				got = append(got, e["msg"].(string))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetLevel(t *testing.T) {
	capture(t, "INFO", "text")

	SetLevel("debug")
	assert.Equal(t, "DEBUG", GetLevel())

	SetLevel("bogus")
	assert.Equal(t, "DEBUG", GetLevel(), "unknown levels are ignored")

	SetLevel("Warn")
	assert.Equal(t, "WARN", GetLevel())
}

func TestTextFormat(t *testing.T) {
	t.Run("LineLayout", func(t *testing.T) {
		buf := capture(t, "INFO", "text")

		Info("gc cycle complete", Victim(3), Migrated(12))

		line := buf.String()
		assert.Regexp(t, `^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d{3} INFO  gc cycle complete`, line)
		assert.Contains(t, line, " victim=3")
		assert.Contains(t, line, " migrated=12")
		assert.True(t, strings.HasSuffix(line, "\n"))
	})

	t.Run("QuotesAmbiguousStrings", func(t *testing.T) {
		buf := capture(t, "INFO", "text")

		Info("open", Path("/tmp/my media"), "empty", "")

		assert.Contains(t, buf.String(), `path="/tmp/my media"`)
		assert.Contains(t, buf.String(), `empty=""`)
	})

	t.Run("ErrorValues", func(t *testing.T) {
		buf := capture(t, "INFO", "text")

		Warn("media read failed", Err(errors.New("short read")))

		assert.Contains(t, buf.String(), `error="short read"`)
	})

	t.Run("GroupsAndBoundAttrs", func(t *testing.T) {
		buf := capture(t, "INFO", "text")

		With(Backend("mmap")).WithGroup("gc").Info("cycle", Block(2), slog.Group("wa", "host", 4, "nand", 6))

		line := buf.String()
		assert.Contains(t, line, " backend=mmap")
		assert.Contains(t, line, " gc.block=2")
		assert.Contains(t, line, " gc.wa.host=4")
		assert.Contains(t, line, " gc.wa.nand=6")
	})

	t.Run("ColorWrapsLevel", func(t *testing.T) {
		buf := new(bytes.Buffer)
		h := newTextHandler(buf, &slog.HandlerOptions{}, true)
		require.NoError(t, slog.New(h).Handler().Handle(context.Background(),
			slog.NewRecord(time.Now(), slog.LevelWarn, "hot", 0)))

		assert.Contains(t, buf.String(), colorYellow+"WARN "+colorReset)
	})
}

func TestJSONFormat(t *testing.T) {
	buf := capture(t, "INFO", "json")

	Info("write", Offset(4096), Length(512), WA(1.5))

	entries := decodeLines(t, buf)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "INFO", e["level"])
	assert.Equal(t, float64(4096), e[KeyOffset])
	assert.Equal(t, float64(512), e[KeyLength])
	assert.Equal(t, 1.5, e[KeyWA])
	assert.NotEmpty(t, e["time"])
}

func TestSetFormat(t *testing.T) {
	buf := capture(t, "INFO", "text")

	Info("as text")
	SetFormat("json")
	Info("as json")
	SetFormat("yaml")
	Info("still json")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.False(t, json.Valid([]byte(lines[0])))
	assert.True(t, json.Valid([]byte(lines[1])))
	assert.True(t, json.Valid([]byte(lines[2])))
}

func TestContextLogging(t *testing.T) {
	t.Run("InjectsLogContext", func(t *testing.T) {
		buf := capture(t, "INFO", "json")

		lc := NewLogContext("10.0.0.7").WithRequestID("req-1").WithOperation("write").WithTrace("abc", "def")
		InfoCtx(WithContext(context.Background(), lc), "done", "extra", "v")

		e := decodeLines(t, buf)[0]
		assert.Equal(t, "abc", e[KeyTraceID])
		assert.Equal(t, "def", e[KeySpanID])
		assert.Equal(t, "req-1", e[KeyRequestID])
		assert.Equal(t, "write", e[KeyOperation])
		assert.Equal(t, "10.0.0.7", e[KeyClientIP])
		assert.Equal(t, "v", e["extra"])
	})

	t.Run("OmitsEmptyFields", func(t *testing.T) {
		buf := capture(t, "INFO", "json")

		WarnCtx(WithContext(context.Background(), &LogContext{Operation: "read"}), "slow")

		e := decodeLines(t, buf)[0]
		assert.Equal(t, "read", e[KeyOperation])
		assert.NotContains(t, e, KeyTraceID)
		assert.NotContains(t, e, KeyClientIP)
	})

	t.Run("PlainContext", func(t *testing.T) {
		buf := capture(t, "DEBUG", "text")

		require.NotPanics(t, func() {
			DebugCtx(context.Background(), "no log context")
			ErrorCtx(nil, "nil context") //nolint:staticcheck
		})
		assert.Contains(t, buf.String(), "no log context")
		assert.Contains(t, buf.String(), "nil context")
	})

	t.Run("FilteredBeforeFieldsAreBuilt", func(t *testing.T) {
		buf := capture(t, "ERROR", "json")

		InfoCtx(WithContext(context.Background(), NewLogContext("1.2.3.4")), "dropped")
		assert.Empty(t, buf.String())
	})
}

func TestLogContext(t *testing.T) {
	lc := NewLogContext("192.168.1.100")
	assert.Equal(t, "192.168.1.100", lc.ClientIP)
	assert.False(t, lc.StartTime.IsZero())

	derived := lc.WithOperation("format")
	assert.Equal(t, "format", derived.Operation)
	assert.Empty(t, lc.Operation, "With* must not mutate the receiver")

	var nilCtx *LogContext
	assert.Nil(t, nilCtx.Clone())
	assert.Nil(t, nilCtx.WithRequestID("x"))
	assert.Zero(t, nilCtx.DurationMs())
}

func TestFieldHelpers(t *testing.T) {
	assert.Equal(t, "3:7", PCA(3, 7).Value.String())
	assert.Equal(t, KeyPCA, PCA(3, 7).Key)
	assert.Equal(t, "", Err(nil).Key)
	assert.Equal(t, KeyError, Err(assert.AnError).Key)
	assert.GreaterOrEqual(t, Duration(time.Now().Add(-5*time.Millisecond)), 5.0)
}

func TestConcurrentLogging(t *testing.T) {
	buf := &lockedBuffer{}
	capture(t, "INFO", "json")
	InitWithWriter(buf, "INFO", "json", false)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 50 {
				Info("write", "worker", i, "n", j)
				if j%10 == 0 {
					SetLevel("INFO")
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 400, strings.Count(buf.String(), "\n"))
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestInit(t *testing.T) {
	t.Run("FileOutput", func(t *testing.T) {
		capture(t, "INFO", "text")
		path := filepath.Join(t.TempDir(), "ssdsim.log")

		require.NoError(t, Init(Config{Level: "WARN", Format: "json", Output: path}))
		Info("dropped")
		Warn("kept", FreeBlocks(1))
		require.NoError(t, Init(Config{Output: "stderr"}))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "dropped")
		assert.Contains(t, string(data), `"free_blocks":1`)
	})

	t.Run("BadPath", func(t *testing.T) {
		capture(t, "INFO", "text")
		err := Init(Config{Output: filepath.Join(t.TempDir(), "missing", "x.log")})
		assert.Error(t, err)
	})

	t.Run("EmptyConfigKeepsSettings", func(t *testing.T) {
		capture(t, "WARN", "text")
		require.NoError(t, Init(Config{}))
		assert.Equal(t, "WARN", GetLevel())
	})
}
