package tradelog

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closeRecorder struct {
	bytes.Buffer
	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}

func TestSinkFlushesAtThreshold(t *testing.T) {
	t.Parallel()

	var out closeRecorder
	s := NewSink(&out, 10)

	n, err := s.Write([]byte("12345"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, 0, out.Len(), "below threshold stays buffered")
	assert.Equal(t, 5, s.Buffered())

	_, err = s.Write([]byte("67890"))
	require.NoError(t, err)
	assert.Equal(t, "1234567890", out.String())
	assert.Equal(t, 0, s.Buffered())

	_, err = s.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, "1234567890", out.String())

	require.NoError(t, s.Close())
	assert.Equal(t, "1234567890abc", out.String())
	assert.True(t, out.closed)
}

func TestSinkDefaultThreshold(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	s := NewSink(&out, 0)
	_, err := s.Write(bytes.Repeat([]byte("x"), DefaultThreshold-1))
	require.NoError(t, err)
	assert.Equal(t, 0, out.Len())

	_, err = s.Write([]byte("x"))
	require.NoError(t, err)
	assert.Equal(t, DefaultThreshold, out.Len())

	require.NoError(t, s.Close())
}

func TestOpenFileTruncates(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "trades.log")
	require.NoError(t, os.WriteFile(path, []byte("old run\n"), 0o644))

	s, err := OpenFile(path, 0)
	require.NoError(t, err)
	_, err = s.Write([]byte("new run\n"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new run\n", string(data))
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Level
		err  bool
	}{
		{"", None, false},
		{"None", None, false},
		{"off", None, false},
		{"Info", Errors, false},
		{"errors", Errors, false},
		{"All", All, false},
		{"verbose", All, false},
		{"loud", None, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.err {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	assert.Equal(t, "all", All.String())
	assert.Equal(t, "info", Errors.String())
	assert.Equal(t, "none", None.String())
}

func TestNewLoggerLevels(t *testing.T) {
	t.Parallel()

	t.Run("errors only", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := NewLogger(Errors, &buf)
		log.Info("entering trade")
		log.Warn("nothing to exit")
		out := buf.String()
		assert.NotContains(t, out, "entering trade")
		assert.Contains(t, out, "nothing to exit")
	})

	t.Run("all", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := NewLogger(All, &buf)
		log.Info("entering trade")
		log.Warn("nothing to exit")
		assert.Equal(t, 2, strings.Count(buf.String(), "\n"))
	})

	t.Run("none", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := NewLogger(None, &buf)
		log.Warn("nothing to exit")
		assert.Zero(t, buf.Len())
		assert.NotNil(t, NewLogger(All, nil))
	})
}
