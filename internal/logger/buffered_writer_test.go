package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferedFileWriter_Write(t *testing.T) {
	t.Parallel()

	logPath := filepath.Join(t.TempDir(), "test.log")

	writer, err := NewBufferedFileWriter(logPath, WithFlushInterval(0))
	require.NoError(t, err)
	defer func() { _ = writer.Close() }()

	testData := "segment written\n"
	n, err := writer.Write([]byte(testData))
	require.NoError(t, err)
	assert.Equal(t, len(testData), n)
	assert.Positive(t, writer.Buffered())

	require.NoError(t, writer.Flush())
	assert.Equal(t, 0, writer.Buffered())

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Equal(t, testData, string(content))
}

func TestBufferedFileWriter_AutoFlush(t *testing.T) {
	t.Parallel()

	logPath := filepath.Join(t.TempDir(), "auto.log")

	writer, err := NewBufferedFileWriter(logPath, WithFlushInterval(20*time.Millisecond))
	require.NoError(t, err)
	defer func() { _ = writer.Close() }()

	_, err = writer.Write([]byte("tick\n"))
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		content, readErr := os.ReadFile(logPath)
		return readErr == nil && string(content) == "tick\n"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestBufferedFileWriter_CloseIsIdempotent(t *testing.T) {
	t.Parallel()

	logPath := filepath.Join(t.TempDir(), "close.log")

	writer, err := NewBufferedFileWriter(logPath)
	require.NoError(t, err)

	_, err = writer.Write([]byte("last line\n"))
	require.NoError(t, err)

	require.NoError(t, writer.Close())
	require.NoError(t, writer.Close())

	_, err = writer.Write([]byte("after close\n"))
	require.Error(t, err)

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Equal(t, "last line\n", string(content))
}

func TestBufferedFileWriter_ConcurrentWrites(t *testing.T) {
	t.Parallel()

	logPath := filepath.Join(t.TempDir(), "concurrent.log")

	writer, err := NewBufferedFileWriter(logPath, WithBufferSize(64))
	require.NoError(t, err)

	const workers = 8
	const linesPerWorker = 100

	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range linesPerWorker {
				line := fmt.Sprintf("worker=%d line=%03d payload=%s\n", w, i, strings.Repeat("x", 40))
				_, _ = writer.Write([]byte(line))
			}
		}()
	}
	wg.Wait()
	require.NoError(t, writer.Close())

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(string(content), "\n"), "\n")
	require.Len(t, lines, workers*linesPerWorker)
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, "worker="), "interleaved line: %q", line)
		assert.True(t, strings.HasSuffix(line, strings.Repeat("x", 40)), "interleaved line: %q", line)
	}
}

func TestBufferedFileWriter_AppendAndTruncate(t *testing.T) {
	t.Parallel()

	logPath := filepath.Join(t.TempDir(), "mode.log")
	require.NoError(t, os.WriteFile(logPath, []byte("previous run\n"), 0o600))

	appendWriter, err := NewBufferedFileWriter(logPath)
	require.NoError(t, err)
	_, err = appendWriter.Write([]byte("appended\n"))
	require.NoError(t, err)
	require.NoError(t, appendWriter.Close())

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Equal(t, "previous run\nappended\n", string(content))

	truncWriter, err := NewBufferedFileWriter(logPath, WithTruncate(true))
	require.NoError(t, err)
	_, err = truncWriter.Write([]byte("fresh\n"))
	require.NoError(t, err)
	require.NoError(t, truncWriter.Close())

	content, err = os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Equal(t, "fresh\n", string(content))
}

func TestBufferedFileWriter_FilePath(t *testing.T) {
	t.Parallel()

	logPath := filepath.Join(t.TempDir(), "path.log")
	writer, err := NewBufferedFileWriter(logPath)
	require.NoError(t, err)
	defer func() { _ = writer.Close() }()

	assert.Equal(t, logPath, writer.FilePath())
}

func TestNewBufferedFileWriter_InvalidPath(t *testing.T) {
	t.Parallel()

	_, err := NewBufferedFileWriter(filepath.Join(t.TempDir(), "missing", "dir", "x.log"))
	require.Error(t, err)
}
