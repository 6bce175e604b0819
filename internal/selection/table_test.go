package selection

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTable_Format(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, []Selection{
		{Index: 1, Begin: 890, End: 895, LowFreq: 100, HighFreq: 4000},
		{Index: 2, Begin: -1.5, End: 3.5, LowFreq: 12.346, HighFreq: 0},
	}))

	want := "Selection\tView\tChannel\tBegin Time (s)\tEnd Time (s)\tLow Freq (Hz)\tHigh Freq (Hz)\n" +
		"1\tSpectrogram 1\t1\t890.00\t895.00\t100.00\t4000.00\n" +
		"2\tSpectrogram 1\t1\t-1.50\t3.50\t12.35\t0.00\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteTableFile_AtomicAndOverwrites(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	name := "foo_1_2025-03-10_18-00-00"

	path, err := WriteTableFile(dir, name, []Selection{{Index: 1, Begin: 1, End: 6}})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, name+TableSuffix), path)

	path, err = WriteTableFile(dir, name, []Selection{{Index: 1, Begin: 2, End: 7}, {Index: 2, Begin: 3, End: 8}})
	require.NoError(t, err)

	sels, err := ReadTableFile(path)
	require.NoError(t, err)
	require.Len(t, sels, 2)
	assert.InDelta(t, 2.0, sels[0].Begin, 1e-9)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files must not remain")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(TableFilePermissions), info.Mode().Perm())
}

func TestWriteTableFile_MissingDir(t *testing.T) {
	t.Parallel()

	_, err := WriteTableFile(filepath.Join(t.TempDir(), "missing"), "x", nil)
	require.Error(t, err)
}

func TestReadTableFile_SkipsShortAndBadRows(t *testing.T) {
	t.Parallel()

	content := TableHeader +
		"1\tSpectrogram 1\t1\t10.00\t15.00\t100.00\t4000.00\n" +
		"short\trow\n" +
		"3\tSpectrogram 1\t1\tabc\t15.00\t100.00\t4000.00\n" +
		"4\tSpectrogram 1\t1\t20.50\t25.50\r\n"
	path := filepath.Join(t.TempDir(), "x"+TableSuffix)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	sels, err := ReadTableFile(path)
	require.NoError(t, err)
	require.Len(t, sels, 2)

	assert.Equal(t, 1, sels[0].Index)
	assert.InDelta(t, 4000.0, sels[0].HighFreq, 1e-9)
	assert.Equal(t, 4, sels[1].Index)
	assert.InDelta(t, 20.5, sels[1].Begin, 1e-9)
	assert.InDelta(t, 25.5, sels[1].End, 1e-9)
}

func TestReadTableFile_Missing(t *testing.T) {
	t.Parallel()

	_, err := ReadTableFile(filepath.Join(t.TempDir(), "absent.txt"))
	require.Error(t, err)
}

func TestNameFromTableFile(t *testing.T) {
	t.Parallel()

	name, ok := NameFromTableFile("/out/foo_1_2025-03-10_18-00-00_SelectionTable.txt")
	require.True(t, ok)
	assert.Equal(t, "foo_1_2025-03-10_18-00-00", name)

	_, ok = NameFromTableFile("/out/notes.txt")
	assert.False(t, ok)
}
