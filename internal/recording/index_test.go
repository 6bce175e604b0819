package recording

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRecording(t *testing.T, path string) Recording {
	t.Helper()
	rec, ok := FromPath(path)
	require.True(t, ok, "unparseable test path %s", path)
	return rec
}

func at(hour, minute, second int) time.Time {
	return time.Date(2025, 3, 10, hour, minute, second, 0, time.UTC)
}

func TestIndex_MatchContainment(t *testing.T) {
	t.Parallel()

	idx := NewIndex([]Recording{
		mustRecording(t, "/d/foo_1_2025-03-10_18-00-00.wav"),
		mustRecording(t, "/d/foo_1_2025-03-10_20-00-00.wav"),
	})

	tests := []struct {
		name     string
		t        time.Time
		wantName string
		wantOK   bool
	}{
		{"window start is inclusive", at(18, 0, 0), "foo_1_2025-03-10_18-00-00", true},
		{"inside window", at(18, 14, 52), "foo_1_2025-03-10_18-00-00", true},
		{"last second of window", at(18, 59, 59), "foo_1_2025-03-10_18-00-00", true},
		{"window end is exclusive", at(19, 0, 0), "", false},
		{"second recording", at(20, 30, 0), "foo_1_2025-03-10_20-00-00", true},
		{"before first recording", at(17, 59, 59), "", false},
		{"other day", time.Date(2025, 3, 11, 18, 10, 0, 0, time.UTC), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec, ok := idx.Match(tt.t)
			require.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.wantName, rec.Name)
				assert.True(t, rec.Contains(tt.t))
			}
		})
	}
}

func TestIndex_OverlapEarliestStartWins(t *testing.T) {
	t.Parallel()

	late := mustRecording(t, "/d/a_1_2025-03-10_18-30-00.wav")
	early := mustRecording(t, "/d/z_1_2025-03-10_18-00-00.wav")
	idx := NewIndex([]Recording{late, early})

	rec, ok := idx.Match(at(18, 45, 0))
	require.True(t, ok)
	assert.Equal(t, early.Path, rec.Path)
}

func TestIndex_SameStartLexicalPathWins(t *testing.T) {
	t.Parallel()

	b := mustRecording(t, "/d/b_1_2025-03-10_18-00-00.wav")
	a := mustRecording(t, "/d/a_1_2025-03-10_18-00-00.wav")

	for range 5 {
		rec, ok := NewIndex([]Recording{b, a}).Match(at(18, 10, 0))
		require.True(t, ok)
		assert.Equal(t, a.Path, rec.Path)
	}
}

func TestIndex_OnDateSorted(t *testing.T) {
	t.Parallel()

	recs := []Recording{
		mustRecording(t, "/d/x_1_2025-03-10_21-00-00.wav"),
		mustRecording(t, "/d/x_1_2025-03-11_01-00-00.wav"),
		mustRecording(t, "/d/x_1_2025-03-10_03-00-00.wav"),
	}
	idx := NewIndex(recs)

	assert.Equal(t, 3, idx.Len())
	day := idx.OnDate(Date{Year: 2025, Month: time.March, Day: 10})
	require.Len(t, day, 2)
	assert.Equal(t, 3, day[0].Start.Hour())
	assert.Equal(t, 21, day[1].Start.Hour())
	assert.Empty(t, idx.OnDate(Date{Year: 2025, Month: time.March, Day: 12}))

	// input order untouched
	assert.Equal(t, 21, recs[0].Start.Hour())
}

func TestIndex_ByName(t *testing.T) {
	t.Parallel()

	rec := mustRecording(t, "/d/foo_1_2025-03-10_18-00-00.wav")
	idx := NewIndex([]Recording{rec})

	got, ok := idx.ByName("foo_1_2025-03-10_18-00-00")
	require.True(t, ok)
	assert.Equal(t, rec.Path, got.Path)

	_, ok = idx.ByName("2025-Mar-10_18-00-00_unmatched")
	assert.False(t, ok)
}
