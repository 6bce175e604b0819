package selection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/eloc-raven/internal/detection"
	"github.com/tphakala/eloc-raven/internal/recording"
)

var defaultParams = Params{TimeOffset: -2, SegmentLength: 5}

func det(ts time.Time, background, score float64, source string, row int) detection.Detection {
	return detection.Detection{
		Timestamp:  ts,
		Background: background,
		Class:      "trumpet",
		Score:      score,
		Source:     source,
		Row:        row,
	}
}

func TestGenerate_ElocScenario(t *testing.T) {
	t.Parallel()

	ref := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	ts := time.Date(2025, 3, 10, 18, 14, 52, 0, time.UTC)

	sels := Generate(ref, []detection.Detection{det(ts, 0.1, 0.8, "a.csv", 1)}, defaultParams)
	require.Len(t, sels, 1)

	assert.Equal(t, 1, sels[0].Index)
	assert.InDelta(t, 890.00, sels[0].Begin, 1e-9)
	assert.InDelta(t, 895.00, sels[0].End, 1e-9)
	assert.InDelta(t, 100.00, sels[0].LowFreq, 1e-9)
	assert.InDelta(t, 4000.00, sels[0].HighFreq, 1e-9)
}

func TestGenerate_OrderingAndConstantDuration(t *testing.T) {
	t.Parallel()

	ref := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	dets := []detection.Detection{
		det(ref.Add(30*time.Minute), 0.1, 0.2, "b.csv", 1),
		det(ref.Add(1*time.Second), 0.1, 0.3, "b.csv", 2),
		det(ref.Add(30*time.Minute), 0.1, 0.4, "a.csv", 7),
		det(ref.Add(59*time.Minute+59*time.Second), 0.1, 0.5, "a.csv", 8),
	}

	for _, p := range []Params{defaultParams, {TimeOffset: 0.333, SegmentLength: 2.5}, {TimeOffset: -7.125, SegmentLength: 0.1}} {
		sels := Generate(ref, dets, p)
		require.Len(t, sels, len(dets))

		for i, s := range sels {
			assert.Equal(t, i+1, s.Index)
			assert.InDelta(t, p.SegmentLength, s.Duration(), 0.0101, "selection %d with params %+v", s.Index, p)
			if i > 0 {
				assert.GreaterOrEqual(t, s.Begin, sels[i-1].Begin)
			}
		}
	}

	sels := Generate(ref, dets, defaultParams)
	// equal timestamps ordered by source file
	assert.InDelta(t, 2000.0, sels[1].HighFreq, 1e-9)
	assert.InDelta(t, 1000.0, sels[2].HighFreq, 1e-9)

	// input untouched
	assert.InDelta(t, 0.2, dets[0].Score, 1e-12)
}

func TestGenerate_NegativeBeginNotClamped(t *testing.T) {
	t.Parallel()

	ref := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	sels := Generate(ref, []detection.Detection{det(ref.Add(time.Second), 0, 0, "a.csv", 1)}, defaultParams)
	require.Len(t, sels, 1)
	assert.InDelta(t, -1.0, sels[0].Begin, 1e-9)
	assert.InDelta(t, 4.0, sels[0].End, 1e-9)
}

func TestGroupKeyName(t *testing.T) {
	t.Parallel()

	key := KeyOf(time.Date(2025, 3, 10, 18, 14, 52, 0, time.UTC))
	assert.Equal(t, "2025-Mar-10_18-00-00_unmatched", key.Name())
	assert.Equal(t, "2025-Mar-10_18-00-00_unmatched_SelectionTable.txt", TableFileName(key.Name()))

	assert.Equal(t, "2024-Dec-01_03-00-00_unmatched", KeyOf(time.Date(2024, 12, 1, 3, 0, 0, 0, time.UTC)).Name())
}

func TestBuildTables_MatchAndFallback(t *testing.T) {
	t.Parallel()

	rec, ok := recording.FromPath("/d/foo_1741605292068_2025-03-10_18-00-00.wav")
	require.True(t, ok)
	idx := recording.NewIndex([]recording.Recording{rec})

	matchedTS := time.Date(2025, 3, 10, 18, 14, 52, 0, time.UTC)
	lateA := time.Date(2025, 3, 10, 20, 10, 0, 0, time.UTC)
	lateB := time.Date(2025, 3, 10, 20, 5, 30, 0, time.UTC)

	plan := BuildTables(idx, []detection.Detection{
		det(lateA, 0.2, 0.9, "a.csv", 1),
		det(matchedTS, 0.1, 0.8, "a.csv", 2),
		det(lateB, 0.2, 0.7, "a.csv", 3),
	}, defaultParams)

	assert.Equal(t, 3, plan.Detections)
	assert.Equal(t, 2, plan.Unmatched)
	assert.Equal(t, 1, plan.FallbackGroups)
	require.Len(t, plan.Tables, 2)

	fallback := plan.Tables[0]
	assert.Equal(t, "2025-Mar-10_20-00-00_unmatched", fallback.Name)
	assert.False(t, fallback.Matched)
	assert.True(t, fallback.Reference.Equal(lateB))
	require.Len(t, fallback.Selections, 2)
	for _, s := range fallback.Selections {
		// earliest detection as reference keeps raw offsets non-negative
		assert.GreaterOrEqual(t, s.Begin-defaultParams.TimeOffset, 0.0)
	}
	assert.InDelta(t, -2.0, fallback.Selections[0].Begin, 1e-9)
	assert.InDelta(t, 268.0, fallback.Selections[1].Begin, 1e-9)

	table := plan.Tables[1]
	assert.Equal(t, rec.Name, table.Name)
	assert.True(t, table.Matched)
	assert.Equal(t, rec.Path, table.Recording.Path)
	require.Len(t, table.Selections, 1)
	assert.InDelta(t, 890.0, table.Selections[0].Begin, 1e-9)
}

func TestBuildTables_MergesCSVsSharingRecording(t *testing.T) {
	t.Parallel()

	rec, ok := recording.FromPath("/d/foo_1_2025-03-10_18-00-00.wav")
	require.True(t, ok)
	idx := recording.NewIndex([]recording.Recording{rec})

	base := rec.Start
	plan := BuildTables(idx, []detection.Detection{
		det(base.Add(10*time.Minute), 0.1, 0.5, "EI-results-1.csv", 1),
		det(base.Add(40*time.Minute), 0.1, 0.5, "EI-results-1.csv", 2),
		det(base.Add(20*time.Minute), 0.1, 0.5, "EI-results-2.csv", 1),
	}, defaultParams)

	require.Len(t, plan.Tables, 1)
	sels := plan.Tables[0].Selections
	require.Len(t, sels, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{sels[0].Index, sels[1].Index, sels[2].Index})
	assert.InDelta(t, 598.0, sels[0].Begin, 1e-9)
	assert.InDelta(t, 1198.0, sels[1].Begin, 1e-9)
	assert.InDelta(t, 2398.0, sels[2].Begin, 1e-9)
	assert.Zero(t, plan.Unmatched)
}

func TestBuildTables_Deterministic(t *testing.T) {
	t.Parallel()

	idx := recording.NewIndex(nil)
	dets := []detection.Detection{
		det(time.Date(2025, 3, 10, 5, 1, 0, 0, time.UTC), 0, 0.1, "a.csv", 1),
		det(time.Date(2025, 3, 11, 5, 2, 0, 0, time.UTC), 0, 0.1, "a.csv", 2),
		det(time.Date(2025, 3, 10, 6, 3, 0, 0, time.UTC), 0, 0.1, "a.csv", 3),
	}

	first := BuildTables(idx, dets, defaultParams)
	for range 10 {
		assert.Equal(t, first, BuildTables(idx, dets, defaultParams))
	}
	require.Len(t, first.Tables, 3)
	assert.Equal(t, "2025-Mar-10_05-00-00_unmatched", first.Tables[0].Name)
	assert.Equal(t, "2025-Mar-11_05-00-00_unmatched", first.Tables[2].Name)
}
