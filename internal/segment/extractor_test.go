package segment

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/eloc-raven/internal/errors"
	"github.com/tphakala/eloc-raven/internal/recording"
	"github.com/tphakala/eloc-raven/internal/selection"
)

const testSampleRate = 8000

// writeTestWAV synthesizes a ramp signal and returns the recording for it
func writeTestWAV(t *testing.T, dir string, bitDepth, channels int, seconds float64) recording.Recording {
	t.Helper()

	path := filepath.Join(dir, "site_1741605292068_2025-03-10_18-00-00.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	frames := int(seconds * testSampleRate)
	data := make([]int, frames*channels)
	for i := range data {
		switch bitDepth {
		case 8:
			data[i] = i % 256
		case 16:
			data[i] = i%2000 - 1000
		default:
			data[i] = (i%50000 - 25000) * 3
		}
	}

	enc := wav.NewEncoder(f, testSampleRate, bitDepth, channels, 1)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{SampleRate: testSampleRate, NumChannels: channels},
		SourceBitDepth: bitDepth,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	rec, ok := recording.FromPath(path)
	require.True(t, ok)
	return rec
}

func newJob(t *testing.T, rec recording.Recording, sels ...selection.Selection) Job {
	t.Helper()
	out := filepath.Join(t.TempDir(), "Audio_Segments")
	require.NoError(t, os.MkdirAll(out, 0o755))
	return Job{Recording: rec, Selections: sels, OutputDir: out}
}

// loadPCM reads a WAV file the same way the extractor does
func loadPCM(t *testing.T, path string) *source {
	t.Helper()
	src := newSource(path)
	require.NoError(t, src.load())
	return src
}

func TestExtractRecording_ValidClampedAndRejected(t *testing.T) {
	t.Parallel()

	rec := writeTestWAV(t, t.TempDir(), 16, 1, 10)
	job := newJob(t, rec,
		selection.Selection{Index: 1, Begin: 1.0, End: 3.0},
		selection.Selection{Index: 2, Begin: 8.0, End: 12.0},
		selection.Selection{Index: 3, Begin: -1.0, End: 4.0},
		selection.Selection{Index: 4, Begin: 10.0, End: 15.0},
		selection.Selection{Index: 5, Begin: 5.0, End: 5.09},
		selection.Selection{Index: 6, Begin: 6.0, End: 6.1},
	)

	stats := NewExtractor(DefaultMinValidSize).ExtractRecording(context.Background(), job)

	require.NoError(t, stats.Err)
	assert.Equal(t, 3, stats.Written)
	assert.Equal(t, 3, stats.Invalid)
	assert.Zero(t, stats.Failed)
	assert.False(t, stats.Cancelled)
	assert.InDelta(t, 10.0, stats.Duration, 1e-9)

	entries, err := os.ReadDir(job.OutputDir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{
		rec.Name + "_segment_001_1.00s-3.00s.wav",
		rec.Name + "_segment_002_8.00s-10.00s.wav",
		rec.Name + "_segment_006_6.00s-6.10s.wav",
	}, names)

	orig := loadPCM(t, rec.Path)
	want, err := orig.slice(1.0, 3.0)
	require.NoError(t, err)
	clip := loadPCM(t, filepath.Join(job.OutputDir, rec.Name+"_segment_001_1.00s-3.00s.wav"))
	assert.Equal(t, orig.sampleRate, clip.sampleRate)
	assert.Equal(t, 2*testSampleRate, clip.frames())
	assert.Equal(t, want, clip.pcm)

	clamped := loadPCM(t, filepath.Join(job.OutputDir, rec.Name+"_segment_002_8.00s-10.00s.wav"))
	assert.InDelta(t, 2.0, clamped.Duration(), 1e-9)
}

func TestExtractRecording_Idempotent(t *testing.T) {
	t.Parallel()

	rec := writeTestWAV(t, t.TempDir(), 16, 1, 5)
	job := newJob(t, rec,
		selection.Selection{Index: 1, Begin: 0.5, End: 1.5},
		selection.Selection{Index: 2, Begin: 2.0, End: 4.0},
	)
	ex := NewExtractor(DefaultMinValidSize)

	first := ex.ExtractRecording(context.Background(), job)
	require.Equal(t, 2, first.Written)

	path := filepath.Join(job.OutputDir, FileName(rec.Name, 1, 0.5, 1.5))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	second := ex.ExtractRecording(context.Background(), job)
	assert.Zero(t, second.Written)
	assert.Equal(t, 2, second.Existing)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	entries, err := os.ReadDir(job.OutputDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestExtractRecording_RegeneratesUndersizedFile(t *testing.T) {
	t.Parallel()

	rec := writeTestWAV(t, t.TempDir(), 16, 1, 3)
	job := newJob(t, rec, selection.Selection{Index: 1, Begin: 0, End: 2})

	path := filepath.Join(job.OutputDir, FileName(rec.Name, 1, 0, 2))
	require.NoError(t, os.WriteFile(path, []byte("partial"), 0o600))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	stats := NewExtractor(DefaultMinValidSize).ExtractRecording(context.Background(), job)
	assert.Equal(t, 1, stats.Written)
	assert.Equal(t, 1, stats.Regenerated)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), DefaultMinValidSize)
}

func TestExtractRecording_KeepsUndersizedFileOfConcurrentWriter(t *testing.T) {
	t.Parallel()

	rec := writeTestWAV(t, t.TempDir(), 16, 1, 3)
	job := newJob(t, rec, selection.Selection{Index: 1, Begin: 0, End: 2})

	ex := NewExtractor(DefaultMinValidSize)

	path := filepath.Join(job.OutputDir, FileName(rec.Name, 1, 0, 2))
	require.NoError(t, os.WriteFile(path, []byte("partial"), 0o600))
	recent := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, recent, recent))

	stats := ex.ExtractRecording(context.Background(), job)
	assert.Zero(t, stats.Written)
	assert.Zero(t, stats.Regenerated)
	assert.Equal(t, 1, stats.Existing)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "partial", string(data))
}

func TestExtractRecording_BelowMinimumSizeRemoved(t *testing.T) {
	t.Parallel()

	rec := writeTestWAV(t, t.TempDir(), 16, 1, 2)
	job := newJob(t, rec, selection.Selection{Index: 1, Begin: 0, End: 1})

	// one second of 8 kHz 16-bit mono is 16044 bytes
	stats := NewExtractor(20000).ExtractRecording(context.Background(), job)
	assert.Zero(t, stats.Written)
	assert.Equal(t, 1, stats.Invalid)

	entries, err := os.ReadDir(job.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExtractRecording_FormatsPreserved(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		bitDepth int
		channels int
	}{
		{"8-bit mono", 8, 1},
		{"16-bit stereo", 16, 2},
		{"24-bit mono", 24, 1},
		{"32-bit stereo", 32, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := writeTestWAV(t, t.TempDir(), tt.bitDepth, tt.channels, 3)
			job := newJob(t, rec, selection.Selection{Index: 1, Begin: 0.25, End: 1.75})

			stats := NewExtractor(DefaultMinValidSize).ExtractRecording(context.Background(), job)
			require.NoError(t, stats.Err)
			require.Equal(t, 1, stats.Written)

			orig := loadPCM(t, rec.Path)
			want, err := orig.slice(0.25, 1.75)
			require.NoError(t, err)

			clip := loadPCM(t, filepath.Join(job.OutputDir, FileName(rec.Name, 1, 0.25, 1.75)))
			assert.Equal(t, tt.bitDepth, clip.bitDepth)
			assert.Equal(t, tt.channels, clip.numChannels)
			assert.Equal(t, testSampleRate, clip.sampleRate)
			assert.Equal(t, want, clip.pcm)
		})
	}
}

func TestExtractRecording_InvalidWAVFailsBatch(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "site_1_2025-03-10_18-00-00.wav")
	require.NoError(t, os.WriteFile(path, []byte("this is not a wav file"), 0o600))
	rec, ok := recording.FromPath(path)
	require.True(t, ok)

	job := newJob(t, rec, selection.Selection{Index: 1, Begin: 0, End: 1})
	stats := NewExtractor(DefaultMinValidSize).ExtractRecording(context.Background(), job)

	require.Error(t, stats.Err)
	assert.True(t, errors.IsCategory(stats.Err, errors.CategoryAudio))
	assert.Zero(t, stats.Written)

	entries, err := os.ReadDir(job.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExtractRecording_Cancelled(t *testing.T) {
	t.Parallel()

	rec := writeTestWAV(t, t.TempDir(), 16, 1, 2)
	job := newJob(t, rec, selection.Selection{Index: 1, Begin: 0, End: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats := NewExtractor(DefaultMinValidSize).ExtractRecording(ctx, job)
	assert.True(t, stats.Cancelled)
	assert.Zero(t, stats.Written)
}

func TestValidateBounds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		begin, end float64
		duration   float64
		wantEnd    float64
		wantErr    error
	}{
		{"inside", 1, 6, 3600, 6, nil},
		{"clamped end", 3598, 3603, 3600, 3600, nil},
		{"exactly 0.10s", 5.0, 5.1, 3600, 5.1, nil},
		{"0.09s rejected", 5.0, 5.09, 3600, 0, ErrTooShort},
		{"clamped below 0.1s", 3599.95, 3605, 3600, 0, ErrTooShort},
		{"clamped to 99.6ms", 3599.90, 3604.90, 3599.9996, 0, ErrTooShort},
		{"clamped to exactly 0.10s", 3599.90, 3604.90, 3600.00, 3600.00, nil},
		{"table values 0.10s apart", 10.00, 10.10, 3600, 10.10, nil},
		{"negative begin", -0.01, 4.99, 3600, 0, ErrNegativeBegin},
		{"end equals begin", 5, 5, 3600, 0, ErrEmptyRange},
		{"begin at duration", 3600, 3605, 3600, 0, ErrBeyondAudio},
		{"begin past duration", 4000, 4005, 3600, 0, ErrBeyondAudio},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			begin, end, err := ValidateBounds(tt.begin, tt.end, tt.duration)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.begin, begin, 1e-9)
			assert.InDelta(t, tt.wantEnd, end, 1e-9)
		})
	}
}

func TestFileName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "rec_segment_001_890.00s-895.00s.wav", FileName("rec", 1, 890, 895))
	assert.Equal(t, "rec_segment_120_0.50s-3600.00s.wav", FileName("rec", 120, 0.5, 3600))
}
