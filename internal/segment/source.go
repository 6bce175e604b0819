package segment

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/tphakala/eloc-raven/internal/errors"
)

// WAV format tags accepted for slicing
const (
	formatPCM        = 1
	formatFloat      = 3
	formatExtensible = 0xFFFE
)

type sourceState int

const (
	stateNotLoaded sourceState = iota
	stateLoaded
	stateClosed
)

// source is one recording held in memory for the duration of a batch.
// It moves NotLoaded -> Loaded -> Closed and is never reloaded.
type source struct {
	path        string
	state       sourceState
	sampleRate  int
	numChannels int
	bitDepth    int
	audioFormat int
	pcm         []byte // whole data chunk, trimmed to complete frames
}

func newSource(path string) *source {
	return &source{path: path}
}

// load reads the header and the full PCM data chunk once.
func (s *source) load() error {
	if s.state != stateNotLoaded {
		return fmt.Errorf("recording %s already loaded or closed", s.path)
	}

	f, err := os.Open(s.path) //nolint:gosec // path comes from recording discovery
	if err != nil {
		return s.audioError(err, "open")
	}
	defer func() { _ = f.Close() }()

	decoder := wav.NewDecoder(f)
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		return s.audioError(errors.NewStd("invalid WAV file format"), "read_header")
	}

	switch decoder.BitDepth {
	case 8, 16, 24, 32:
	default:
		return s.audioError(fmt.Errorf("unsupported bit depth: %d", decoder.BitDepth), "read_header")
	}

	audioFormat := int(decoder.WavAudioFormat)
	switch audioFormat {
	case formatPCM:
	case formatExtensible:
		audioFormat = formatPCM
	case formatFloat:
		if decoder.BitDepth != 32 {
			return s.audioError(fmt.Errorf("unsupported float bit depth: %d", decoder.BitDepth), "read_header")
		}
	default:
		return s.audioError(fmt.Errorf("unsupported WAV audio format: %d", audioFormat), "read_header")
	}

	if err := decoder.FwdToPCM(); err != nil {
		return s.audioError(err, "seek_pcm")
	}

	pcmLen := decoder.PCMLen()
	if pcmLen < 0 {
		return s.audioError(errors.NewStd("negative PCM chunk length"), "read_pcm")
	}
	pcm := make([]byte, pcmLen)
	n, err := io.ReadFull(decoder.PCMChunk, pcm)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return s.audioError(err, "read_pcm")
	}

	s.sampleRate = int(decoder.SampleRate)
	s.numChannels = int(decoder.NumChans)
	s.bitDepth = int(decoder.BitDepth)
	s.audioFormat = audioFormat
	if s.sampleRate <= 0 || s.numChannels <= 0 {
		return s.audioError(fmt.Errorf("invalid format: %d Hz, %d channels", s.sampleRate, s.numChannels), "read_header")
	}

	frame := s.frameSize()
	s.pcm = pcm[:n-n%frame]
	s.state = stateLoaded
	return nil
}

// release drops the PCM data; the source cannot be used afterwards
func (s *source) release() {
	s.pcm = nil
	s.state = stateClosed
}

func (s *source) frameSize() int {
	return s.numChannels * s.bitDepth / 8
}

func (s *source) frames() int {
	return len(s.pcm) / s.frameSize()
}

// Duration returns the length of the loaded audio in seconds
func (s *source) Duration() float64 {
	return float64(s.frames()) / float64(s.sampleRate)
}

// frameAt converts seconds to a frame offset clamped to the audio
func (s *source) frameAt(seconds float64) int {
	f := int(math.Round(seconds * float64(s.sampleRate)))
	return min(max(f, 0), s.frames())
}

// slice returns the PCM bytes for [begin, end) seconds, frame aligned
func (s *source) slice(begin, end float64) ([]byte, error) {
	if s.state != stateLoaded {
		return nil, fmt.Errorf("recording %s is not loaded", s.path)
	}
	frame := s.frameSize()
	return s.pcm[s.frameAt(begin)*frame : s.frameAt(end)*frame], nil
}

// writeWAV encodes pcm with the source format into w
func (s *source) writeWAV(w io.WriteSeeker, pcm []byte) error {
	enc := wav.NewEncoder(w, s.sampleRate, s.bitDepth, s.numChannels, s.audioFormat)

	buf := &audio.IntBuffer{
		Data:           bytesToInts(pcm, s.bitDepth),
		Format:         &audio.Format{SampleRate: s.sampleRate, NumChannels: s.numChannels},
		SourceBitDepth: s.bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("failed to write to WAV encoder: %w", err)
	}
	return enc.Close()
}

func (s *source) audioError(err error, operation string) error {
	return errors.New(err).
		Component("segment").
		Category(errors.CategoryAudio).
		Context("operation", operation).
		Context("file", s.path).
		Build()
}

// bytesToInts converts little-endian PCM bytes to samples in the value range
// the go-audio encoder writes back unchanged: unsigned for 8-bit, signed otherwise.
func bytesToInts(pcm []byte, bitDepth int) []int {
	bytesPerSample := bitDepth / 8
	samples := make([]int, len(pcm)/bytesPerSample)

	for i := range samples {
		b := pcm[i*bytesPerSample:]
		switch bitDepth {
		case 8:
			samples[i] = int(b[0])
		case 16:
			samples[i] = int(int16(binary.LittleEndian.Uint16(b)))
		case 24:
			v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
			samples[i] = int(v<<8) >> 8
		case 32:
			samples[i] = int(int32(binary.LittleEndian.Uint32(b)))
		}
	}
	return samples
}
