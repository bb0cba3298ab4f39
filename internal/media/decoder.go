package media

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

// Decoder streams interleaved signed 16-bit little-endian PCM.
type Decoder interface {
	io.Reader
	// Length is the total PCM length in bytes, or -1 when unknown.
	Length() int64
	SampleRate() int
	ChannelCount() int
}

// File is an open audio file and its decoder.
type File struct {
	Decoder
	f *os.File
}

// Close closes the underlying file.
func (f *File) Close() error { return f.f.Close() }

// Open detects the format by extension and returns a decoder for path.
func Open(path string) (*File, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !IsSupportedExt(ext) {
		return nil, fmt.Errorf("unsupported format %s (supported: %s)", ext, SupportedExtsList())
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	var dec Decoder
	switch ext {
	case ".mp3":
		dec, err = newMP3Decoder(f)
	case ".wav":
		dec, err = newWAVDecoder(f)
	case ".flac":
		dec, err = newFLACDecoder(f)
	case ".ogg":
		dec, err = newOGGDecoder(f)
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if dec.SampleRate() <= 0 || dec.ChannelCount() <= 0 {
		f.Close()
		return nil, fmt.Errorf("%s: unsupported stream (%d Hz, %d channels)", filepath.Base(path), dec.SampleRate(), dec.ChannelCount())
	}
	return &File{Decoder: dec, f: f}, nil
}

// pcmBuffer holds decoded bytes that did not fit the caller's slice.
type pcmBuffer struct {
	pending []byte
	scratch []byte
}

func (b *pcmBuffer) drain(p []byte) int {
	n := copy(p, b.pending)
	b.pending = b.pending[n:]
	return n
}

func (b *pcmBuffer) grow(n int) []byte {
	if cap(b.scratch) < n {
		b.scratch = make([]byte, n)
	}
	return b.scratch[:n]
}

func clamp16(sample int) int16 {
	if sample > 32767 {
		return 32767
	}
	if sample < -32768 {
		return -32768
	}
	return int16(sample)
}

// --- MP3 ---

type mp3Decoder struct {
	dec *mp3.Decoder
}

func newMP3Decoder(f *os.File) (*mp3Decoder, error) {
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, err
	}
	return &mp3Decoder{dec: dec}, nil
}

func (d *mp3Decoder) Read(p []byte) (int, error) { return d.dec.Read(p) }
func (d *mp3Decoder) Length() int64              { return d.dec.Length() }
func (d *mp3Decoder) SampleRate() int            { return d.dec.SampleRate() }

// go-mp3 always emits stereo.
func (d *mp3Decoder) ChannelCount() int { return 2 }

// --- WAV ---

type wavDecoder struct {
	file        *os.File
	buf         pcmBuffer
	src         []byte
	totalBytes  int64
	sampleRate  int
	channels    int
	srcBitDepth int
}

func newWAVDecoder(f *os.File) (*wavDecoder, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, errors.New("invalid WAV file")
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("reading WAV PCM data: %w", err)
	}

	bitDepth := int(dec.BitDepth)
	switch bitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("unsupported WAV bit depth %d", bitDepth)
	}
	channels := int(dec.NumChans)
	srcFrameSize := int64(channels) * int64(bitDepth) / 8
	var totalBytes int64 = -1
	if srcFrameSize > 0 {
		totalBytes = dec.PCMLen() / srcFrameSize * int64(channels) * 2
	}

	return &wavDecoder{
		file:        f,
		sampleRate:  int(dec.SampleRate),
		channels:    channels,
		srcBitDepth: bitDepth,
		totalBytes:  totalBytes,
	}, nil
}

func (d *wavDecoder) Read(p []byte) (int, error) {
	if len(d.buf.pending) > 0 {
		return d.buf.drain(p), nil
	}

	srcBytesPerSample := d.srcBitDepth / 8
	numSamples := max(len(p)/2, 1)
	if cap(d.src) < numSamples*srcBytesPerSample {
		d.src = make([]byte, numSamples*srcBytesPerSample)
	}
	src := d.src[:numSamples*srcBytesPerSample]
	n, err := io.ReadFull(d.file, src)
	samples := n / srcBytesPerSample
	if samples == 0 {
		if err == nil || err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		return 0, err
	}

	raw := d.buf.grow(samples * 2)
	for i := range samples {
		off := i * srcBytesPerSample
		var sample int
		switch d.srcBitDepth {
		case 8:
			sample = (int(src[off]) - 128) << 8
		case 16:
			sample = int(int16(binary.LittleEndian.Uint16(src[off:])))
		case 24:
			s := int32(src[off]) | int32(src[off+1])<<8 | int32(src[off+2])<<16
			if s&0x800000 != 0 {
				s |= ^0xFFFFFF
			}
			sample = int(s >> 8)
		case 32:
			sample = int(int32(binary.LittleEndian.Uint32(src[off:])) >> 16)
		}
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(clamp16(sample)))
	}

	written := copy(p, raw)
	d.buf.pending = raw[written:]
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	if err == io.EOF && len(d.buf.pending) > 0 {
		err = nil
	}
	return written, err
}

func (d *wavDecoder) Length() int64     { return d.totalBytes }
func (d *wavDecoder) SampleRate() int   { return d.sampleRate }
func (d *wavDecoder) ChannelCount() int { return d.channels }

// --- FLAC ---

type flacDecoder struct {
	stream     *flac.Stream
	buf        pcmBuffer
	totalBytes int64
	sampleRate int
	channels   int
	bps        int
}

func newFLACDecoder(f *os.File) (*flacDecoder, error) {
	stream, err := flac.New(f)
	if err != nil {
		return nil, fmt.Errorf("decoding FLAC: %w", err)
	}

	info := stream.Info
	channels := int(info.NChannels)
	return &flacDecoder{
		stream:     stream,
		sampleRate: int(info.SampleRate),
		channels:   channels,
		bps:        int(info.BitsPerSample),
		totalBytes: int64(info.NSamples) * int64(channels) * 2,
	}, nil
}

func (d *flacDecoder) Read(p []byte) (int, error) {
	if len(d.buf.pending) > 0 {
		return d.buf.drain(p), nil
	}

	frame, err := d.stream.ParseNext()
	if err != nil {
		return 0, err
	}

	nSamples := int(frame.Subframes[0].NSamples)
	raw := d.buf.grow(nSamples * d.channels * 2)
	for i := range nSamples {
		for ch := range d.channels {
			sample := int(frame.Subframes[ch].Samples[i])
			switch {
			case d.bps > 16:
				sample >>= d.bps - 16
			case d.bps < 16:
				sample <<= 16 - d.bps
			}
			binary.LittleEndian.PutUint16(raw[(i*d.channels+ch)*2:], uint16(clamp16(sample)))
		}
	}

	written := copy(p, raw)
	d.buf.pending = raw[written:]
	return written, nil
}

func (d *flacDecoder) Length() int64     { return d.totalBytes }
func (d *flacDecoder) SampleRate() int   { return d.sampleRate }
func (d *flacDecoder) ChannelCount() int { return d.channels }

// --- OGG Vorbis ---

type oggDecoder struct {
	reader     *oggvorbis.Reader
	buf        pcmBuffer
	samples    []float32
	totalBytes int64
	sampleRate int
	channels   int
}

func newOGGDecoder(f *os.File) (*oggDecoder, error) {
	reader, err := oggvorbis.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("decoding OGG: %w", err)
	}

	channels := reader.Channels()
	return &oggDecoder{
		reader:     reader,
		sampleRate: reader.SampleRate(),
		channels:   channels,
		totalBytes: reader.Length() * int64(channels) * 2,
	}, nil
}

func (d *oggDecoder) Read(p []byte) (int, error) {
	if len(d.buf.pending) > 0 {
		return d.buf.drain(p), nil
	}

	want := max(len(p)/2, d.channels)
	if cap(d.samples) < want {
		d.samples = make([]float32, want)
	}
	samples := d.samples[:want]
	n, err := d.reader.Read(samples)
	if n == 0 {
		if err == nil {
			err = io.EOF
		}
		return 0, err
	}

	raw := d.buf.grow(n * 2)
	for i, s := range samples[:n] {
		s = max(-1, min(1, s))
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(int16(s*32767)))
	}

	written := copy(p, raw)
	d.buf.pending = raw[written:]
	if err == io.EOF && len(d.buf.pending) > 0 {
		err = nil
	}
	return written, err
}

func (d *oggDecoder) Length() int64     { return d.totalBytes }
func (d *oggDecoder) SampleRate() int   { return d.sampleRate }
func (d *oggDecoder) ChannelCount() int { return d.channels }
