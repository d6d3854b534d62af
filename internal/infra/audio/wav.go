package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

const wavHeaderSize = 44

// wavHeader is the canonical 44-byte RIFF/WAVE header for PCM data.
type wavHeader struct {
	ChunkID       [4]byte
	ChunkSize     uint32
	Format        [4]byte
	Subchunk1ID   [4]byte
	Subchunk1Size uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte
	Subchunk2Size uint32
}

// EncodeWAV wraps raw little-endian PCM bytes in a WAV container. The
// channel count, sample width (bytes) and rate are written as given.
func EncodeWAV(pcm []byte, channels, sampleWidth, sampleRate int) ([]byte, error) {
	header := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     uint32(36 + len(pcm)),
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   uint16(channels),
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate * channels * sampleWidth),
		BlockAlign:    uint16(channels * sampleWidth),
		BitsPerSample: uint16(sampleWidth * 8),
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: uint32(len(pcm)),
	}

	buf := bytes.NewBuffer(make([]byte, 0, wavHeaderSize+len(pcm)))
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("writing wav header: %w", err)
	}
	buf.Write(pcm)

	return buf.Bytes(), nil
}

// WAV is a decoded PCM WAV file.
type WAV struct {
	AudioFormat   uint16
	Channels      int
	SampleRate    int
	BitsPerSample int
	Data          []byte
}

func (w *WAV) SampleWidth() int {
	return w.BitsPerSample / 8
}

var ErrNotWAV = errors.New("not a RIFF/WAVE file")

// DecodeWAV walks the RIFF chunks of data and returns the format and the
// sample bytes. Chunks other than "fmt " and "data" are skipped. A data
// chunk whose declared size runs past the end of the buffer (streamed WAVs
// often carry 0 or 0xFFFFFFFF there) is read to the end.
func DecodeWAV(data []byte) (*WAV, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, ErrNotWAV
	}

	var (
		wav     WAV
		haveFmt bool
	)
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8

		switch id {
		case "fmt ":
			if size < 16 || body+16 > len(data) {
				return nil, fmt.Errorf("wav fmt chunk too short: %d bytes", size)
			}
			wav.AudioFormat = binary.LittleEndian.Uint16(data[body:])
			wav.Channels = int(binary.LittleEndian.Uint16(data[body+2:]))
			wav.SampleRate = int(binary.LittleEndian.Uint32(data[body+4:]))
			wav.BitsPerSample = int(binary.LittleEndian.Uint16(data[body+14:]))
			haveFmt = true
		case "data":
			if !haveFmt {
				return nil, fmt.Errorf("wav data chunk before fmt chunk")
			}
			end := body + size
			if size == 0 || end > len(data) || end < body {
				end = len(data)
			}
			wav.Data = data[body:end]
			return &wav, nil
		}

		next := body + size + size%2
		if next <= pos {
			break
		}
		pos = next
	}

	return nil, fmt.Errorf("wav data chunk not found")
}

func ReadWAVFile(path string) (*WAV, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading wav file: %w", err)
	}

	wav, err := DecodeWAV(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return wav, nil
}
