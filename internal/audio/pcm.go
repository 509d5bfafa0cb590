// Package audio captures command recordings from the array, replays
// them and archives them as WAV files.
//
// All PCM in this package is signed 16-bit little-endian.
package audio

import "encoding/binary"

const bytesPerSample = 2

// extractChannel returns the samples of one channel from interleaved
// frames. A trailing partial frame is ignored.
func extractChannel(raw []byte, channels, channel int) []byte {
	if channels <= 1 {
		out := make([]byte, len(raw)-len(raw)%bytesPerSample)
		copy(out, raw)
		return out
	}
	frame := channels * bytesPerSample
	n := len(raw) / frame
	out := make([]byte, n*bytesPerSample)
	for i := 0; i < n; i++ {
		src := i*frame + channel*bytesPerSample
		copy(out[i*bytesPerSample:], raw[src:src+bytesPerSample])
	}
	return out
}

// chunker cuts a mono byte stream into fixed-size chunks.
type chunker struct {
	size int
	buf  []byte
}

func newChunker(frames int) *chunker {
	size := frames * bytesPerSample
	return &chunker{size: size, buf: make([]byte, 0, size*2)}
}

// push appends mono and returns every complete chunk.
func (c *chunker) push(mono []byte) [][]byte {
	c.buf = append(c.buf, mono...)
	var out [][]byte
	for len(c.buf) >= c.size {
		chunk := make([]byte, c.size)
		copy(chunk, c.buf[:c.size])
		out = append(out, chunk)
		c.buf = append(c.buf[:0], c.buf[c.size:]...)
	}
	return out
}

// Samples decodes PCM bytes into ints.
func Samples(pcm []byte) []int {
	n := len(pcm) / bytesPerSample
	out := make([]int, n)
	for i := 0; i < n; i++ {
		out[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*bytesPerSample:])))
	}
	return out
}

// PCM encodes ints as PCM bytes, clamping to the int16 range.
func PCM(samples []int) []byte {
	out := make([]byte, len(samples)*bytesPerSample)
	for i, s := range samples {
		if s > 32767 {
			s = 32767
		} else if s < -32768 {
			s = -32768
		}
		binary.LittleEndian.PutUint16(out[i*bytesPerSample:], uint16(int16(s)))
	}
	return out
}

// Join concatenates chunks.
func Join(chunks [][]byte) []byte {
	n := 0
	for _, c := range chunks {
		n += len(c)
	}
	out := make([]byte, 0, n)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}
