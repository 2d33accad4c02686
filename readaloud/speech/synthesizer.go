package speech

import (
	"bytes"
	"context"
	"encoding/binary"
	"time"
)

// Synthesizer converts text into 16-bit little-endian mono PCM.
// It is the part of an audio-producing engine that may be cached.
type Synthesizer interface {
	// Name returns the name of the backend, e.g. "google-cloud-text-to-speech".
	Name() string

	Synthesize(ctx context.Context, request SynthesisRequest) (*Audio, error)
}

type SynthesisRequest struct {
	Text         string
	LanguageCode string
	VoiceName    string
	SpeakingRate float64
}

type Audio struct {
	PCM        []byte `msgpack:"pcm"`
	SampleRate int    `msgpack:"sample_rate"`
}

// Duration is the playing time of the PCM data.
func (a *Audio) Duration() time.Duration {
	if a == nil || a.SampleRate <= 0 {
		return 0
	}
	samples := len(a.PCM) / 2
	return time.Duration(samples) * time.Second / time.Duration(a.SampleRate)
}

// stripWAVHeader returns the payload of the "data" chunk if content is a RIFF
// container, or content unchanged otherwise.
func stripWAVHeader(content []byte) []byte {
	if len(content) < 12 || !bytes.Equal(content[0:4], []byte("RIFF")) || !bytes.Equal(content[8:12], []byte("WAVE")) {
		return content
	}

	offset := 12
	for offset+8 <= len(content) {
		id := content[offset : offset+4]
		size := int(binary.LittleEndian.Uint32(content[offset+4 : offset+8]))
		offset += 8
		if bytes.Equal(id, []byte("data")) {
			end := offset + size
			if end > len(content) || size == 0 {
				end = len(content)
			}
			return content[offset:end]
		}
		offset += size + size%2
	}
	return content[len(content):]
}

// splitAudio distributes audio over segments proportionally to their rune
// length and fills in their durations.
func splitAudio(audio *Audio, starts, lengths []int) []segment {
	segments := make([]segment, len(starts))
	for i, start := range starts {
		segments[i].charIndex = start
	}
	total := 0
	for _, l := range lengths {
		total += l
	}
	if total == 0 || audio.SampleRate <= 0 {
		return segments
	}

	samples := len(audio.PCM) / 2
	consumed := 0
	weight := 0
	for i := range starts {
		weight += lengths[i]
		end := samples * weight / total
		if i == len(starts)-1 {
			end = samples
		}
		chunk := audio.PCM[consumed*2 : end*2]
		segments[i] = segment{
			charIndex: starts[i],
			duration:  time.Duration(end-consumed) * time.Second / time.Duration(audio.SampleRate),
			audio:     chunk,
		}
		consumed = end
	}
	return segments
}
