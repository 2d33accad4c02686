package speech

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGoogleClient struct {
	voices   []*texttospeechpb.Voice
	listErr  error
	synthErr error
	audio    []byte
	mu       sync.Mutex
	requests []*texttospeechpb.SynthesizeSpeechRequest
}

func (f *fakeGoogleClient) ListVoices(_ context.Context, _ *texttospeechpb.ListVoicesRequest, _ ...gax.CallOption) (*texttospeechpb.ListVoicesResponse, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &texttospeechpb.ListVoicesResponse{Voices: f.voices}, nil
}

func (f *fakeGoogleClient) SynthesizeSpeech(_ context.Context, req *texttospeechpb.SynthesizeSpeechRequest, _ ...gax.CallOption) (*texttospeechpb.SynthesizeSpeechResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.synthErr != nil {
		return nil, f.synthErr
	}
	return &texttospeechpb.SynthesizeSpeechResponse{AudioContent: f.audio}, nil
}

// wav builds a minimal RIFF/WAVE container around pcm.
func wav(pcm []byte, sampleRate int) []byte {
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*2))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Len()
}

func TestStripWAVHeader(t *testing.T) {
	pcm := []byte{1, 2, 3, 4}
	assert.Equal(t, pcm, stripWAVHeader(wav(pcm, 8000)))
	assert.Equal(t, pcm, stripWAVHeader(pcm), "raw PCM is returned unchanged")
}

func TestSplitAudio(t *testing.T) {
	// 1000 samples at 1kHz = 1s
	audio := &Audio{PCM: make([]byte, 2000), SampleRate: 1000}
	starts, lengths := wordSpans("abc efghij")

	segments := splitAudio(audio, starts, lengths)
	require.Len(t, segments, 2)

	assert.Equal(t, 0, segments[0].charIndex)
	assert.Equal(t, 4, segments[1].charIndex)
	assert.Equal(t, 400*time.Millisecond, segments[0].duration)
	assert.Equal(t, 600*time.Millisecond, segments[1].duration)
	assert.Len(t, segments[0].audio, 800)
	assert.Len(t, segments[1].audio, 1200)
	assert.Equal(t, time.Second, audio.Duration())
}

func TestGoogleEngineVoices(t *testing.T) {
	client := &fakeGoogleClient{
		voices: []*texttospeechpb.Voice{
			{Name: "en-US-Wavenet-A", LanguageCodes: []string{"en-US"}},
			{Name: "ja-JP-Neural2-B", LanguageCodes: []string{"ja-JP"}},
		},
	}
	engine := NewGoogleEngine(client, NewGoogleSynthesizer(client, 8000), GoogleConfig{DefaultVoice: "ja-JP-Neural2-B"})
	defer engine.Close()

	voices, err := engine.Voices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Voice{
		{ID: "en-US-Wavenet-A", Name: "en-US-Wavenet-A", Language: "en-US"},
		{ID: "ja-JP-Neural2-B", Name: "ja-JP-Neural2-B", Language: "ja-JP", Default: true},
	}, voices)
	assert.Nil(t, engine.VoicesChanged())
}

func TestGoogleEngineProbe(t *testing.T) {
	client := &fakeGoogleClient{listErr: errors.New("permission denied")}
	engine := NewGoogleEngine(client, NewGoogleSynthesizer(client, 8000), GoogleConfig{})
	defer engine.Close()

	assert.ErrorIs(t, engine.Probe(context.Background()), ErrUnavailable)
}

func TestGoogleEngineSpeak(t *testing.T) {
	// 20ms of audio at 8kHz
	pcm := make([]byte, 320)
	client := &fakeGoogleClient{audio: wav(pcm, 8000)}
	sink := &syncBuffer{}
	engine := NewGoogleEngine(client, NewGoogleSynthesizer(client, 8000), GoogleConfig{
		LanguageCode: "en-US",
		DefaultVoice: "en-GB-Standard-A",
		Sink:         sink,
	})
	defer engine.Close()

	id, err := engine.Speak(context.Background(), Request{Text: "Hello world", Rate: 1.5})
	require.NoError(t, err)

	assert.Equal(t, NewBoundaryEvent(id, 0, UnitWord), nextEvent(t, engine.Events()))
	assert.Equal(t, NewBoundaryEvent(id, 6, UnitWord), nextEvent(t, engine.Events()))
	assert.Equal(t, NewEndEvent(id), nextEvent(t, engine.Events()))
	assert.Equal(t, len(pcm), sink.Len())

	client.mu.Lock()
	defer client.mu.Unlock()
	require.Len(t, client.requests, 1)
	req := client.requests[0]
	assert.Equal(t, "en-GB-Standard-A", req.GetVoice().GetName())
	assert.Equal(t, "en-GB", req.GetVoice().GetLanguageCode())
	assert.Equal(t, 1.5, req.GetAudioConfig().GetSpeakingRate())
	assert.Equal(t, texttospeechpb.AudioEncoding_LINEAR16, req.GetAudioConfig().GetAudioEncoding())
}

func TestGoogleEngineSynthesisFailure(t *testing.T) {
	quota := errors.New("resource exhausted: quota exceeded")
	client := &fakeGoogleClient{synthErr: quota}
	engine := NewGoogleEngine(client, NewGoogleSynthesizer(client, 8000), GoogleConfig{})
	defer engine.Close()

	id, err := engine.Speak(context.Background(), Request{Text: "Hello world", Rate: 1})
	require.NoError(t, err)

	event := nextEvent(t, engine.Events())
	assert.Equal(t, EventError, event.Kind)
	assert.Equal(t, id, event.Utterance)
	assert.ErrorIs(t, event.Err, quota)

	// nothing else follows a failed utterance
	assertNoEvent(t, engine.Events(), 50*time.Millisecond)
	assert.ErrorIs(t, engine.Pause(), ErrNoUtterance)
}
