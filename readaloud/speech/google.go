package speech

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/samber/lo"
)

// GoogleClient is the subset of the Cloud Text-to-Speech client used here.
type GoogleClient interface {
	ListVoices(ctx context.Context, req *texttospeechpb.ListVoicesRequest, opts ...gax.CallOption) (*texttospeechpb.ListVoicesResponse, error)
	SynthesizeSpeech(ctx context.Context, req *texttospeechpb.SynthesizeSpeechRequest, opts ...gax.CallOption) (*texttospeechpb.SynthesizeSpeechResponse, error)
}

var _ GoogleClient = (*texttospeech.Client)(nil)

var _ Synthesizer = (*GoogleSynthesizer)(nil)

// GoogleSynthesizer is an implementation of the Synthesizer interface for Google Text-to-Speech.
type GoogleSynthesizer struct {
	client     GoogleClient
	sampleRate int
}

func NewGoogleSynthesizer(client GoogleClient, sampleRate int) *GoogleSynthesizer {
	if sampleRate <= 0 {
		sampleRate = 24000
	}
	return &GoogleSynthesizer{
		client:     client,
		sampleRate: sampleRate,
	}
}

func (g *GoogleSynthesizer) Name() string {
	return "google-cloud-text-to-speech"
}

func (g *GoogleSynthesizer) Synthesize(ctx context.Context, request SynthesisRequest) (*Audio, error) {
	slog.Debug("Synthesize speech", slog.String("voice", request.VoiceName), slog.Int("length", len(request.Text)))
	resp, err := g.client.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{
				Text: request.Text,
			},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: request.LanguageCode,
			Name:         request.VoiceName,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding:   texttospeechpb.AudioEncoding_LINEAR16,
			SampleRateHertz: int32(g.sampleRate),
			SpeakingRate:    request.SpeakingRate,
		},
	})
	if err != nil {
		slog.Error("failed to synthesize speech", "error", err)
		return nil, fmt.Errorf("failed to synthesize speech: %w", err)
	}

	return &Audio{
		PCM:        stripWAVHeader(resp.GetAudioContent()),
		SampleRate: g.sampleRate,
	}, nil
}

var _ Engine = (*GoogleEngine)(nil)

// GoogleEngine narrates with audio synthesized by Google Cloud Text-to-Speech.
// Word boundaries are paced by distributing the audio duration over the words
// of the request.
type GoogleEngine struct {
	*player
	client       GoogleClient
	synthesizer  Synthesizer
	languageCode string
	defaultVoice string

	mu        sync.RWMutex
	languages map[string]string // voice name -> language code
}

type GoogleConfig struct {
	// LanguageCode filters the catalog and is used when a voice has no known language.
	LanguageCode string
	DefaultVoice string
	// Sink receives the PCM of each word as it is spoken, e.g. the stdin of a player process.
	Sink   io.Writer
	Logger *slog.Logger
}

func NewGoogleEngine(client GoogleClient, synthesizer Synthesizer, cfg GoogleConfig) *GoogleEngine {
	return &GoogleEngine{
		player:       newPlayer(eventBufferSize, cfg.Sink, cfg.Logger),
		client:       client,
		synthesizer:  synthesizer,
		languageCode: cfg.LanguageCode,
		defaultVoice: cfg.DefaultVoice,
		languages:    make(map[string]string),
	}
}

func (g *GoogleEngine) Name() string {
	return "google"
}

func (g *GoogleEngine) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := g.client.ListVoices(ctx, &texttospeechpb.ListVoicesRequest{LanguageCode: g.languageCode}); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (g *GoogleEngine) Voices(ctx context.Context) ([]Voice, error) {
	resp, err := g.client.ListVoices(ctx, &texttospeechpb.ListVoicesRequest{LanguageCode: g.languageCode})
	if err != nil {
		return nil, fmt.Errorf("failed to list voices: %w", err)
	}

	voices := lo.Map(resp.GetVoices(), func(v *texttospeechpb.Voice, _ int) Voice {
		return Voice{
			ID:       v.GetName(),
			Name:     v.GetName(),
			Language: lo.FirstOrEmpty(v.GetLanguageCodes()),
			Default:  v.GetName() == g.defaultVoice,
		}
	})

	g.mu.Lock()
	for _, v := range voices {
		g.languages[v.ID] = v.Language
	}
	g.mu.Unlock()

	return voices, nil
}

// VoicesChanged returns nil: the Google catalog is available as soon as the client is.
func (g *GoogleEngine) VoicesChanged() <-chan struct{} {
	return nil
}

func (g *GoogleEngine) Speak(ctx context.Context, request Request) (UtteranceID, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	voiceName := request.VoiceID
	if voiceName == "" {
		voiceName = g.defaultVoice
	}
	synthesisRequest := SynthesisRequest{
		Text:         request.Text,
		LanguageCode: g.languageFor(voiceName),
		VoiceName:    voiceName,
		SpeakingRate: ClampRate(request.Rate),
	}

	return g.start(func(ctx context.Context) ([]segment, error) {
		audio, err := g.synthesizer.Synthesize(ctx, synthesisRequest)
		if err != nil {
			return nil, err
		}
		starts, lengths := wordSpans(request.Text)
		return splitAudio(audio, starts, lengths), nil
	})
}

func (g *GoogleEngine) languageFor(voiceName string) string {
	g.mu.RLock()
	language, ok := g.languages[voiceName]
	g.mu.RUnlock()
	if ok && language != "" {
		return language
	}

	// voice names look like "en-US-Wavenet-A"
	if parts := strings.SplitN(voiceName, "-", 3); len(parts) == 3 {
		return parts[0] + "-" + parts[1]
	}
	return g.languageCode
}
