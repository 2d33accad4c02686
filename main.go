package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"

	"github.com/makeitchaccha/read-aloud/readaloud"
	"github.com/makeitchaccha/read-aloud/readaloud/console"
	"github.com/makeitchaccha/read-aloud/readaloud/i18n"
	"github.com/makeitchaccha/read-aloud/readaloud/narration"
	"github.com/makeitchaccha/read-aloud/readaloud/preference"
	"github.com/makeitchaccha/read-aloud/readaloud/speech"
	"github.com/makeitchaccha/read-aloud/readaloud/voice"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

const fallbackLocale = "en-US"

func main() {
	path := flag.String("config", "config.toml", "path to config")
	flag.Parse()

	cfg, err := readaloud.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to read config", slog.Any("err", err))
		os.Exit(-1)
	}

	setupLogger(cfg.Log)
	slog.Info("Starting read-aloud...", slog.String("version", Version), slog.String("commit", Commit))

	texts, err := i18n.LoadTextResources(cfg.UI.LocalesDir, fallbackLocale)
	if err != nil {
		slog.Error("Failed to load text resources", slog.Any("err", err))
		os.Exit(-1)
	}
	text := texts.Locale(cfg.UI.Locale)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		slog.Info("Connecting to Redis")
		redisClient, err = connectRedis(cfg.Redis)
		if err != nil {
			slog.Error("Failed to connect to Redis", slog.Any("err", err))
			os.Exit(-1)
		}
		defer redisClient.Close()
		slog.Info("Connected to Redis")
	} else {
		slog.Info("Redis is disabled, no cache will be used")
	}

	store, closeStore, err := openPreferenceStore(ctx, cfg.Preferences, redisClient)
	if err != nil {
		slog.Error("Failed to open preference store", slog.Any("err", err))
		os.Exit(-1)
	}
	defer closeStore()

	prefs, err := preference.Load(ctx, store)
	if err != nil {
		slog.Warn("Failed to load preferences, using defaults", slog.Any("err", err))
	}

	registry := speech.NewRegistry()
	closeEngines, err := setupEngines(ctx, registry, *cfg, redisClient)
	if err != nil {
		slog.Error("Failed to set up speech engines", slog.Any("err", err))
		os.Exit(-1)
	}
	defer closeEngines()
	defer registry.Close()
	engine, err := registry.Get(cfg.Engine.Name)
	if err != nil {
		slog.Error("Unknown speech engine",
			slog.String("engine", cfg.Engine.Name),
			slog.Any("available", registry.Names()),
			slog.Any("err", err),
		)
		os.Exit(-1)
	}
	slog.Info("Using speech engine", slog.String("engine", engine.Name()))

	controller, err := narration.New(ctx, engine,
		narration.WithVoice(prefs.VoiceID),
		narration.WithRate(prefs.Rate),
	)
	if err != nil {
		slog.Error("Failed to start narration", slog.Any("err", err))
		if errors.Is(err, narration.ErrEngineUnavailable) {
			fmt.Fprintf(os.Stdout, text.Notices.EngineUnavailable+"\n", engine.Name())
		}
		os.Exit(1)
	}

	runner := narration.NewRunner(controller)
	go func() {
		if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("Narration runner stopped", slog.Any("err", err))
		}
	}()

	catalog := voice.NewCatalog(engine, voice.Preference{
		VoiceID:  lo.CoalesceOrEmpty(prefs.VoiceID, cfg.Catalog.PreferredVoice),
		Language: cfg.Catalog.PreferredLanguage,
	})

	c := console.New(console.Config{
		In:          os.Stdin,
		Out:         os.Stdout,
		Runner:      runner,
		Catalog:     catalog,
		Store:       store,
		Preferences: prefs,
		Text:        text,
		Color:       cfg.UI.Color,
	})
	if err := c.Attach(ctx); err != nil {
		slog.Error("Failed to attach console", slog.Any("err", err))
		os.Exit(-1)
	}
	go catalog.Watch(ctx, cfg.Catalog.PollInterval)

	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Console stopped", slog.Any("err", err))
	}

	slog.Info("Shutting down read-aloud...")
	stop()
	<-runner.Done()
}

func setupLogger(cfg readaloud.LogConfig) {
	opts := &slog.HandlerOptions{
		AddSource: cfg.AddSource,
		Level:     cfg.Level,
	}

	// stdout belongs to the console
	var sHandler slog.Handler
	switch cfg.Format {
	case "json":
		sHandler = slog.NewJSONHandler(os.Stderr, opts)
	case "text":
		sHandler = slog.NewTextHandler(os.Stderr, opts)
	default:
		slog.Error("Unknown log format", slog.String("format", cfg.Format))
		os.Exit(-1)
	}
	slog.SetDefault(slog.New(sHandler))
}

func connectRedis(cfg readaloud.RedisConfig) (*redis.Client, error) {
	options, err := redis.ParseURL(cfg.Url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(options)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func openPreferenceStore(ctx context.Context, cfg readaloud.PreferencesConfig, redisClient *redis.Client) (preference.Store, func(), error) {
	switch cfg.Store {
	case "", "memory":
		return preference.NewMemoryStore(), func() {}, nil
	case "sql":
		db, err := preference.Open(ctx, cfg.Driver, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return preference.NewSQLStore(db), func() { db.Close() }, nil
	case "redis":
		if redisClient == nil {
			return nil, nil, errors.New("redis preference store requires redis.enabled")
		}
		return preference.NewRedisStore(redisClient, cfg.RedisKey), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown preference store: %s", cfg.Store)
}

// setupEngines registers the clock engine and, when configured, the Google
// engine. The returned func releases the Google client and the audio player;
// call it after the registry is closed.
func setupEngines(ctx context.Context, registry *speech.Registry, cfg readaloud.Config, redisClient *redis.Client) (func(), error) {
	var closers []io.Closer
	cleanup := func() {
		for _, closer := range closers {
			if err := closer.Close(); err != nil {
				slog.Warn("Failed to release speech resource", slog.Any("err", err))
			}
		}
	}

	clock := speech.NewClockEngine(speech.ClockConfig{
		WordsPerMinute: cfg.Engine.WordsPerMinute,
		CatalogDelay:   cfg.Engine.CatalogDelay,
	})
	if err := registry.Register(clock); err != nil {
		return cleanup, err
	}

	if cfg.Engine.Name != "google" {
		return cleanup, nil
	}

	var sink io.Writer
	if len(cfg.Engine.Player) > 0 {
		playerSink, err := speech.NewCommandSink(cfg.Engine.Player)
		if err != nil {
			slog.Warn("Audio player unavailable, narrating silently", slog.Any("err", err))
		} else {
			sink = playerSink
			closers = append(closers, playerSink)
		}
	}

	slog.Info("Connecting to Google Cloud TTS")
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := texttospeech.NewClient(dialCtx)
	if err != nil {
		return cleanup, fmt.Errorf("failed to create TTS client: %w", err)
	}
	closers = append(closers, client)

	var synthesizer speech.Synthesizer = speech.NewGoogleSynthesizer(client, cfg.Google.SampleRate)
	if redisClient != nil {
		slog.Info("Redis is enabled, setting up cache")
		redisCache := cache.New(&cache.Options{
			Redis:      redisClient,
			LocalCache: cache.NewTinyLFU(5, time.Minute),
		})
		synthesizer = speech.NewCachedSynthesizer(synthesizer, redisCache, cfg.Redis.TTL, nil)
	}

	google := speech.NewGoogleEngine(client, synthesizer, speech.GoogleConfig{
		LanguageCode: cfg.Google.LanguageCode,
		DefaultVoice: cfg.Google.DefaultVoice,
		Sink:         sink,
	})
	return cleanup, registry.Register(google)
}
