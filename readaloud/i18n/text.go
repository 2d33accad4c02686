package i18n

import (
	"errors"
	"fmt"
	"log/slog"
)

type TextResource struct {
	State struct {
		Idle     string `toml:"idle"`     // format: "Idle"
		Speaking string `toml:"speaking"` // format: "Speaking"
		Paused   string `toml:"paused"`   // format: "Paused"
	} `toml:"state"`
	Labels struct {
		Voice        string `toml:"voice"`         // format: "Voice"
		Rate         string `toml:"rate"`          // format: "Rate"
		Theme        string `toml:"theme"`         // format: "Theme"
		DefaultVoice string `toml:"default_voice"` // format: "engine default"
		Voices       string `toml:"voices"`        // format: "Available voices"
		Selected     string `toml:"selected"`      // format: "selected"
	} `toml:"labels"`
	Controls struct {
		Play   string `toml:"play"`   // format: "Play"
		Pause  string `toml:"pause"`  // format: "Pause"
		Resume string `toml:"resume"` // format: "Resume"
	} `toml:"controls"`
	Notices struct {
		Welcome           string `toml:"welcome"`            // format: "Type text to read aloud. :help lists commands."
		EngineUnavailable string `toml:"engine_unavailable"` // format: "Speech is not available on this system (%[1]s)."
		EmptyCatalog      string `toml:"empty_catalog"`      // format: "No voices are available yet; the engine default voice is used."
		ThemeChanged      string `toml:"theme_changed"`      // format: "Theme set to %[1]s"
		TextSet           string `toml:"text_set"`           // format: "Text set (%[1]d characters)"
		Goodbye           string `toml:"goodbye"`            // format: "Bye!"
	} `toml:"notices"`
	Errors struct {
		EmptyText      string `toml:"empty_text"`      // format: "Enter some text first."
		InvalidRate    string `toml:"invalid_rate"`    // format: "Rate must be a number between %.1[1]f and %.1[2]f."
		UnknownVoice   string `toml:"unknown_voice"`   // format: "Voice %[1]s not found."
		UnknownCommand string `toml:"unknown_command"` // format: "Unknown command %[1]s. Type :help."
		SpeechFailed   string `toml:"speech_failed"`   // format: "Narration stopped: %[1]v. :play continues from here."
		Generic        string `toml:"generic"`         // format: "Something went wrong: %[1]v"
	} `toml:"errors"`
	Help struct {
		Text   string `toml:"text"`   // format: "<text>       set the text to read"
		Play   string `toml:"play"`   // format: ":play        play, pause or resume"
		Stop   string `toml:"stop"`   // format: ":stop        stop and keep the position"
		Voice  string `toml:"voice"`  // format: ":voice <id>  select a voice"
		Voices string `toml:"voices"` // format: ":voices      list voices"
		Rate   string `toml:"rate"`   // format: ":rate <r>    set the rate"
		Theme  string `toml:"theme"`  // format: ":theme       toggle light/dark"
		Help   string `toml:"help"`   // format: ":help        show this help"
		Quit   string `toml:"quit"`   // format: ":quit        exit"
	} `toml:"help"`
}

type TextResources struct {
	genericResources[string, TextResource]
	fallbackLocale string
}

func LoadTextResources(directory string, fallbackLocale string) (*TextResources, error) {
	resources := &TextResources{
		genericResources: make(genericResources[string, TextResource]),
		fallbackLocale:   fallbackLocale,
	}

	if err := load(directory, resources.genericResources); err != nil {
		return nil, err
	}

	// validate that the fallback locale is present
	if _, ok := resources.genericResources[resources.fallbackLocale]; !ok {
		return nil, fmt.Errorf("fallback locale %s not found in text resources", fallbackLocale)
	}

	// an incomplete locale is dropped so lookups fall back instead of printing blanks
	for locale, resource := range resources.genericResources {
		errs := validateResource(resource, "TextResource")
		if len(errs) == 0 {
			continue
		}
		if locale == fallbackLocale {
			return nil, fmt.Errorf("fallback locale %s is incomplete: %w", locale, errors.Join(errs...))
		}
		slog.Warn("Ignoring incomplete text resource", slog.String("locale", locale), slog.Any("err", errors.Join(errs...)))
		delete(resources.genericResources, locale)
	}

	return resources, nil
}

// Locale returns the resource for locale, its generic language or the fallback.
func (trs *TextResources) Locale(locale string) TextResource {
	if resource, ok := trs.GetOrGeneric(locale); ok {
		return resource
	}
	return trs.GetFallback()
}

func (trs *TextResources) GetFallback() TextResource {
	resource, ok := trs.genericResources[trs.fallbackLocale]
	if !ok {
		// validated in LoadTextResources
		panic(fmt.Sprintf("fallback locale %s not found in text resources", trs.fallbackLocale))
	}
	return resource
}
