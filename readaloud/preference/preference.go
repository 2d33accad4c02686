package preference

import (
	"context"
	"errors"
	"fmt"

	"github.com/makeitchaccha/read-aloud/readaloud/speech"
	"github.com/mitchellh/mapstructure"
)

var (
	ErrNotFound = errors.New("preference not found")
)

// Store persists preferences as string key/value pairs.
type Store interface {
	Get(ctx context.Context, name string) (string, error)
	Set(ctx context.Context, name, value string) error
	Delete(ctx context.Context, name string) error
	All(ctx context.Context) (map[string]string, error)
}

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// Preferences are the user choices that survive a restart.
type Preferences struct {
	Theme   Theme   `mapstructure:"theme"`
	VoiceID string  `mapstructure:"voice_id"`
	Rate    float64 `mapstructure:"rate"`
}

func Defaults() Preferences {
	return Preferences{
		Theme: ThemeLight,
		Rate:  speech.DefaultRate,
	}
}

// Load reads preferences from store. Missing or invalid entries fall back to
// Defaults.
func Load(ctx context.Context, store Store) (Preferences, error) {
	prefs := Defaults()
	values, err := store.All(ctx)
	if err != nil {
		return prefs, fmt.Errorf("failed to load preferences: %w", err)
	}

	decoded := Defaults()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &decoded,
	})
	if err != nil {
		return prefs, err
	}
	if err := decoder.Decode(values); err != nil {
		return prefs, fmt.Errorf("failed to decode preferences: %w", err)
	}

	if decoded.Theme.Valid() {
		prefs.Theme = decoded.Theme
	}
	prefs.VoiceID = decoded.VoiceID
	if decoded.Rate >= speech.MinRate && decoded.Rate <= speech.MaxRate {
		prefs.Rate = decoded.Rate
	}
	return prefs, nil
}

// Save writes every field of prefs to store.
func Save(ctx context.Context, store Store, prefs Preferences) error {
	var values map[string]interface{}
	if err := mapstructure.Decode(prefs, &values); err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}
	for name, value := range values {
		if err := store.Set(ctx, name, fmt.Sprint(value)); err != nil {
			return fmt.Errorf("failed to save preference %s: %w", name, err)
		}
	}
	return nil
}
