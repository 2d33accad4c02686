package i18n

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/BurntSushi/toml"
)

// genericResources maps a locale such as "en-US" to its resource. Lookups can
// fall back from a regional locale to its generic language ("en").
type genericResources[S ~string, T any] map[S]T

func (r genericResources[S, T]) Get(locale S) (T, bool) {
	resource, ok := r[locale]
	return resource, ok
}

// GetOrGeneric returns the resource for locale, or for its language without
// the region subtag.
func (r genericResources[S, T]) GetOrGeneric(locale S) (T, bool) {
	if resource, ok := r[locale]; ok {
		return resource, true
	}
	language, _, found := strings.Cut(string(locale), "-")
	if !found {
		var zero T
		return zero, false
	}
	resource, ok := r[S(language)]
	return resource, ok
}

func load[S ~string, T any, U ~map[S]T](directory string, resources U) error {
	entries, err := os.ReadDir(directory)
	if err != nil {
		return fmt.Errorf("failed to read text resources directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}

		locale := strings.TrimSuffix(entry.Name(), ".toml")
		filePath := path.Join(directory, entry.Name())

		var resource T
		metadata, err := toml.DecodeFile(filePath, &resource)
		if err != nil {
			return fmt.Errorf("failed to decode text resource file %s: %w", filePath, err)
		}

		if len(metadata.Undecoded()) > 0 {
			slog.Warn("text resource file contains undecoded fields", "file", filePath, "fields", metadata.Undecoded())
			return fmt.Errorf("text resource file %s contains undecoded fields: %v", filePath, metadata.Undecoded())
		}

		resources[S(locale)] = resource
		slog.Debug("Loaded text resource", "locale", locale, "file", filePath)
	}

	return nil
}
