package i18n

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadTextResources(t *testing.T) {
	trs, err := LoadTextResources("../../locales/", "en-US")
	if err != nil {
		t.Fatalf("Failed to load text resources: %v", err)
	}

	if len(trs.genericResources) == 0 {
		t.Fatal("No text resources loaded")
	}

	for locale, resource := range trs.genericResources {
		t.Run(fmt.Sprintf("locale_%s", locale), func(t *testing.T) {
			for _, e := range validateResource(resource, "TextResource") {
				t.Error(e)
			}
		})
	}
}

func TestTextResourcesLocale(t *testing.T) {
	trs, err := LoadTextResources("../../locales/", "en-US")
	if err != nil {
		t.Fatalf("Failed to load text resources: %v", err)
	}

	if got := trs.Locale("ja-JP").State.Speaking; got != "読み上げ中" {
		t.Errorf("Locale(ja-JP).State.Speaking = %s, expected 読み上げ中", got)
	}
	if got := trs.Locale("fr-FR").State.Speaking; got != "Speaking" {
		t.Errorf("Locale(fr-FR).State.Speaking = %s, expected the fallback", got)
	}
}

func TestLoadTextResourcesMissingFallback(t *testing.T) {
	if _, err := LoadTextResources("../../locales/", "xx"); err == nil {
		t.Error("Expected an error for a missing fallback locale")
	}
}

func TestLoadTextResourcesIncomplete(t *testing.T) {
	complete, err := os.ReadFile("../../locales/en-US.toml")
	if err != nil {
		t.Fatalf("Failed to read en-US resource: %v", err)
	}

	dir := t.TempDir()
	files := map[string][]byte{
		"en-US.toml": complete,
		"fr.toml":    []byte("[state]\nidle = \"Inactif\"\n"),
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), content, 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}

	trs, err := LoadTextResources(dir, "en-US")
	if err != nil {
		t.Fatalf("Failed to load text resources: %v", err)
	}
	if _, ok := trs.Get("fr"); ok {
		t.Error("Expected the incomplete fr resource to be dropped")
	}
	if got := trs.Locale("fr-FR").State.Idle; got != "Idle" {
		t.Errorf("Locale(fr-FR).State.Idle = %s, expected the fallback", got)
	}

	if _, err := LoadTextResources(dir, "fr"); err == nil {
		t.Error("Expected an error for an incomplete fallback locale")
	}
}
