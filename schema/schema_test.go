package schema

import (
	"errors"
	"testing"
)

func TestNormalizeEngineName(t *testing.T) {
	cases := map[string]EngineName{
		"google":       EngineGoogle,
		" Google ":     EngineGoogle,
		"DuckDuckGo":   EngineDuckDuckGo,
		"duck-duck_go": EngineDuckDuckGo,
		"ddg":          EngineDuckDuckGo,
		"YAHOO":        EngineYahoo,
		"bing":         EngineBing,
	}
	for input, want := range cases {
		got, err := NormalizeEngineName(input)
		if err != nil {
			t.Fatalf("NormalizeEngineName(%q): %v", input, err)
		}
		if got != want {
			t.Fatalf("NormalizeEngineName(%q) = %q, want %q", input, got, want)
		}
	}
	for _, input := range []string{"", "altavista", "goggle"} {
		if _, err := NormalizeEngineName(input); !errors.Is(err, ErrUnknownEngine) {
			t.Fatalf("NormalizeEngineName(%q): expected ErrUnknownEngine, got %v", input, err)
		}
	}
}

func TestAvailableEnginesIsACopy(t *testing.T) {
	list := AvailableEngines()
	if len(list) != 4 {
		t.Fatalf("expected 4 engines, got %d", len(list))
	}
	list[0].Home = "https://example.invalid"
	if engine, _ := LookupEngine(EngineGoogle); engine.Home != "https://google.com" {
		t.Fatalf("engine registry was mutated: %q", engine.Home)
	}
}

func TestSettingsHome(t *testing.T) {
	defaults := DefaultSettings()
	if defaults.HomeURL() != "https://google.com" || defaults.HomeTitle() != "Google" {
		t.Fatalf("unexpected default home %q %q", defaults.HomeURL(), defaults.HomeTitle())
	}
	custom := Settings{Engine: EngineBing, Homepage: "https://example.org"}
	if custom.HomeURL() != "https://example.org" {
		t.Fatalf("expected homepage override, got %q", custom.HomeURL())
	}
	if custom.HomeTitle() != "Bing" {
		t.Fatalf("expected engine title, got %q", custom.HomeTitle())
	}
	blank := Settings{Engine: EngineYahoo, Homepage: "   "}
	if blank.HomeURL() != "https://search.yahoo.com" {
		t.Fatalf("expected engine home for blank homepage, got %q", blank.HomeURL())
	}
	unknown := Settings{Engine: "altavista"}
	if unknown.HomeURL() != "https://google.com" {
		t.Fatalf("expected default engine home, got %q", unknown.HomeURL())
	}
}

func TestSettingsValidate(t *testing.T) {
	if err := DefaultSettings().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if err := (Settings{Engine: "altavista"}).Validate(); !errors.Is(err, ErrUnknownEngine) {
		t.Fatalf("expected ErrUnknownEngine, got %v", err)
	}
}

func TestParseTabID(t *testing.T) {
	id, err := ParseTabID("42")
	if err != nil || id != 42 {
		t.Fatalf("ParseTabID(42) = %d, %v", id, err)
	}
	if id.String() != "42" {
		t.Fatalf("unexpected String %q", id.String())
	}
	for _, input := range []string{"", "0", "-3", "tab"} {
		if _, err := ParseTabID(input); !errors.Is(err, ErrTabNotFound) {
			t.Fatalf("ParseTabID(%q): expected ErrTabNotFound, got %v", input, err)
		}
	}
}

func TestNormalizeTabsConfig(t *testing.T) {
	cfg, err := NormalizeTabsConfig(TabsConfig{})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.MinZoom != DefaultMinZoom || cfg.MaxZoom != DefaultMaxZoom {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if _, err := NormalizeTabsConfig(TabsConfig{MinZoom: 1.5, MaxZoom: 3}); err == nil {
		t.Fatalf("expected range excluding 1.0 to fail")
	}
}
