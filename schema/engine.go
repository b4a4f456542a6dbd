package schema

import "strings"

const (
	// EngineGoogle is the Google search engine.
	EngineGoogle EngineName = "google"
	// EngineDuckDuckGo is the DuckDuckGo search engine.
	EngineDuckDuckGo EngineName = "duckduckgo"
	// EngineYahoo is the Yahoo search engine.
	EngineYahoo EngineName = "yahoo"
	// EngineBing is the Bing search engine.
	EngineBing EngineName = "bing"
)

// DefaultEngine is used when no settings have been saved.
const DefaultEngine = EngineGoogle

// Engine describes a search provider.
type Engine struct {
	Name  EngineName
	Title string
	Home  string
	// SearchTemplate contains a single %s for the escaped search term.
	SearchTemplate string
}

var engines = []Engine{
	{Name: EngineGoogle, Title: "Google", Home: "https://google.com", SearchTemplate: "https://google.com/search?q=%s"},
	{Name: EngineDuckDuckGo, Title: "DuckDuckGo", Home: "https://duckduckgo.com", SearchTemplate: "https://duckduckgo.com/?q=%s"},
	{Name: EngineYahoo, Title: "Yahoo", Home: "https://search.yahoo.com", SearchTemplate: "https://search.yahoo.com/search?p=%s"},
	{Name: EngineBing, Title: "Bing", Home: "https://www.bing.com", SearchTemplate: "https://www.bing.com/search?q=%s"},
}

// AvailableEngines returns the supported engines in display order.
func AvailableEngines() []Engine {
	out := make([]Engine, len(engines))
	copy(out, engines)
	return out
}

// LookupEngine returns the engine registered under name.
func LookupEngine(name EngineName) (Engine, bool) {
	for _, engine := range engines {
		if engine.Name == name {
			return engine, true
		}
	}
	return Engine{}, false
}

// NormalizeEngineName returns the canonical engine name if supported.
// Matching ignores case, surrounding space, '-', '_' and ' ' so that display
// titles such as "DuckDuckGo" are accepted.
func NormalizeEngineName(name string) (EngineName, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = strings.NewReplacer("-", "", "_", "", " ", "").Replace(normalized)
	switch normalized {
	case "google":
		return EngineGoogle, nil
	case "duckduckgo", "ddg":
		return EngineDuckDuckGo, nil
	case "yahoo":
		return EngineYahoo, nil
	case "bing":
		return EngineBing, nil
	default:
		return "", ErrUnknownEngine
	}
}
