// Package navigate classifies address bar input as an address or a search.
package navigate

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/idna"

	"pkt.systems/nexus/schema"
)

var (
	protocolPattern = regexp.MustCompile(`(?i)^(https?|ftp)://`)
	// A word token (hyphens allowed between word characters), a dot, a label of
	// two or more characters, an optional second label, then end of input or
	// any non-alphanumeric character such as '/', '?' or ':'.
	domainPattern = regexp.MustCompile(`^\w+(?:-?\w)*\.\w{2,}(?:\.\w{2,})?(?:$|[^a-zA-Z0-9])`)

	hostProfile = idna.New(idna.MapForLookup(), idna.BidiRule(), idna.StrictDomainName(false))
)

// Classify decides whether input is an address or a search query.
// Input carrying an http, https or ftp scheme must parse strictly; when it
// does not, ErrInvalidAddress is returned instead of a search fallback.
func Classify(input string) (schema.Resolution, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return schema.Resolution{}, schema.ErrEmptyInput
	}
	if protocolPattern.MatchString(trimmed) {
		if err := parseStrict(trimmed); err != nil {
			return schema.Resolution{}, fmt.Errorf("%w: %q: %v", schema.ErrInvalidAddress, trimmed, err)
		}
		return schema.Resolution{Kind: schema.ResolutionAddress, URL: trimmed}, nil
	}
	if HasValidDomain(trimmed) {
		return schema.Resolution{Kind: schema.ResolutionAddress, URL: "https://" + trimmed}, nil
	}
	return schema.Resolution{Kind: schema.ResolutionSearch, Term: trimmed}, nil
}

// HasValidDomain reports whether text looks like a bare domain such as
// "google.com" or "example.co.uk/path", with no whitespace anywhere.
func HasValidDomain(text string) bool {
	if strings.IndexFunc(text, unicode.IsSpace) >= 0 {
		return false
	}
	return domainPattern.MatchString(text)
}

// BuildSearchURL substitutes the escaped term into the engine's search template.
// The engine must be one of schema.AvailableEngines.
func BuildSearchURL(name schema.EngineName, term string) string {
	engine, ok := schema.LookupEngine(name)
	if !ok {
		panic(fmt.Sprintf("navigate: search engine %q is not registered", name))
	}
	return fmt.Sprintf(engine.SearchTemplate, EscapeTerm(term))
}

// termUnescaper undoes QueryEscape for the marks a URI component may carry
// literally. QueryEscape turns a literal '+' into %2B, so every remaining '+'
// is a space.
var termUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EscapeTerm percent-encodes a search term for use as a query value. Letters,
// digits and -_.!~*'() pass through unchanged; spaces become %20.
func EscapeTerm(term string) string {
	return termUnescaper.Replace(url.QueryEscape(term))
}

// ResolveHomepage normalizes a homepage override before it is persisted.
// Empty input stays empty so the engine home is used.
func ResolveHomepage(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", nil
	}
	res, err := Classify(trimmed)
	if err != nil {
		return "", err
	}
	if !res.IsAddress() {
		return "", fmt.Errorf("%w: homepage %q is not an address", schema.ErrInvalidAddress, trimmed)
	}
	return res.URL, nil
}

func parseStrict(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme == "" {
		return errors.New("missing scheme")
	}
	host := parsed.Hostname()
	if host == "" {
		return errors.New("missing host")
	}
	if strings.IndexFunc(host, unicode.IsSpace) >= 0 {
		return errors.New("host contains whitespace")
	}
	if net.ParseIP(host) != nil {
		return nil
	}
	if _, err := hostProfile.ToASCII(host); err != nil {
		return err
	}
	return nil
}
