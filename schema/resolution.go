package schema

// ResolutionKind tells whether input resolved to an address or a search.
type ResolutionKind string

const (
	// ResolutionAddress means the input is a navigable address.
	ResolutionAddress ResolutionKind = "address"
	// ResolutionSearch means the input is a search query.
	ResolutionSearch ResolutionKind = "search"
)

// Resolution is the outcome of classifying user input.
type Resolution struct {
	Kind ResolutionKind
	// URL is the normalized address when Kind is ResolutionAddress.
	URL string
	// Term is the trimmed query when Kind is ResolutionSearch.
	Term string
}

// IsAddress reports whether the resolution is an address.
func (r Resolution) IsAddress() bool {
	return r.Kind == ResolutionAddress
}
