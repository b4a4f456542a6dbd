package schema

import "strconv"

// TabID identifies a tab. Ids are allocated by the tab manager, start at 1
// and are never reused.
type TabID int64

// String renders the id in base 10.
func (id TabID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseTabID parses a base 10 tab id.
func ParseTabID(value string) (TabID, error) {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n <= 0 {
		return 0, ErrTabNotFound
	}
	return TabID(n), nil
}

// EngineName identifies a search engine in the settings document.
type EngineName string

// Channel names a host bridge message stream.
type Channel string
