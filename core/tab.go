package core

import "pkt.systems/nexus/schema"

// tab tracks the state of a single navigable session.
type tab struct {
	ID         schema.TabID
	Title      string
	URL        string
	Active     bool
	ZoomFactor float64
	Muted      bool
	DevTools   bool
}

func newTab(id schema.TabID, title, url string) *tab {
	return &tab{
		ID:         id,
		Title:      title,
		URL:        url,
		ZoomFactor: 1.0,
	}
}

// Snapshot returns a copy safe to hand out of the manager.
func (t *tab) Snapshot() schema.TabSnapshot {
	return schema.TabSnapshot{
		ID:         t.ID,
		Title:      t.Title,
		URL:        t.URL,
		Active:     t.Active,
		ZoomFactor: t.ZoomFactor,
		Muted:      t.Muted,
		DevTools:   t.DevTools,
	}
}
