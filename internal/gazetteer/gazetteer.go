// internal/gazetteer/gazetteer.go
package gazetteer

import (
	"sort"
	"strings"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

// DefaultConfidence is used for entries that do not state one
const DefaultConfidence = 0.8

// Alias is one lookup key of a gazetteer, lower-cased
type Alias struct {
	Key       string
	Canonical string
}

// Gazetteer is an immutable snapshot of known organizations keyed by
// lower-cased name and alias. A nil *Gazetteer is an empty gazetteer.
type Gazetteer struct {
	entries []models.GazetteerEntry
	byKey   map[string]int
	aliases []Alias
}

// New builds a snapshot from entries. The canonical name is always a key.
// When two entries claim the same alias the earlier entry keeps it.
func New(entries []models.GazetteerEntry) *Gazetteer {
	g := &Gazetteer{
		entries: make([]models.GazetteerEntry, 0, len(entries)),
		byKey:   make(map[string]int),
	}

	for _, e := range entries {
		name := strings.TrimSpace(e.CanonicalName)
		if name == "" {
			continue
		}
		entry := models.GazetteerEntry{
			CanonicalName: name,
			Category:      e.Category,
			Confidence:    e.Confidence,
		}
		if entry.Confidence <= 0 {
			entry.Confidence = DefaultConfidence
		}
		if entry.Confidence > 1 {
			entry.Confidence = 1
		}

		seen := map[string]bool{strings.ToLower(name): true}
		for _, a := range e.Aliases {
			a = strings.TrimSpace(a)
			if a == "" || seen[strings.ToLower(a)] {
				continue
			}
			seen[strings.ToLower(a)] = true
			entry.Aliases = append(entry.Aliases, a)
		}

		idx := len(g.entries)
		g.entries = append(g.entries, entry)
		for key := range seen {
			if _, taken := g.byKey[key]; taken {
				continue
			}
			g.byKey[key] = idx
			g.aliases = append(g.aliases, Alias{Key: key, Canonical: name})
		}
	}

	// Longest first so fuzzy resolution and text scans prefer specific names
	sort.Slice(g.aliases, func(i, j int) bool {
		if len(g.aliases[i].Key) != len(g.aliases[j].Key) {
			return len(g.aliases[i].Key) > len(g.aliases[j].Key)
		}
		return g.aliases[i].Key < g.aliases[j].Key
	})

	return g
}

// Lookup finds the entry whose canonical name or alias equals name, ignoring case
func (g *Gazetteer) Lookup(name string) (models.GazetteerEntry, bool) {
	if g == nil {
		return models.GazetteerEntry{}, false
	}
	idx, ok := g.byKey[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return models.GazetteerEntry{}, false
	}
	return cloneEntry(g.entries[idx]), true
}

// Entries returns a copy of every entry in load order
func (g *Gazetteer) Entries() []models.GazetteerEntry {
	if g == nil {
		return nil
	}
	out := make([]models.GazetteerEntry, len(g.entries))
	for i, e := range g.entries {
		out[i] = cloneEntry(e)
	}
	return out
}

// Aliases returns every lookup key, longest first then alphabetical.
// The returned slice is shared and must not be modified.
func (g *Gazetteer) Aliases() []Alias {
	if g == nil {
		return nil
	}
	return g.aliases
}

// Len is the number of entries
func (g *Gazetteer) Len() int {
	if g == nil {
		return 0
	}
	return len(g.entries)
}

func cloneEntry(e models.GazetteerEntry) models.GazetteerEntry {
	e.Aliases = append([]string(nil), e.Aliases...)
	return e
}
