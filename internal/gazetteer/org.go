package gazetteer

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

// Categories and confidences of org-scoped entries
const (
	CategoryOrgBrand          = "org_brand"
	CategoryCatalogCompetitor = "catalog_competitor"
	CategoryProfileCompetitor = "profile_competitor"

	orgBrandConfidence   = 1.0
	competitorConfidence = 0.9
)

// FromCatalog builds the account-scoped gazetteer from an org's verified brand
// catalog plus the competitors listed on its profile. Nothing from the global
// gazetteer is included.
func FromCatalog(catalog []models.BrandCatalogEntry, profileCompetitors []string) *Gazetteer {
	entries := make([]models.GazetteerEntry, 0, len(catalog)+len(profileCompetitors))
	known := make(map[string]bool)

	for _, item := range catalog {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			continue
		}
		entry := models.GazetteerEntry{
			CanonicalName: name,
			Category:      CategoryCatalogCompetitor,
			Aliases:       item.Variants,
			Confidence:    competitorConfidence,
		}
		if item.IsOrgBrand {
			entry.Category = CategoryOrgBrand
			entry.Confidence = orgBrandConfidence
		}
		entries = append(entries, entry)
		known[strings.ToLower(name)] = true
		for _, v := range item.Variants {
			known[strings.ToLower(strings.TrimSpace(v))] = true
		}
	}

	for _, c := range profileCompetitors {
		name := strings.TrimSpace(c)
		if name == "" || known[strings.ToLower(name)] {
			continue
		}
		known[strings.ToLower(name)] = true
		entries = append(entries, models.GazetteerEntry{
			CanonicalName: name,
			Category:      CategoryProfileCompetitor,
			Confidence:    competitorConfidence,
		})
	}

	return New(entries)
}

// CatalogVersion fingerprints the inputs of FromCatalog. Two calls return the
// same version exactly when FromCatalog would build the same gazetteer.
func CatalogVersion(catalog []models.BrandCatalogEntry, profileCompetitors []string) string {
	d := xxhash.New()
	for _, item := range catalog {
		_, _ = d.WriteString(item.Name)
		if item.IsOrgBrand {
			_, _ = d.WriteString("\x01")
		}
		for _, v := range item.Variants {
			_, _ = d.WriteString("\x02" + v)
		}
		_, _ = d.WriteString("\x00")
	}
	_, _ = d.WriteString("\x03")
	for _, c := range profileCompetitors {
		_, _ = d.WriteString(c + "\x00")
	}
	return strconv.FormatUint(d.Sum64(), 16)
}
