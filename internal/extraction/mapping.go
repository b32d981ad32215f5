// ==============================================================================
// FIELD MAPPING - internal/extraction/mapping.go
// ==============================================================================
package extraction

import (
	"strings"

	"onboarding/internal/domain"
)

// Field synonyms as they appear on Colombian tax documents. Matching is a
// case and accent insensitive substring check.
var (
	taxIDSynonyms        = []string{"nit"}
	businessNameSynonyms = []string{"razon social", "nombres"}
)

// MapFields locates the tax id and business name among extracted fields and
// returns the business-data patch. Both keys are always present; absent
// fields map to empty strings, never to a missing entry.
func MapFields(fields []domain.ExtractedField) map[string]string {
	return map[string]string{
		"nit":          findField(fields, taxIDSynonyms),
		"businessName": findField(fields, businessNameSynonyms),
	}
}

func findField(fields []domain.ExtractedField, synonyms []string) string {
	for _, f := range fields {
		name := normalize(f.Field)
		for _, syn := range synonyms {
			if strings.Contains(name, syn) {
				return f.Value
			}
		}
	}
	return ""
}

var accentFolder = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n",
)

func normalize(s string) string {
	return accentFolder.Replace(strings.ToLower(strings.TrimSpace(s)))
}
