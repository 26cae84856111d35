package format

import (
	"strings"

	"github.com/aretw0/lodge/pkg/domain"
)

var subtypePlurals = map[string]string{
	"Flat":     "flats",
	"House":    "houses",
	"Bungalow": "bungalows",
	"Studio":   "studios",
}

// BuildConfirmationMessage composes one sentence summarising the filters,
// e.g. "You're looking for 2-3 bedroom residential properties in London
// between £200,000 and £400,000." It returns "" when every filter is unset.
func BuildConfirmationMessage(f domain.Filters) string {
	if f.IsEmpty() {
		return ""
	}

	var b strings.Builder
	b.WriteString("You're looking for ")

	if isResidential(f) && !isStudio(f) {
		if beds := FormatBedroomRange(f.Bedrooms); beds != "" {
			b.WriteString(beds)
			b.WriteString(" bedroom ")
		}
	}

	b.WriteString(propertyPhrase(f))

	if f.Location != nil && strings.TrimSpace(*f.Location) != "" {
		b.WriteString(" in ")
		b.WriteString(strings.TrimSpace(*f.Location))
	}
	if price := FormatPriceRange(f.Price); price != "" {
		b.WriteString(" ")
		b.WriteString(price)
	}
	b.WriteString(".")
	return b.String()
}

// BedroomSummary renders the "Got it!" acknowledgement for a parsed range.
func BedroomSummary(r domain.Range[int]) string {
	if r.Min != nil && r.Max != nil && *r.Min == 0 && *r.Max == 0 {
		return "Got it! Looking for studio properties."
	}
	return "Got it! Looking for " + FormatBedroomRange(r) + " bedroom properties."
}

// BuildCompletionSummary maps transcript turns to summary entries, dropping
// turns without text.
func BuildCompletionSummary(transcript []domain.Turn) []domain.SummaryEntry {
	out := make([]domain.SummaryEntry, 0, len(transcript))
	for _, t := range transcript {
		if strings.TrimSpace(t.Text) == "" {
			continue
		}
		out = append(out, domain.SummaryEntry{
			Sender:    t.Speaker,
			Text:      t.Text,
			Timestamp: t.Timestamp,
			Options:   t.Options,
		})
	}
	return out
}

func propertyPhrase(f domain.Filters) string {
	if f.PropertySubtype != nil && *f.PropertySubtype != "" {
		if plural, ok := subtypePlurals[*f.PropertySubtype]; ok {
			return plural
		}
		return strings.ToLower(*f.PropertySubtype) + " properties"
	}
	if f.PropertyType != nil && *f.PropertyType != "" {
		return strings.ToLower(*f.PropertyType) + " properties"
	}
	return "properties"
}

func isResidential(f domain.Filters) bool {
	if f.PropertyType != nil && strings.EqualFold(*f.PropertyType, domain.PropertyTypeResidential) {
		return true
	}
	if f.PropertySubtype != nil {
		parent, ok := domain.ParentPropertyType(*f.PropertySubtype)
		return ok && parent == domain.PropertyTypeResidential
	}
	return false
}

func isStudio(f domain.Filters) bool {
	if f.PropertySubtype != nil && strings.EqualFold(*f.PropertySubtype, "Studio") {
		return true
	}
	b := f.Bedrooms
	return b.Min != nil && b.Max != nil && *b.Min == 0 && *b.Max == 0
}
