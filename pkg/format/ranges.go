package format

import (
	"fmt"
	"math"

	"github.com/aretw0/lodge/pkg/domain"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// CurrencySymbol prefixes every rendered price.
const CurrencySymbol = "£"

var printer = message.NewPrinter(language.BritishEnglish)

// FormatPrice renders a single amount with locale digit grouping.
// Whole amounts drop the pence.
func FormatPrice(v float64) string {
	if v == math.Trunc(v) {
		return printer.Sprintf("%s%v", CurrencySymbol, int64(v))
	}
	return printer.Sprintf("%s%.2f", CurrencySymbol, v)
}

// FormatPriceRange renders "between X and Y", "from X" or "up to Y".
func FormatPriceRange(r domain.Range[float64]) string {
	switch {
	case r.Min != nil && r.Max != nil:
		return fmt.Sprintf("between %s and %s", FormatPrice(*r.Min), FormatPrice(*r.Max))
	case r.Min != nil:
		return "from " + FormatPrice(*r.Min)
	case r.Max != nil:
		return "up to " + FormatPrice(*r.Max)
	default:
		return ""
	}
}

// FormatBedroomRange renders "N", "N-M", "N+" or "up to M".
func FormatBedroomRange(r domain.Range[int]) string {
	switch {
	case r.Min != nil && r.Max != nil && *r.Min == *r.Max:
		return fmt.Sprintf("%d", *r.Min)
	case r.Min != nil && r.Max != nil:
		return fmt.Sprintf("%d-%d", *r.Min, *r.Max)
	case r.Min != nil:
		return fmt.Sprintf("%d+", *r.Min)
	case r.Max != nil:
		return fmt.Sprintf("up to %d", *r.Max)
	default:
		return ""
	}
}
