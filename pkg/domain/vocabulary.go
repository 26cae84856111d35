package domain

// Option literals are compared for equality against raw user text, so they
// must stay byte-for-byte identical to what the frontend renders.
const (
	OptionYesPlease    = "Yes, please!"
	OptionNoThanks     = "No, thanks."
	OptionConfirm      = "Confirm"
	OptionEdit         = "Edit"
	OptionYes          = "Yes"
	OptionNo           = "No"
	OptionRatherNotSay = "I'd rather not say"
	OptionRegister     = "Register"
)

// Timeline options.
const (
	TimelineASAP          = "ASAP"
	TimelineOneToThree    = "1-3 months"
	TimelineThreeToSix    = "3-6 months"
	TimelineSixMonthsPlus = "6+ months"
)

// TimelineOptions is the four-option timeline vocabulary in display order.
var TimelineOptions = []string{
	TimelineASAP,
	TimelineOneToThree,
	TimelineThreeToSix,
	TimelineSixMonthsPlus,
}

// PropertyTypeResidential is the label that unlocks the bedroom question.
// Its subtypes do too, except PropertySubtypeStudio which implies 0 bedrooms.
const (
	PropertyTypeResidential = "Residential"
	PropertySubtypeStudio   = "Studio"
)

// PropertyCategory is a top-level property type and its subtypes.
type PropertyCategory struct {
	Label    string
	Subtypes []string
}

// PropertyCatalog is the closed property-type vocabulary.
var PropertyCatalog = []PropertyCategory{
	{Label: PropertyTypeResidential, Subtypes: []string{"Flat", "House", "Bungalow", PropertySubtypeStudio}},
	{Label: "Commercial", Subtypes: []string{"Office", "Retail", "Industrial"}},
	{Label: "Land", Subtypes: []string{"Residential Land", "Agricultural Land"}},
}

// PropertyTypeLabels flattens the catalog into its top-level labels.
func PropertyTypeLabels() []string {
	labels := make([]string, 0, len(PropertyCatalog))
	for _, c := range PropertyCatalog {
		labels = append(labels, c.Label)
	}
	return labels
}

// ParentPropertyType returns the top-level label owning subtype, if any.
func ParentPropertyType(subtype string) (string, bool) {
	for _, c := range PropertyCatalog {
		for _, s := range c.Subtypes {
			if s == subtype {
				return c.Label, true
			}
		}
	}
	return "", false
}
