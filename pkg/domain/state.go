package domain

// Number constrains the element type of a Range.
type Number interface {
	~int | ~float64
}

// Range is an optional lower/upper bound pair. Nil means unset.
type Range[T Number] struct {
	Min *T `json:"min,omitempty" mapstructure:"min"`
	Max *T `json:"max,omitempty" mapstructure:"max"`
}

// NewRange builds a Range with both bounds set.
func NewRange[T Number](lo, hi T) Range[T] {
	return Range[T]{Min: &lo, Max: &hi}
}

// IsZero reports whether neither bound is set.
func (r Range[T]) IsZero() bool {
	return r.Min == nil && r.Max == nil
}

// Ptr returns nil for an empty range so sparse encoders can drop it.
func (r Range[T]) Ptr() *Range[T] {
	if r.IsZero() {
		return nil
	}
	return &r
}

// LoanStatus is the tri-state answer to the financial readiness question.
// The zero value means the question was never asked.
type LoanStatus string

const (
	LoanApproved    LoanStatus = "yes"
	LoanNotApproved LoanStatus = "no"
	LoanDeclined    LoanStatus = "declined"
)

// Filters are the search criteria the dialog collects or confirms.
type Filters struct {
	Location        *string        `json:"location,omitempty"`
	PropertyType    *string        `json:"propertyType,omitempty"`
	PropertySubtype *string        `json:"propertySubtype,omitempty"`
	Bedrooms        Range[int]     `json:"bedrooms"`
	Price           Range[float64] `json:"price"`

	// Prefilled is set when the filters came from an upstream search form.
	Prefilled bool `json:"prefilled"`
}

// IsEmpty reports whether no criterion is set.
func (f Filters) IsEmpty() bool {
	return f.Location == nil && f.PropertyType == nil && f.PropertySubtype == nil &&
		f.Bedrooms.IsZero() && f.Price.IsZero()
}

// Preferences are the lifestyle answers gathered after the filters.
type Preferences struct {
	NeedsPublicTransport *bool      `json:"needsPublicTransport,omitempty"`
	NeedsSchools         *bool      `json:"needsSchools,omitempty"`
	Timeline             *string    `json:"timeline,omitempty"`
	HasPreApprovedLoan   LoanStatus `json:"hasPreApprovedLoan,omitempty"`
}

// IsEmpty reports whether no preference is set.
func (p Preferences) IsEmpty() bool {
	return p.NeedsPublicTransport == nil && p.NeedsSchools == nil &&
		p.Timeline == nil && p.HasPreApprovedLoan == ""
}

// SeedFilters are the optional criteria supplied when a conversation starts.
type SeedFilters struct {
	Location        *string        `json:"location,omitempty" mapstructure:"location"`
	PropertyType    *string        `json:"propertyType,omitempty" mapstructure:"propertyType"`
	PropertySubtype *string        `json:"propertySubtype,omitempty" mapstructure:"propertySubtype"`
	Bedrooms        Range[int]     `json:"bedrooms" mapstructure:"bedrooms"`
	Price           Range[float64] `json:"price" mapstructure:"price"`
}

// ConversationState is the single mutable aggregate of one session.
// Pointer fields are replaced, never written through, so a value copy is
// an independent snapshot.
type ConversationState struct {
	Step         Step        `json:"step"`
	Filters      Filters     `json:"filters"`
	Preferences  Preferences `json:"preferences"`
	ContactEmail *string     `json:"contactEmail,omitempty"`

	// Finalized latches once the finalize event has been emitted.
	Finalized bool `json:"finalized"`
}

// NewState creates a clean state at the Initial step, optionally seeded.
func NewState(seed *SeedFilters) ConversationState {
	state := ConversationState{Step: StepInitial}
	if seed != nil {
		state.Filters = Filters{
			Location:        seed.Location,
			PropertyType:    seed.PropertyType,
			PropertySubtype: seed.PropertySubtype,
			Bedrooms:        seed.Bedrooms,
			Price:           seed.Price,
			Prefilled:       true,
		}
	}
	return state
}

// Ptr returns a pointer to a copy of v.
func Ptr[T any](v T) *T {
	return &v
}
