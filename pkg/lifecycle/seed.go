package lifecycle

import (
	"fmt"
	"strings"

	"github.com/aretw0/lodge/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

var requiredCriteria = []string{"location", "propertyType", "bedrooms", "price"}

// DecodeSeed validates and decodes the search_criteria object a search form
// posts. A nil map means no seed. When criteria are present, location,
// propertyType, bedrooms and price are required, and the two ranges must be
// objects with min and max keys (either may be null).
func DecodeSeed(criteria map[string]any) (*domain.SeedFilters, error) {
	if criteria == nil {
		return nil, nil
	}

	for _, field := range requiredCriteria {
		if _, ok := criteria[field]; !ok {
			return nil, fmt.Errorf("%w: missing field %s", domain.ErrInvalidSeed, field)
		}
	}
	for _, field := range []string{"bedrooms", "price"} {
		r, ok := criteria[field].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s must be an object with min and max values", domain.ErrInvalidSeed, field)
		}
		_, hasMin := r["min"]
		_, hasMax := r["max"]
		if !hasMin || !hasMax {
			return nil, fmt.Errorf("%w: %s must be an object with min and max values", domain.ErrInvalidSeed, field)
		}
	}

	var seed domain.SeedFilters
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &seed,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(criteria); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSeed, err)
	}

	seed.Location = blankToNil(seed.Location)
	seed.PropertyType = blankToNil(seed.PropertyType)
	seed.PropertySubtype = blankToNil(seed.PropertySubtype)
	return &seed, nil
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	return &trimmed
}
