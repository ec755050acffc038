package types

import "fmt"

// EditableField identifies one reviewer-editable enrichment field.
// The set is closed: every value maps to exactly one facet field.
type EditableField int

// EditableField constants
const (
	FieldProductTitle EditableField = iota + 1
	FieldShortDescription
	FieldPrimaryCategory
	FieldTaxonomyPath
	FieldProductType
	FieldMetaTitle
	FieldMetaDescription
)

var editableFieldKeys = map[EditableField]string{
	FieldProductTitle:     "product_title",
	FieldShortDescription: "short_description",
	FieldPrimaryCategory:  "primary_category",
	FieldTaxonomyPath:     "taxonomy_path",
	FieldProductType:      "product_type",
	FieldMetaTitle:        "meta_title",
	FieldMetaDescription:  "meta_description",
}

// EditableFields lists every editable field in display order
var EditableFields = []EditableField{
	FieldProductTitle,
	FieldShortDescription,
	FieldPrimaryCategory,
	FieldTaxonomyPath,
	FieldProductType,
	FieldMetaTitle,
	FieldMetaDescription,
}

// UnknownFieldError is returned when a field key is not editable
type UnknownFieldError struct {
	Key string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown editable field: %q", e.Key)
}

// ParseEditableField converts a wire key into an EditableField
func ParseEditableField(key string) (EditableField, error) {
	for field, k := range editableFieldKeys {
		if k == key {
			return field, nil
		}
	}
	return 0, &UnknownFieldError{Key: key}
}

// String returns the wire key of the field
func (f EditableField) String() string {
	if k, ok := editableFieldKeys[f]; ok {
		return k
	}
	return fmt.Sprintf("EditableField(%d)", int(f))
}

// Facet returns the facet the field lives in
func (f EditableField) Facet() FacetType {
	switch f {
	case FieldProductTitle, FieldShortDescription:
		return FacetDescriptions
	case FieldPrimaryCategory, FieldTaxonomyPath, FieldProductType:
		return FacetCategorization
	case FieldMetaTitle, FieldMetaDescription:
		return FacetSEO
	}
	return ""
}

// MarshalText encodes the field as its wire key
func (f EditableField) MarshalText() ([]byte, error) {
	k, ok := editableFieldKeys[f]
	if !ok {
		return nil, &UnknownFieldError{Key: f.String()}
	}
	return []byte(k), nil
}

// UnmarshalText decodes a wire key, rejecting unknown keys
func (f *EditableField) UnmarshalText(text []byte) error {
	parsed, err := ParseEditableField(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
