package models

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// ProductCategory is one of the fixed catalog categories.
type ProductCategory string

const (
	CategoryElectronics ProductCategory = "Electronics"
	CategoryClothing    ProductCategory = "Clothing"
	CategoryBooks       ProductCategory = "Books"
	CategoryHome        ProductCategory = "Home"
	CategoryOther       ProductCategory = "Other"
)

var Categories = []ProductCategory{
	CategoryElectronics,
	CategoryClothing,
	CategoryBooks,
	CategoryHome,
	CategoryOther,
}

// ParseCategory matches value against the known categories ignoring case and
// surrounding whitespace.
func ParseCategory(value string) (ProductCategory, bool) {
	trimmed := strings.TrimSpace(value)
	for _, category := range Categories {
		if strings.EqualFold(trimmed, string(category)) {
			return category, true
		}
	}
	return "", false
}

// UnmarshalBSONValue accepts both string and array BSON types so documents
// written by older revisions (category stored as a list) still decode. Known
// categories are canonicalised; unknown values are kept as-is.
func (c *ProductCategory) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	var raw string
	switch t {
	case bsontype.Null, bsontype.Undefined:
		*c = ""
		return nil
	case bsontype.String:
		if err := bson.UnmarshalValue(t, data, &raw); err != nil {
			return err
		}
	case bsontype.Array:
		var values []string
		if err := bson.UnmarshalValue(t, data, &values); err != nil {
			return err
		}
		if len(values) > 0 {
			raw = values[0]
		}
	default:
		return fmt.Errorf("cannot decode %s into ProductCategory", t)
	}

	if known, ok := ParseCategory(raw); ok {
		*c = known
		return nil
	}
	*c = ProductCategory(strings.TrimSpace(raw))
	return nil
}

// MarshalBSONValue always stores the category as a plain string.
func (c ProductCategory) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(string(c))
}
