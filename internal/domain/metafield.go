package domain

import (
	"fmt"
	"strings"
	"time"
)

// FieldType declares how a raw metafield string is interpreted.
type FieldType string

// Primitive field types.
const (
	FieldSingleLineText FieldType = "single_line_text"
	FieldMultiLineText  FieldType = "multi_line_text"
	FieldRichText       FieldType = "rich_text"
	FieldInteger        FieldType = "integer"
	FieldDecimal        FieldType = "decimal"
	FieldBoolean        FieldType = "true_false"
	FieldJSON           FieldType = "json"
	FieldDate           FieldType = "date"
	FieldDateTime       FieldType = "date_and_time"
	FieldMoney          FieldType = "money"
	FieldRating         FieldType = "rating"
	FieldURL            FieldType = "url"
	FieldColor          FieldType = "color"
	FieldID             FieldType = "id"
)

// Reference field types name the entity kind the GID points at.
const (
	FieldProductRef        FieldType = "Product"
	FieldProductVariantRef FieldType = "Product_variant"
	FieldCustomerRef       FieldType = "Customer"
	FieldCompanyRef        FieldType = "Company"
	FieldPageRef           FieldType = "Page"
	FieldCollectionRef     FieldType = "Collection"
	FieldFileRef           FieldType = "File"
	FieldMetaobjectRef     FieldType = "Metaobject"
)

// Unit field types.
const (
	FieldWeight    FieldType = "weight"
	FieldDimension FieldType = "dimension"
	FieldVolume    FieldType = "volume"
)

var knownFieldTypes = map[FieldType]struct{}{
	FieldSingleLineText: {}, FieldMultiLineText: {}, FieldRichText: {}, FieldInteger: {},
	FieldDecimal: {}, FieldBoolean: {}, FieldJSON: {}, FieldDate: {}, FieldDateTime: {},
	FieldMoney: {}, FieldRating: {}, FieldURL: {}, FieldColor: {}, FieldID: {},
	FieldProductRef: {}, FieldProductVariantRef: {}, FieldCustomerRef: {}, FieldCompanyRef: {},
	FieldPageRef: {}, FieldCollectionRef: {}, FieldFileRef: {}, FieldMetaobjectRef: {},
	FieldWeight: {}, FieldDimension: {}, FieldVolume: {},
}

// Known reports whether t is one of the declared field types.
func (t FieldType) Known() bool {
	_, ok := knownFieldTypes[t]
	return ok
}

// IsReference reports whether t points at another entity by GID.
func (t FieldType) IsReference() bool {
	switch t {
	case FieldProductRef, FieldProductVariantRef, FieldCustomerRef, FieldCompanyRef,
		FieldPageRef, FieldCollectionRef, FieldFileRef, FieldMetaobjectRef:
		return true
	}
	return false
}

// FallbackNamespace buckets raw keys that match no definition.
const FallbackNamespace = "global"

// FieldDefinition declares one metafield as "namespace.key" plus its type.
type FieldDefinition struct {
	Field string    `json:"field" yaml:"field"`
	Type  FieldType `json:"type" yaml:"type"`
}

// Split returns the namespace and key halves of Field.
func (d FieldDefinition) Split() (namespace, key string) {
	namespace, key, found := strings.Cut(d.Field, ".")
	if !found {
		return "", d.Field
	}
	return namespace, key
}

// Validate checks that Field has exactly two non-empty segments and a known type.
func (d FieldDefinition) Validate() error {
	parts := strings.Split(d.Field, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return fmt.Errorf("%w: field %q must be namespace.key", ErrInvalidInput, d.Field)
	}
	if !d.Type.Known() {
		return fmt.Errorf("%w: field %q has unknown type %q", ErrInvalidInput, d.Field, d.Type)
	}
	return nil
}

// RawMetafield is a metafield exactly as the storefront API returns it.
type RawMetafield struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// NormalizedMetafields maps namespace -> key -> raw string value.
type NormalizedMetafields map[string]map[string]string

// Get returns the raw value stored under namespace and key.
func (n NormalizedMetafields) Get(namespace, key string) (string, bool) {
	bucket, ok := n[namespace]
	if !ok {
		return "", false
	}
	v, ok := bucket[key]
	return v, ok
}

// ResolvedMetafieldInfo is a definition enriched with its split namespace and key.
type ResolvedMetafieldInfo struct {
	Namespace string    `json:"namespace"`
	Key       string    `json:"key"`
	FullKey   string    `json:"fullKey"`
	Type      FieldType `json:"type"`
}

// Metafields maps namespace -> key -> casted value.
type Metafields map[string]map[string]any

// Set stores value under namespace and key, creating the namespace bucket on demand.
func (m Metafields) Set(namespace, key string, value any) {
	bucket, ok := m[namespace]
	if !ok {
		bucket = make(map[string]any)
		m[namespace] = bucket
	}
	bucket[key] = value
}

// Lookup returns the casted value stored under namespace and key.
func (m Metafields) Lookup(namespace, key string) (any, bool) {
	bucket, ok := m[namespace]
	if !ok {
		return nil, false
	}
	v, ok := bucket[key]
	return v, ok
}

// InvalidDate is returned by date casts whose input does not parse.
var InvalidDate = time.Time{}

// IsInvalidDate reports whether t is the invalid date sentinel.
func IsInvalidDate(t time.Time) bool {
	return t.IsZero()
}
