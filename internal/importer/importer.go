// Package importer converts a CSV export of metafield definitions into the
// YAML definitions file read by config.LoadDefinitions.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"storefront-kit/internal/config"
	"storefront-kit/internal/domain"
)

// Owner types accepted in the owner column.
const (
	OwnerProduct    = "PRODUCT"
	OwnerVariant    = "PRODUCTVARIANT"
	OwnerCollection = "COLLECTION"
	OwnerCart       = "CART"
)

// adminTypes maps admin export type names onto field types. "list." prefixes
// are stripped before lookup; list values are cast element-wise anyway.
var adminTypes = map[string]domain.FieldType{
	"single_line_text_field": domain.FieldSingleLineText,
	"multi_line_text_field":  domain.FieldMultiLineText,
	"rich_text_field":        domain.FieldRichText,
	"number_integer":         domain.FieldInteger,
	"number_decimal":         domain.FieldDecimal,
	"boolean":                domain.FieldBoolean,
	"date_time":              domain.FieldDateTime,
	"product_reference":      domain.FieldProductRef,
	"variant_reference":      domain.FieldProductVariantRef,
	"customer_reference":     domain.FieldCustomerRef,
	"company_reference":      domain.FieldCompanyRef,
	"page_reference":         domain.FieldPageRef,
	"collection_reference":   domain.FieldCollectionRef,
	"file_reference":         domain.FieldFileRef,
	"metaobject_reference":   domain.FieldMetaobjectRef,
}

// Result is what one import produced.
type Result struct {
	Definitions config.Definitions
	// Skipped lists rows whose owner type has no definitions group, as "line N: OWNER".
	Skipped []string
}

// CSVImporter reads definition rows with owner, namespace, key and type columns.
type CSVImporter struct {
	reader *csv.Reader
}

func NewCSVImporter(r io.Reader) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1
	csvr.TrimLeadingSpace = true
	return &CSVImporter{reader: csvr}
}

// Run parses every row and validates the assembled definitions.
func (i *CSVImporter) Run() (Result, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return Result{}, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	for _, col := range []string{"owner", "namespace", "key", "type"} {
		if _, ok := index[col]; !ok {
			return Result{}, fmt.Errorf("%w: missing column %q", domain.ErrInvalidInput, col)
		}
	}

	var res Result
	line := 1
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return res, fmt.Errorf("read row: %w", err)
		}

		owner := strings.ToUpper(strings.ReplaceAll(pick(record, index, "owner"), "_", ""))
		namespace := pick(record, index, "namespace")
		key := pick(record, index, "key")
		rawType := pick(record, index, "type")
		if owner == "" && key == "" {
			continue
		}

		if owner == OwnerCart {
			res.Definitions.CartAttributes = append(res.Definitions.CartAttributes, domain.CartAttributeDefinition{
				Key:  key,
				Type: domain.AttributeType(strings.ToLower(rawType)),
			})
			continue
		}

		def := domain.FieldDefinition{Field: namespace + "." + key, Type: fieldType(rawType)}
		switch owner {
		case OwnerProduct:
			res.Definitions.ProductMetafields = append(res.Definitions.ProductMetafields, def)
		case OwnerVariant, "VARIANT":
			res.Definitions.VariantMetafields = append(res.Definitions.VariantMetafields, def)
		case OwnerCollection:
			res.Definitions.CollectionMetafields = append(res.Definitions.CollectionMetafields, def)
		default:
			res.Skipped = append(res.Skipped, fmt.Sprintf("line %d: %s", line, owner))
		}
	}

	if err := res.Definitions.Validate(); err != nil {
		return res, err
	}
	return res, nil
}

func fieldType(raw string) domain.FieldType {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "list.")
	if t, ok := adminTypes[strings.ToLower(raw)]; ok {
		return t
	}
	return domain.FieldType(raw)
}

// headerIndex accepts both "owner" and admin-style "Owner type" headers.
func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		name := strings.ToLower(strings.TrimSpace(h))
		name = strings.TrimSuffix(strings.TrimSuffix(name, " type"), "_type")
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}
	return idx
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
