package es

import "strings"

// Type is the relational type code reported in cursor descriptions.
type Type uint

const (
	TypeString Type = iota + 1
	TypeNumber
	TypeBoolean
	TypeDatetime
)

func (t Type) String() string {
	switch t {
	case TypeString:
		return "STRING"
	case TypeNumber:
		return "NUMBER"
	case TypeBoolean:
		return "BOOLEAN"
	case TypeDatetime:
		return "DATETIME"
	}
	return "UNKNOWN"
}

// ColumnDescription is one entry of a cursor description. DisplaySize,
// InternalSize, Precision and Scale are never reported by the SQL endpoint
// and stay nil; NullOK is always true since every field is optional in a
// document store.
type ColumnDescription struct {
	Name         string
	Type         Type
	DisplaySize  *int
	InternalSize *int
	Precision    *int
	Scale        *int
	NullOK       bool
}

// Row is one result row, aligned positionally with the description.
type Row []interface{}

// columnInfo is the wire shape of a column entry in a SQL response, under
// either the "columns" or the "schema" key depending on the dialect.
type columnInfo struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Alias string `json:"alias,omitempty"`
}

var typeMap = map[string]Type{
	"text":                      TypeString,
	"keyword":                   TypeString,
	"integer":                   TypeNumber,
	"half_float":                TypeNumber,
	"scaled_float":              TypeNumber,
	"geo_point":                 TypeString,
	"nested":                    TypeString,
	"object":                    TypeString,
	"date":                      TypeDatetime,
	"datetime":                  TypeDatetime,
	"timestamp":                 TypeDatetime,
	"short":                     TypeNumber,
	"long":                      TypeNumber,
	"float":                     TypeNumber,
	"double":                    TypeNumber,
	"bytes":                     TypeNumber,
	"boolean":                   TypeBoolean,
	"ip":                        TypeString,
	"interval_minute_to_second": TypeString,
	"interval_hour_to_second":   TypeString,
	"interval_hour_to_minute":   TypeString,
	"interval_day_to_second":    TypeString,
	"interval_day_to_minute":    TypeString,
	"interval_day_to_hour":      TypeString,
	"interval_year_to_month":    TypeString,
	"interval_second":           TypeString,
	"interval_minute":           TypeString,
	"interval_day":              TypeString,
	"interval_month":            TypeString,
	"interval_year":             TypeString,
	"time":                      TypeString,
}

// getType maps a native field type to its relational type code. An unknown
// type is a hard DataError so catalog drift fails loudly instead of guessing.
func getType(nativeType string) (Type, error) {
	t, ok := typeMap[strings.ToLower(nativeType)]
	if !ok {
		return 0, newError(KindData, "", "unknown field type %q", nativeType)
	}
	return t, nil
}

// descriptionFromColumns builds the cursor description for a SQL response.
// A column alias, when present, wins over the underlying field name.
func descriptionFromColumns(columns []columnInfo) ([]ColumnDescription, error) {
	description := make([]ColumnDescription, 0, len(columns))
	for _, column := range columns {
		t, err := getType(column.Type)
		if err != nil {
			return nil, err
		}
		name := column.Name
		if column.Alias != "" {
			name = column.Alias
		}
		description = append(description, ColumnDescription{
			Name:   name,
			Type:   t,
			NullOK: true,
		})
	}
	return description, nil
}
