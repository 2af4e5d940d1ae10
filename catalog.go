package es

import (
	"log"
	"strings"
)

// CatalogColumn is one reflected column, typed with a SQL type name for ORM
// and query-builder consumption.
type CatalogColumn struct {
	Name     string
	Type     string
	Nullable bool
	Default  interface{}
}

// CatalogIndex exists so the introspection contract is complete; the store
// has no secondary relational indexes and the adapter never returns any.
type CatalogIndex struct {
	Name    string
	Columns []string
	Unique  bool
}

// Catalog implements the relational-introspection contract on top of the
// cursor layer. It is stateless: every call re-queries the cluster so
// reflection never goes stale.
type Catalog struct {
	conn *Connection
}

// NewCatalog returns a catalog adapter over an open connection.
func NewCatalog(conn *Connection) *Catalog {
	return &Catalog{conn: conn}
}

// TableNames lists the reflectable tables, skipping internal dot-prefixed
// indices.
func (c *Catalog) TableNames() ([]string, error) {
	return c.names("SHOW VALID_TABLES")
}

// ViewNames lists aliases the cluster exposes as views.
func (c *Catalog) ViewNames() ([]string, error) {
	return c.names("SHOW VALID_VIEWS")
}

// HasTable reports whether the named table is reflectable.
func (c *Catalog) HasTable(name string) (bool, error) {
	tables, err := c.TableNames()
	if err != nil {
		return false, err
	}
	for _, table := range tables {
		if table == name {
			return true, nil
		}
	}
	return false, nil
}

// Columns reflects the flat column list of a table. Array-backed fields are
// excluded: the SQL dialect fans them out in ways a single-valued relational
// column cannot represent. Object containers are likewise skipped.
func (c *Catalog) Columns(table string) ([]CatalogColumn, error) {
	arrays, err := c.arrayColumnSet(table)
	if err != nil {
		return nil, err
	}
	cursor, err := c.conn.Execute("SHOW COLUMNS FROM "+table, nil)
	if err != nil {
		return nil, err
	}
	rows, err := cursor.Fetchall()
	if err != nil {
		return nil, err
	}

	columns := []CatalogColumn{}
	for _, row := range rows {
		name, ok := stringCell(row, 0)
		if !ok {
			continue
		}
		mapping, _ := stringCell(row, 1)
		if mapping == "object" || mapping == "nested" || arrays[name] {
			continue
		}
		columns = append(columns, CatalogColumn{
			Name:     name,
			Type:     sqlTypeName(mapping),
			Nullable: true,
		})
	}
	return columns, nil
}

// PrimaryKey always returns empty: documents have no primary key.
func (c *Catalog) PrimaryKey(table string) ([]string, error) {
	return []string{}, nil
}

// ForeignKeys always returns empty: the store has no referential concepts.
func (c *Catalog) ForeignKeys(table string) ([]string, error) {
	return []string{}, nil
}

// Indexes always returns empty: index structures are not reflectable.
func (c *Catalog) Indexes(table string) ([]CatalogIndex, error) {
	return []CatalogIndex{}, nil
}

func (c *Catalog) names(command string) ([]string, error) {
	cursor, err := c.conn.Execute(command, nil)
	if err != nil {
		return nil, err
	}
	rows, err := cursor.Fetchall()
	if err != nil {
		return nil, err
	}
	names := []string{}
	for _, row := range rows {
		if name, ok := stringCell(row, 0); ok && !strings.HasPrefix(name, ".") {
			names = append(names, name)
		}
	}
	return names, nil
}

func (c *Catalog) arrayColumnSet(table string) (map[string]bool, error) {
	cursor, err := c.conn.Execute("SHOW ARRAY_COLUMNS FROM "+table, nil)
	if err != nil {
		return nil, err
	}
	rows, err := cursor.Fetchall()
	if err != nil {
		return nil, err
	}
	arrays := map[string]bool{}
	for _, row := range rows {
		if name, ok := stringCell(row, 0); ok {
			arrays[name] = true
		}
	}
	return arrays, nil
}

var sqlTypeMap = map[string]string{
	"bytes":        "VARBINARY",
	"boolean":      "BOOLEAN",
	"date":         "DATE",
	"datetime":     "DATETIME",
	"double":       "NUMERIC",
	"text":         "VARCHAR",
	"keyword":      "VARCHAR",
	"integer":      "INTEGER",
	"short":        "SMALLINT",
	"long":         "BIGINT",
	"float":        "FLOAT",
	"half_float":   "FLOAT",
	"scaled_float": "FLOAT",
	"geo_point":    "VARCHAR",
	"ip":           "VARCHAR",
}

// sqlTypeName maps a native type to a SQL type name. Unlike the result
// typer this path tolerates unknown types: failing catalog reflection
// entirely is worse than a wrong-but-usable type.
func sqlTypeName(nativeType string) string {
	if name, ok := sqlTypeMap[strings.ToLower(nativeType)]; ok {
		return name
	}
	log.Printf("unknown type found %s reverting to string", nativeType)
	return "VARCHAR"
}
