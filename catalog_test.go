package es

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// catalogCluster wires a plain-dialect fake cluster with a flights index,
// an internal dot-index and an empty index.
func catalogCluster(t *testing.T) *fakeCluster {
	f := newFakeCluster(t)
	f.onQuery = func(query string, payload map[string]interface{}) (int, interface{}) {
		switch query {
		case "SHOW TABLES":
			return http.StatusOK, tableListing("flights", "empty", ".kibana")
		case "SHOW COLUMNS FROM flights":
			return http.StatusOK, map[string]interface{}{
				"columns": []map[string]string{
					{"name": "column", "type": "keyword"},
					{"name": "mapping", "type": "keyword"},
				},
				"rows": [][]interface{}{
					{"AvgTicketPrice", "float"},
					{"Carrier", "text"},
					{"DestLocation", "object"},
					{"FlightDelay", "boolean"},
					{"tags", "text"},
					{"timestamp", "date"},
				},
			}
		}
		t.Errorf("unexpected query %q", query)
		return http.StatusBadRequest, nil
	}
	f.indices = []map[string]string{
		{"index": "flights", "docs.count": "31"},
		{"index": "empty", "docs.count": "0"},
		{"index": ".kibana", "docs.count": "5"},
	}
	f.samples = map[string]map[string]interface{}{
		"flights": {"tags": []interface{}{"a", "b"}},
	}
	return f
}

func TestCatalogTableNames(t *testing.T) {
	f := catalogCluster(t)
	catalog := NewCatalog(f.connect(t, DialectElasticsearch, false))

	tables, err := catalog.TableNames()
	require.Nil(t, err)
	// Empty indices and internal dot-indices are not reflectable.
	assert.Equal(t, []string{"flights"}, tables)
}

func TestCatalogHasTable(t *testing.T) {
	f := catalogCluster(t)
	catalog := NewCatalog(f.connect(t, DialectElasticsearch, false))

	ok, err := catalog.HasTable("flights")
	require.Nil(t, err)
	assert.True(t, ok)
	ok, err = catalog.HasTable("empty")
	require.Nil(t, err)
	assert.False(t, ok)
}

func TestCatalogColumns(t *testing.T) {
	f := catalogCluster(t)
	catalog := NewCatalog(f.connect(t, DialectElasticsearch, false))

	columns, err := catalog.Columns("flights")
	require.Nil(t, err)
	// The object container and the array-backed tags field are hidden.
	assert.Equal(t, []CatalogColumn{
		{Name: "AvgTicketPrice", Type: "FLOAT", Nullable: true},
		{Name: "Carrier", Type: "VARCHAR", Nullable: true},
		{Name: "FlightDelay", Type: "BOOLEAN", Nullable: true},
		{Name: "timestamp", Type: "DATE", Nullable: true},
	}, columns)
}

func TestCatalogKeysAlwaysEmpty(t *testing.T) {
	f := catalogCluster(t)
	catalog := NewCatalog(f.connect(t, DialectElasticsearch, false))

	pk, err := catalog.PrimaryKey("flights")
	require.Nil(t, err)
	assert.Empty(t, pk)
	fk, err := catalog.ForeignKeys("flights")
	require.Nil(t, err)
	assert.Empty(t, fk)
	indexes, err := catalog.Indexes("flights")
	require.Nil(t, err)
	assert.Empty(t, indexes)
}

func TestSQLTypeName(t *testing.T) {
	assert.Equal(t, "VARCHAR", sqlTypeName("text"))
	assert.Equal(t, "VARCHAR", sqlTypeName("KEYWORD"))
	assert.Equal(t, "BIGINT", sqlTypeName("long"))
	assert.Equal(t, "VARBINARY", sqlTypeName("bytes"))
	// The one tolerated-imprecision path: unknown types degrade to string.
	assert.Equal(t, "VARCHAR", sqlTypeName("dense_vector"))
}
