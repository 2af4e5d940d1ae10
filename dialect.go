package es

import "strings"

// Dialect selects a backend flavor. The names double as database/sql driver
// names.
type Dialect string

const (
	// DialectElasticsearch is the plain X-Pack SQL endpoint.
	DialectElasticsearch Dialect = "elasticsearch"
	// DialectOpenDistro is the cluster SQL plugin (Open Distro / OpenSearch).
	// The V2 config flag selects the second-generation engine.
	DialectOpenDistro Dialect = "odelasticsearch"
)

// defaultSchema is the dummy schema name relational tools qualify tables
// with; the cluster has no schema concept so it is stripped before sending.
const defaultSchema = "default"

// dialectPolicy bundles everything that differs between backend flavors:
// endpoint path, query sanitization, response shape, and the column layout
// of the catalog listings. A cursor holds one policy value, chosen at
// connect time.
type dialectPolicy struct {
	name    Dialect
	sqlPath string
	v2      bool

	sanitize  func(string) string
	columnsOf func(*queryResponse) []columnInfo
	rowsOf    func(*queryResponse) [][]interface{}

	// Catalog listing layout. listPassthrough means the endpoint answers
	// SHOW TABLES natively and the wire statement is sent verbatim.
	listTablesSQL   string
	listPassthrough bool
	tableNameCol    int
	tableKindCol    int // -1 when the listing has no kind column
	viewKinds       map[string]struct{}

	// SQL-level column listing (the non-VALID SHOW COLUMNS path).
	describeSQL         func(table string) string
	describePassthrough bool
	descColumnCol       int
	descTypeCol         int

	// Multi-field suffixes the catalog engine of this flavor cannot query.
	suppressedSubFields map[string]struct{}
}

// policyFor returns the policy for a dialect. v2 only applies to the
// cluster dialect.
func policyFor(dialect Dialect, v2 bool) (dialectPolicy, error) {
	switch dialect {
	case DialectElasticsearch:
		return dialectPolicy{
			name:                DialectElasticsearch,
			sqlPath:             "_sql",
			sanitize:            sanitizePlain,
			columnsOf:           func(r *queryResponse) []columnInfo { return r.Columns },
			rowsOf:              func(r *queryResponse) [][]interface{} { return r.Rows },
			listTablesSQL:       "SHOW TABLES",
			listPassthrough:     true,
			tableNameCol:        0,
			tableKindCol:        -1,
			describePassthrough: true,
		}, nil
	case DialectOpenDistro:
		policy := dialectPolicy{
			name:          DialectOpenDistro,
			sqlPath:       "_opendistro/_sql",
			v2:            v2,
			sanitize:      sanitizeCluster,
			columnsOf:     func(r *queryResponse) []columnInfo { return r.Schema },
			rowsOf:        func(r *queryResponse) [][]interface{} { return r.Datarows },
			listTablesSQL: "SHOW TABLES LIKE %",
			tableNameCol:  2,
			tableKindCol:  1,
			viewKinds:     map[string]struct{}{"VIEW": {}, "ALIAS": {}},
			describeSQL: func(table string) string {
				return "DESCRIBE TABLES LIKE " + table
			},
			descColumnCol: 3,
			descTypeCol:   5,
		}
		if v2 {
			policy.sqlPath = "_plugins/_sql"
			policy.tableNameCol = 1
			policy.tableKindCol = 2
			// The v2 catalog engine cannot address keyword sub-fields.
			policy.suppressedSubFields = map[string]struct{}{"keyword": {}}
		}
		return policy, nil
	}
	return dialectPolicy{}, newError(KindProgramming, "", "unknown dialect %q", dialect)
}

// sanitizePlain strips the dummy schema qualifier relational tools emit.
func sanitizePlain(query string) string {
	return strings.ReplaceAll(query, `FROM "`+defaultSchema+`".`, "FROM ")
}

// sanitizeCluster additionally flattens whitespace and removes double
// quotes, which the cluster SQL parser rejects.
func sanitizeCluster(query string) string {
	query = strings.ReplaceAll(query, `"`, "")
	query = strings.ReplaceAll(query, "  ", " ")
	query = strings.ReplaceAll(query, "\n", " ")
	return strings.ReplaceAll(query, "FROM "+defaultSchema+".", "FROM ")
}
