package es

import (
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Parameterized catalog pseudo-commands, matched after the exact-command
// table and before the send-as-real-SQL fallback.
var (
	showColumnsRe  = regexp.MustCompile(`(?i)^SHOW\s+COLUMNS\s+FROM\s+(\S+)$`)
	validColumnsRe = regexp.MustCompile(`(?i)^SHOW\s+VALID_COLUMNS\s+FROM\s+(\S+)$`)
	arrayColumnsRe = regexp.MustCompile(`(?i)^SHOW\s+ARRAY_COLUMNS\s+FROM\s+(\S+)$`)
)

// Cursor owns one query's lifecycle: submit, buffer, fetch, close. It is
// created by Connection.Cursor and holds the dialect policy it was built
// with. A cursor has three states: before any execute (no results), after a
// successful execute (buffered results), and closed.
type Cursor struct {
	client *client
	policy dialectPolicy

	sqlPath   string
	fetchSize *int
	timeZone  string

	// Arraysize is the default chunk size of Fetchmany. It starts at 1,
	// fetching a single row at a time.
	Arraysize int

	closed      bool
	description []ColumnDescription
	results     []Row // nil until the first successful Execute
}

func newCursor(client *client, policy dialectPolicy, cfg Config) *Cursor {
	cursor := &Cursor{
		client:    client,
		policy:    policy,
		sqlPath:   policy.sqlPath,
		fetchSize: cfg.FetchSize,
		timeZone:  cfg.TimeZone,
		Arraysize: 1,
	}
	if cfg.SQLPath != "" {
		cursor.sqlPath = cfg.SQLPath
	}
	return cursor
}

// Execute binds parameters, dispatches catalog pseudo-commands, and sends
// everything else verbatim to the SQL endpoint. It returns the cursor so
// calls can chain into a fetch. On failure the previous result state is
// cleared: a raised error always means "no results available".
func (c *Cursor) Execute(operation string, parameters map[string]interface{}) (*Cursor, error) {
	if c.closed {
		return nil, closedError("cursor")
	}
	c.description = nil
	c.results = nil

	query, err := applyParameters(operation, parameters)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(strings.Join(strings.Fields(query), " ")) {
	case "show tables":
		return c.showTables()
	case "show valid_tables":
		return c.validListing(false)
	case "show valid_views":
		return c.validListing(true)
	case "select 1":
		return c.selectOne(query)
	}
	trimmed := strings.TrimSpace(query)
	if m := validColumnsRe.FindStringSubmatch(trimmed); m != nil {
		return c.validColumns(trimmed, m[1])
	}
	if m := arrayColumnsRe.FindStringSubmatch(trimmed); m != nil {
		return c.arrayColumns(trimmed, m[1])
	}
	if m := showColumnsRe.FindStringSubmatch(trimmed); m != nil {
		return c.showColumns(m[1])
	}
	return c.runQuery(query)
}

// Executemany is always rejected: the SQL endpoint has no batched-parameter
// execution semantics.
func (c *Cursor) Executemany(operation string, seqOfParameters []map[string]interface{}) error {
	if c.closed {
		return closedError("cursor")
	}
	return wrapError(KindNotSupported, operation, ErrExecuteManyNotSupported,
		ErrExecuteManyNotSupported.Error())
}

// Fetchone pops and returns the first buffered row, or nil when the buffer
// is drained.
func (c *Cursor) Fetchone() (Row, error) {
	if err := c.checkResult(); err != nil {
		return nil, err
	}
	if len(c.results) == 0 {
		return nil, nil
	}
	row := c.results[0]
	c.results = c.results[1:]
	return row, nil
}

// Fetchmany removes and returns up to size rows from the front of the
// buffer; size <= 0 means Arraysize. It returns an empty slice once the
// buffer is exhausted, never an error.
func (c *Cursor) Fetchmany(size int) ([]Row, error) {
	if err := c.checkResult(); err != nil {
		return nil, err
	}
	if size <= 0 {
		size = c.Arraysize
	}
	if size > len(c.results) {
		size = len(c.results)
	}
	out := c.results[:size]
	c.results = c.results[size:]
	return out, nil
}

// Fetchall drains and returns all remaining buffered rows.
func (c *Cursor) Fetchall() ([]Row, error) {
	if err := c.checkResult(); err != nil {
		return nil, err
	}
	out := c.results
	c.results = []Row{}
	return out, nil
}

// Rowcount reports the number of currently buffered rows.
func (c *Cursor) Rowcount() (int, error) {
	if err := c.checkResult(); err != nil {
		return 0, err
	}
	return len(c.results), nil
}

// Description returns the column descriptions of the last successful
// Execute, or nil before one.
func (c *Cursor) Description() []ColumnDescription {
	return c.description
}

// Next advances the cursor one row, following the database/sql iteration
// convention: io.EOF signals exhaustion.
func (c *Cursor) Next() (Row, error) {
	row, err := c.Fetchone()
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, io.EOF
	}
	return row, nil
}

// Close closes the cursor. Closing twice is an error by contract.
func (c *Cursor) Close() error {
	if c.closed {
		return closedError("cursor")
	}
	c.closed = true
	return nil
}

func (c *Cursor) checkResult() error {
	if c.closed {
		return closedError("cursor")
	}
	if c.results == nil {
		return wrapError(KindInterface, "", ErrBeforeExecute, "called before `execute`")
	}
	return nil
}

func (c *Cursor) query(query string) (*queryResponse, error) {
	return c.client.sql(c.sqlPath, c.policy.sanitize(query), c.fetchSize, c.timeZone)
}

// runQuery sends real SQL and types the response.
func (c *Cursor) runQuery(query string) (*Cursor, error) {
	response, err := c.query(query)
	if err != nil {
		return nil, err
	}
	columns := c.policy.columnsOf(response)
	if len(columns) == 0 {
		return nil, newError(KindData, query,
			"missing columns field, maybe it's a mismatched sql endpoint")
	}
	description, err := descriptionFromColumns(columns)
	if err != nil {
		return nil, withSQL(err, query)
	}
	wireRows := c.policy.rowsOf(response)
	results := make([]Row, len(wireRows))
	for i, row := range wireRows {
		results[i] = Row(row)
	}
	c.description = description
	c.results = results
	return c, nil
}

// listTableRows runs the dialect's table listing and returns the raw rows.
func (c *Cursor) listTableRows() ([][]interface{}, error) {
	response, err := c.query(c.policy.listTablesSQL)
	if err != nil {
		return nil, err
	}
	return c.policy.rowsOf(response), nil
}

// showTables lists the catalog. The plain dialect answers SHOW TABLES
// natively; the cluster listing is reshaped to a single name column.
func (c *Cursor) showTables() (*Cursor, error) {
	if c.policy.listPassthrough {
		return c.runQuery(c.policy.listTablesSQL)
	}
	rows, err := c.listTableRows()
	if err != nil {
		return nil, err
	}
	results := []Row{}
	for _, row := range rows {
		if name, ok := stringCell(row, c.policy.tableNameCol); ok {
			results = append(results, Row{name})
		}
	}
	c.description = stringDescription("name")
	c.results = results
	return c, nil
}

// validListing answers SHOW VALID_TABLES / SHOW VALID_VIEWS: the table
// listing cross-referenced against live index stats, excluding indices with
// zero documents. An empty index has no inferable columns and relational
// tools cannot reflect a table without columns.
func (c *Cursor) validListing(views bool) (*Cursor, error) {
	rows, err := c.listTableRows()
	if err != nil {
		return nil, err
	}
	indices, err := c.client.catIndices()
	if err != nil {
		return nil, err
	}
	empty := map[string]bool{}
	for _, index := range indices {
		if count, err := strconv.Atoi(index.DocsCount); err == nil && count == 0 {
			empty[index.Index] = true
		}
	}

	results := []Row{}
	for _, row := range rows {
		name, ok := stringCell(row, c.policy.tableNameCol)
		if !ok || empty[name] {
			continue
		}
		kind, _ := stringCell(row, c.policy.tableKindCol)
		_, isView := c.policy.viewKinds[strings.ToUpper(kind)]
		if views != isView {
			continue
		}
		results = append(results, Row{name})
	}
	c.description = stringDescription("name")
	c.results = results
	return c, nil
}

// showColumns resolves column name/type pairs through the SQL layer.
func (c *Cursor) showColumns(table string) (*Cursor, error) {
	if c.policy.describePassthrough {
		return c.runQuery("SHOW COLUMNS FROM " + table)
	}
	response, err := c.query(c.policy.describeSQL(table))
	if err != nil {
		return nil, err
	}
	results := []Row{}
	for _, row := range c.policy.rowsOf(response) {
		column, ok := stringCell(row, c.policy.descColumnCol)
		if !ok {
			continue
		}
		mapping, _ := stringCell(row, c.policy.descTypeCol)
		results = append(results, Row{column, mapping})
	}
	c.description = stringDescription("column", "mapping")
	c.results = results
	return c, nil
}

// validColumns resolves columns straight from the index mapping, which keeps
// nested and multi-field columns a SQL-level DESCRIBE would hide.
func (c *Cursor) validColumns(sql, table string) (*Cursor, error) {
	mappings, err := c.client.mapping(table)
	if err != nil {
		return nil, withSQL(err, sql)
	}
	index, ok := mappings[table]
	if !ok {
		// Alias lookups answer under the backing index name.
		for _, entry := range mappings {
			index, ok = entry, true
			break
		}
	}
	if !ok {
		return nil, newError(KindProgramming, sql, "table %s not found", table)
	}
	results := []Row{}
	for _, column := range flattenMapping(index.Mappings.Properties, "", c.policy.suppressedSubFields) {
		results = append(results, Row{column.Path, column.Type})
	}
	c.description = stringDescription("column", "mapping")
	c.results = results
	return c, nil
}

// arrayColumns probes one sample document and reports the fields holding
// list values, with a .keyword variant for each. The SQL dialect has no
// array type and silently fans arrays out, so relational consumers need to
// know which columns to exclude.
func (c *Cursor) arrayColumns(sql, table string) (*Cursor, error) {
	source, err := c.client.sampleDocument(table)
	if err != nil {
		return nil, withSQL(err, sql)
	}

	results := []Row{}
	for _, name := range sortedFieldNames(source) {
		value, isList := source[name].([]interface{})
		if !isList {
			continue
		}
		if len(value) > 0 {
			if object, isObject := value[0].(map[string]interface{}); isObject {
				// A list of objects fans out per nested key.
				for _, key := range sortedFieldNames(object) {
					results = append(results,
						Row{name + "." + key},
						Row{name + "." + key + ".keyword"})
				}
				continue
			}
		}
		results = append(results, Row{name}, Row{name + ".keyword"})
	}
	c.description = stringDescription("name")
	c.results = results
	return c, nil
}

// selectOne answers SELECT 1 with a connectivity probe; not every dialect's
// SQL endpoint accepts the bare statement.
func (c *Cursor) selectOne(sql string) (*Cursor, error) {
	if err := c.client.ping(); err != nil {
		return nil, withSQL(err, sql)
	}
	c.description = []ColumnDescription{{Name: "1", Type: TypeNumber, NullOK: true}}
	c.results = []Row{{1}}
	return c, nil
}

func stringCell(row []interface{}, index int) (string, bool) {
	if index < 0 || index >= len(row) {
		return "", false
	}
	value, ok := row[index].(string)
	return value, ok
}

func stringDescription(names ...string) []ColumnDescription {
	description := make([]ColumnDescription, len(names))
	for i, name := range names {
		description[i] = ColumnDescription{Name: name, Type: TypeString, NullOK: true}
	}
	return description
}

func sortedFieldNames(fields map[string]interface{}) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
