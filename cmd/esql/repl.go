package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/olekukonko/tablewriter"

	es "github.com/preset-io/elasticsearch-dbapi"
)

func runRepl(conn *es.Connection) error {
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "esql> ",
		HistoryFile:     filepath.Join(os.TempDir(), "esql_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer l.Close()

	catalog := es.NewCatalog(conn)
	fmt.Printf("Connected to %s.\n", conn.URL())

repl:
	for {
		line, err := l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				break
			}
			continue repl
		} else if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Println("Error while reading line:", err)
			continue repl
		}

		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			continue repl
		case trimmed == "quit" || trimmed == "exit" || trimmed == `\q`:
			break repl
		case trimmed == `\dt`:
			if err := printRelations(os.Stdout, catalog); err != nil {
				fmt.Println("Error listing relations:", err)
			}
			continue repl
		case strings.HasPrefix(trimmed, `\d`):
			name := strings.TrimSpace(trimmed[len(`\d`):])
			if err := printColumns(os.Stdout, catalog, name); err != nil {
				fmt.Println("Error describing table:", err)
			}
			continue repl
		}

		cursor, err := conn.Execute(trimmed, nil)
		if err != nil {
			fmt.Println("Error while executing:", err)
			continue repl
		}
		rows, err := cursor.Fetchall()
		if err != nil {
			fmt.Println("Error while fetching:", err)
			continue repl
		}
		renderResults(os.Stdout, cursor.Description(), rows)
	}
	return nil
}

func printRelations(w io.Writer, catalog *es.Catalog) error {
	tables, err := catalog.TableNames()
	if err != nil {
		return err
	}
	views, err := catalog.ViewNames()
	if err != nil {
		return err
	}
	if len(tables)+len(views) == 0 {
		fmt.Fprintln(w, "Did not find any relations.")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Name", "Type"})
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)
	for _, name := range tables {
		table.Append([]string{name, "table"})
	}
	for _, name := range views {
		table.Append([]string{name, "view"})
	}
	table.Render()
	return nil
}

func printColumns(w io.Writer, catalog *es.Catalog, name string) error {
	columns, err := catalog.Columns(name)
	if err != nil {
		return err
	}
	if len(columns) == 0 {
		fmt.Fprintf(w, "Did not find any relation named %q.\n", name)
		return nil
	}

	fmt.Fprintf(w, "Table %q\n", name)
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Column", "Type", "Nullable"})
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)
	for _, column := range columns {
		nullable := ""
		if !column.Nullable {
			nullable = "not null"
		}
		table.Append([]string{column.Name, column.Type, nullable})
	}
	table.Render()
	return nil
}

func renderResults(w io.Writer, description []es.ColumnDescription, rows []es.Row) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "(no results)")
		return
	}

	table := tablewriter.NewWriter(w)
	header := make([]string, len(description))
	for i, column := range description {
		header[i] = column.Name
	}
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)

	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = formatCell(cell)
		}
		table.Append(cells)
	}
	table.Render()

	if len(rows) == 1 {
		fmt.Fprintln(w, "(1 result)")
	} else {
		fmt.Fprintf(w, "(%d results)\n", len(rows))
	}
}

func formatCell(cell interface{}) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "t"
		}
		return "f"
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
