package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	es "github.com/preset-io/elasticsearch-dbapi"
)

// fileConfig mirrors the connection flags for the optional yaml config file.
type fileConfig struct {
	Host      string        `yaml:"host"`
	Port      int           `yaml:"port"`
	Scheme    string        `yaml:"scheme"`
	Path      string        `yaml:"path"`
	User      string        `yaml:"user"`
	Password  string        `yaml:"password"`
	Dialect   string        `yaml:"dialect"`
	V2        bool          `yaml:"v2"`
	SQLPath   string        `yaml:"sql_path"`
	FetchSize *int          `yaml:"fetch_size"`
	TimeZone  string        `yaml:"time_zone"`
	Timeout   time.Duration `yaml:"timeout"`
}

type flags struct {
	configPath string
	host       string
	port       int
	scheme     string
	path       string
	user       string
	password   string
	dialect    string
	v2         bool
	sqlPath    string
	fetchSize  int
	timeZone   string
	timeout    time.Duration
}

func main() {
	f := &flags{}

	rootCmd := &cobra.Command{
		Use:   "esql",
		Short: "SQL shell for Elasticsearch and OpenSearch clusters",
		Long: `esql talks to the SQL endpoint of an Elasticsearch or
OpenSearch/Open Distro cluster and exposes it like a relational database,
including the catalog pseudo-commands (SHOW TABLES, SHOW VALID_COLUMNS FROM
t, ...) the driver implements on top of it.`,
		SilenceUsage: true,
	}
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "", "yaml config file")
	pf.StringVar(&f.host, "host", "localhost", "cluster host")
	pf.IntVar(&f.port, "port", 9200, "cluster port")
	pf.StringVar(&f.scheme, "scheme", "http", "http or https")
	pf.StringVar(&f.path, "path", "", "path prefix")
	pf.StringVar(&f.user, "user", "", "basic auth user")
	pf.StringVar(&f.password, "password", "", "basic auth password")
	pf.StringVar(&f.dialect, "dialect", string(es.DialectElasticsearch),
		"elasticsearch or odelasticsearch")
	pf.BoolVar(&f.v2, "v2", false, "use the v2 cluster SQL engine")
	pf.StringVar(&f.sqlPath, "sql-path", "", "override the SQL endpoint path")
	pf.IntVar(&f.fetchSize, "fetch-size", 0, "fetch_size hint for the SQL endpoint")
	pf.StringVar(&f.timeZone, "time-zone", "", "time_zone hint for the SQL endpoint")
	pf.DurationVar(&f.timeout, "timeout", 30*time.Second, "request timeout")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "repl",
		Short: "Interactive SQL shell",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := connect(cmd, f)
			if err != nil {
				return err
			}
			defer conn.Close()
			return runRepl(conn)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "query <sql>",
		Short: "Run one statement and print the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := connect(cmd, f)
			if err != nil {
				return err
			}
			defer conn.Close()
			cursor, err := conn.Execute(strings.Join(args, " "), nil)
			if err != nil {
				return err
			}
			rows, err := cursor.Fetchall()
			if err != nil {
				return err
			}
			renderResults(cmd.OutOrStdout(), cursor.Description(), rows)
			return nil
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "tables",
		Short: "List reflectable tables and views",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := connect(cmd, f)
			if err != nil {
				return err
			}
			defer conn.Close()
			return printRelations(cmd.OutOrStdout(), es.NewCatalog(conn))
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// connect builds a Config from the config file (when given) overridden by
// any flag set on the command line.
func connect(cmd *cobra.Command, f *flags) (*es.Connection, error) {
	cfg := es.Config{}
	if f.configPath != "" {
		raw, err := os.ReadFile(f.configPath)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		var fc fileConfig
		if err := yaml.Unmarshal(raw, &fc); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
		cfg = es.Config{
			Host:      fc.Host,
			Port:      fc.Port,
			Scheme:    fc.Scheme,
			Path:      fc.Path,
			User:      fc.User,
			Password:  fc.Password,
			Dialect:   es.Dialect(fc.Dialect),
			V2:        fc.V2,
			SQLPath:   fc.SQLPath,
			FetchSize: fc.FetchSize,
			TimeZone:  fc.TimeZone,
			Timeout:   fc.Timeout,
		}
	}

	set := cmd.Flags().Changed
	if cfg.Host == "" || set("host") {
		cfg.Host = f.host
	}
	if cfg.Port == 0 || set("port") {
		cfg.Port = f.port
	}
	if cfg.Scheme == "" || set("scheme") {
		cfg.Scheme = f.scheme
	}
	if cfg.Path == "" || set("path") {
		cfg.Path = f.path
	}
	if cfg.User == "" || set("user") {
		cfg.User = f.user
	}
	if cfg.Password == "" || set("password") {
		cfg.Password = f.password
	}
	if cfg.Dialect == "" || set("dialect") {
		cfg.Dialect = es.Dialect(f.dialect)
	}
	if set("v2") {
		cfg.V2 = f.v2
	}
	if cfg.SQLPath == "" || set("sql-path") {
		cfg.SQLPath = f.sqlPath
	}
	if set("fetch-size") {
		cfg.FetchSize = &f.fetchSize
	}
	if cfg.TimeZone == "" || set("time-zone") {
		cfg.TimeZone = f.timeZone
	}
	if cfg.Timeout == 0 || set("timeout") {
		cfg.Timeout = f.timeout
	}
	return es.Connect(cfg)
}
