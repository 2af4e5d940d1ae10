// Package es is a DB-API style client for the SQL endpoints of
// Elasticsearch and OpenSearch/Open Distro clusters. It emulates
// synchronous relational cursors over the stateless HTTP SQL call and
// reconstructs a relational catalog from index mappings, so query builders
// and BI tools can reflect "tables" and "columns" that do not natively
// exist in the store.
package es

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Config carries everything needed to reach a cluster. The zero value plus
// a Host is a working configuration for a local unsecured cluster.
type Config struct {
	Host   string
	Port   int
	Path   string // path prefix, for clusters behind a reverse proxy
	Scheme string // http or https

	User     string
	Password string
	// Signer, when set, decorates every request; used for cloud-signed
	// auth schemes the driver itself does not implement.
	Signer RequestSigner

	Dialect Dialect
	// V2 selects the second-generation cluster SQL engine.
	V2 bool
	// SQLPath overrides the dialect's default SQL endpoint path.
	SQLPath string

	// FetchSize, when set, is passed through on every query payload.
	FetchSize *int
	// TimeZone, when set, is passed through on every query payload.
	TimeZone string

	// HTTPClient overrides the transport; Timeout applies when it is nil.
	HTTPClient *http.Client
	Timeout    time.Duration
}

func (cfg Config) withDefaults() Config {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 9200
	}
	if cfg.Scheme == "" {
		cfg.Scheme = "http"
	}
	if cfg.Dialect == "" {
		cfg.Dialect = DialectElasticsearch
	}
	return cfg
}

// Connection is a handle on one cluster. It is a factory for cursors and
// owns them only to cascade Close.
type Connection struct {
	cfg     Config
	url     *url.URL
	client  *client
	policy  dialectPolicy
	cursors []*Cursor
	closed  bool
}

// Connect opens a connection to the cluster described by cfg.
//
//	conn, err := es.Connect(es.Config{Host: "localhost", Port: 9200})
//	curs, err := conn.Cursor()
func Connect(cfg Config) (*Connection, error) {
	cfg = cfg.withDefaults()
	policy, err := policyFor(cfg.Dialect, cfg.V2)
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(fmt.Sprintf("%s://%s:%d%s", cfg.Scheme, cfg.Host, cfg.Port, cfg.Path))
	if err != nil {
		return nil, newError(KindProgramming, "", "invalid endpoint: %v", err)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Connection{
		cfg:    cfg,
		url:    base,
		policy: policy,
		client: &client{
			baseURL:    base,
			httpClient: httpClient,
			user:       cfg.User,
			password:   cfg.Password,
			signer:     cfg.Signer,
		},
	}, nil
}

// URL reports the cluster endpoint this connection talks to.
func (c *Connection) URL() string { return c.url.String() }

// Cursor returns a new cursor bound to this connection.
func (c *Connection) Cursor() (*Cursor, error) {
	if c.closed {
		return nil, closedError("connection")
	}
	cursor := newCursor(c.client, c.policy, c.cfg)
	c.cursors = append(c.cursors, cursor)
	return cursor, nil
}

// Execute spawns a cursor and executes the operation on it.
func (c *Connection) Execute(operation string, parameters map[string]interface{}) (*Cursor, error) {
	cursor, err := c.Cursor()
	if err != nil {
		return nil, err
	}
	return cursor.Execute(operation, parameters)
}

// Commit exists for relational-contract compatibility; the store has no
// transactions, so it only verifies the connection is open.
func (c *Connection) Commit() error {
	if c.closed {
		return closedError("connection")
	}
	return nil
}

// Close closes the connection and every cursor it produced. Closing twice
// is an error by contract.
func (c *Connection) Close() error {
	if c.closed {
		return closedError("connection")
	}
	c.closed = true
	for _, cursor := range c.cursors {
		if err := cursor.Close(); err != nil && !errors.Is(err, ErrAlreadyClosed) {
			return err
		}
	}
	return nil
}
