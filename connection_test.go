package es

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectDefaults(t *testing.T) {
	conn, err := Connect(Config{})
	require.Nil(t, err)
	assert.Equal(t, "http://localhost:9200", conn.URL())
}

func TestConnectUnknownDialect(t *testing.T) {
	_, err := Connect(Config{Dialect: "pinot"})
	require.NotNil(t, err)
	assert.True(t, IsKind(err, KindProgramming))
}

func TestConnectionExecute(t *testing.T) {
	f := newFakeCluster(t)
	f.onQuery = func(string, map[string]interface{}) (int, interface{}) {
		return http.StatusOK, carrierResponse(31)
	}
	conn := f.connect(t, DialectElasticsearch, false)

	cursor, err := conn.Execute("select Carrier from flights", nil)
	require.Nil(t, err)
	rows, err := cursor.Fetchall()
	require.Nil(t, err)
	assert.Len(t, rows, 31)
}

func TestConnectionCloseCascades(t *testing.T) {
	f := newFakeCluster(t)
	conn := f.connect(t, DialectElasticsearch, false)
	first, err := conn.Cursor()
	require.Nil(t, err)
	second, err := conn.Cursor()
	require.Nil(t, err)
	// A cursor the caller closed early must not fail the cascade.
	require.Nil(t, second.Close())

	require.Nil(t, conn.Close())
	_, err = first.Fetchone()
	assert.True(t, errors.Is(err, ErrAlreadyClosed))

	_, err = conn.Cursor()
	assert.True(t, errors.Is(err, ErrAlreadyClosed))
	err = conn.Close()
	assert.True(t, errors.Is(err, ErrAlreadyClosed))
}

func TestConnectionCommit(t *testing.T) {
	f := newFakeCluster(t)
	conn := f.connect(t, DialectElasticsearch, false)
	assert.Nil(t, conn.Commit())

	require.Nil(t, conn.Close())
	assert.True(t, errors.Is(conn.Commit(), ErrAlreadyClosed))
}

func TestBasicAuthHeader(t *testing.T) {
	f := newFakeCluster(t)
	var gotUser, gotPassword string
	var gotAuth bool
	f.onQuery = func(string, map[string]interface{}) (int, interface{}) {
		return http.StatusOK, carrierResponse(1)
	}
	wrapped := f.server.Config.Handler
	f.server.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPassword, gotAuth = r.BasicAuth()
		wrapped.ServeHTTP(w, r)
	})

	cfg, err := ParseDSN(f.server.URL, DialectElasticsearch)
	require.Nil(t, err)
	cfg.User = "admin"
	cfg.Password = "secret"
	conn, err := Connect(cfg)
	require.Nil(t, err)
	_, err = conn.Execute("select Carrier from flights", nil)
	require.Nil(t, err)

	assert.True(t, gotAuth)
	assert.Equal(t, "admin", gotUser)
	assert.Equal(t, "secret", gotPassword)
}

type headerSigner struct{ header, value string }

func (s headerSigner) Sign(req *http.Request) error {
	req.Header.Set(s.header, s.value)
	return nil
}

func TestRequestSigner(t *testing.T) {
	f := newFakeCluster(t)
	var gotSignature string
	f.onQuery = func(string, map[string]interface{}) (int, interface{}) {
		return http.StatusOK, carrierResponse(1)
	}
	wrapped := f.server.Config.Handler
	f.server.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get("X-Signature")
		wrapped.ServeHTTP(w, r)
	})

	cfg, err := ParseDSN(f.server.URL, DialectElasticsearch)
	require.Nil(t, err)
	cfg.Signer = headerSigner{header: "X-Signature", value: "signed"}
	conn, err := Connect(cfg)
	require.Nil(t, err)
	_, err = conn.Execute("select Carrier from flights", nil)
	require.Nil(t, err)

	assert.Equal(t, "signed", gotSignature)
}
