package es

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// fakeCluster fakes the three collaborator endpoints the driver talks to:
// the SQL endpoint, _mapping, _cat/indices, plus the ping and sample-search
// paths.
type fakeCluster struct {
	t *testing.T

	// onQuery answers POSTed SQL; return a status code and a body.
	onQuery func(query string, payload map[string]interface{}) (int, interface{})
	// mappings maps index name to the _mapping response body.
	mappings map[string]interface{}
	// indices is the _cat/indices body.
	indices []map[string]string
	// samples maps index name to the _source of its single sample document.
	samples map[string]map[string]interface{}

	server *httptest.Server
}

func newFakeCluster(t *testing.T) *fakeCluster {
	f := &fakeCluster{t: t}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeCluster) handle(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodHead && r.URL.Path == "/":
		w.WriteHeader(http.StatusOK)

	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/_sql/"):
		var payload map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			f.t.Errorf("bad sql payload: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		query, _ := payload["query"].(string)
		if f.onQuery == nil {
			f.t.Errorf("unexpected sql query %q", query)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		status, body := f.onQuery(query, payload)
		writeJSON(w, status, body)

	case r.Method == http.MethodGet && r.URL.Path == "/_cat/indices":
		writeJSON(w, http.StatusOK, f.indices)

	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/_mapping"):
		index := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/"), "/_mapping")
		body, ok := f.mappings[index]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]interface{}{
				"error": map[string]interface{}{
					"type":   "index_not_found_exception",
					"reason": "no such index [" + index + "]",
				},
			})
			return
		}
		writeJSON(w, http.StatusOK, body)

	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/_search"):
		index := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/"), "/_search")
		source, ok := f.samples[index]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]interface{}{
				"error": map[string]interface{}{
					"type":   "index_not_found_exception",
					"reason": "no such index [" + index + "]",
				},
			})
			return
		}
		hits := []interface{}{}
		total := 0
		if source != nil {
			hits = append(hits, map[string]interface{}{"_source": source})
			total = 1
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"hits": map[string]interface{}{
				"total": map[string]interface{}{"value": total},
				"hits":  hits,
			},
		})

	default:
		f.t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	}
}

// connect opens a connection against the fake cluster.
func (f *fakeCluster) connect(t *testing.T, dialect Dialect, v2 bool) *Connection {
	cfg, err := ParseDSN(f.server.URL, dialect)
	if err != nil {
		t.Fatalf("parsing fake cluster url: %v", err)
	}
	cfg.V2 = v2
	conn, err := Connect(cfg)
	if err != nil {
		t.Fatalf("connecting to fake cluster: %v", err)
	}
	return conn
}

// cursor opens a cursor against the fake cluster with the plain dialect.
func (f *fakeCluster) cursor(t *testing.T) *Cursor {
	conn := f.connect(t, DialectElasticsearch, false)
	cursor, err := conn.Cursor()
	if err != nil {
		t.Fatalf("opening cursor: %v", err)
	}
	return cursor
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// carrierResponse is a plain-dialect SQL response with one text column and
// n single-cell rows.
func carrierResponse(n int) map[string]interface{} {
	rows := make([][]interface{}, n)
	for i := range rows {
		rows[i] = []interface{}{"JetBeats"}
	}
	return map[string]interface{}{
		"columns": []map[string]string{{"name": "Carrier", "type": "text"}},
		"rows":    rows,
	}
}
