package es

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// RequestSigner decorates outgoing requests with authentication material.
// Cloud-signed schemes (e.g. AWS SigV4) plug in here; the driver itself only
// knows basic auth.
type RequestSigner interface {
	Sign(req *http.Request) error
}

// client is the thin HTTP collaborator the cursor talks to. It knows the
// cluster endpoints but nothing about cursor state.
type client struct {
	baseURL    *url.URL
	httpClient *http.Client
	user       string
	password   string
	signer     RequestSigner
}

// queryPayload is the body of a SQL POST.
type queryPayload struct {
	Query     string `json:"query"`
	FetchSize *int   `json:"fetch_size,omitempty"`
	TimeZone  string `json:"time_zone,omitempty"`
}

// queryResponse covers both response dialects: plain SQL answers with
// columns/rows, the cluster SQL plugin with schema/datarows. Cluster errors
// arrive with HTTP 200 and a populated error object.
type queryResponse struct {
	Columns  []columnInfo    `json:"columns"`
	Schema   []columnInfo    `json:"schema"`
	Rows     [][]interface{} `json:"rows"`
	Datarows [][]interface{} `json:"datarows"`
	Error    *responseError  `json:"error"`
	Status   int             `json:"status"`
}

type responseError struct {
	Type    string `json:"type"`
	Reason  string `json:"reason"`
	Details string `json:"details"`
}

// catIndexInfo is one entry of GET _cat/indices. The document count comes
// back as a string.
type catIndexInfo struct {
	Index     string `json:"index"`
	DocsCount string `json:"docs.count"`
}

// searchResponse is the subset of a search reply needed to probe one sample
// document for array-typed fields.
type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source map[string]interface{} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (c *client) do(method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return newError(KindData, "", "encoding request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}

	endpoint := joinPath(c.baseURL.String(), path)
	req, err := http.NewRequest(method, endpoint, reader)
	if err != nil {
		return newError(KindProgramming, "", "building request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.user != "" && c.password != "" {
		req.SetBasicAuth(c.user, c.password)
	}
	if c.signer != nil {
		if err := c.signer.Sign(req); err != nil {
			return newError(KindOperational, "", "signing request: %v", err)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return wrapError(KindOperational, "", err,
			fmt.Sprintf("error connecting to %s: %v", c.baseURL, err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return wrapError(KindOperational, "", err, "reading response body")
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return newError(KindProgramming, "", "error (%s): %s",
			resp.Status, errorReason(raw))
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return newError(KindData, "", "decoding response: %v", err)
	}
	return nil
}

// sql posts a query to the given SQL endpoint path and validates the reply.
func (c *client) sql(sqlPath, query string, fetchSize *int, timeZone string) (*queryResponse, error) {
	payload := queryPayload{Query: query, FetchSize: fetchSize, TimeZone: timeZone}
	var response queryResponse
	err := c.do(http.MethodPost, "/"+sqlPath+"/", payload, &response)
	if err != nil {
		return nil, withSQL(err, query)
	}
	// Cluster SQL reports failures with HTTP 200 and an error object.
	if response.Error != nil {
		return nil, newError(KindProgramming, query, "(%s): %s",
			response.Error.Reason, response.Error.Details)
	}
	return &response, nil
}

// mapping fetches the field-mapping tree for one index.
func (c *client) mapping(index string) (map[string]indexMapping, error) {
	var response map[string]indexMapping
	if err := c.do(http.MethodGet, "/"+index+"/_mapping", nil, &response); err != nil {
		return nil, err
	}
	return response, nil
}

// catIndices fetches per-index stats, used to spot empty indices.
func (c *client) catIndices() ([]catIndexInfo, error) {
	var response []catIndexInfo
	if err := c.do(http.MethodGet, "/_cat/indices?format=json", nil, &response); err != nil {
		return nil, err
	}
	return response, nil
}

// sampleDocument returns the _source of one arbitrary document from the
// index, or nil when the index is empty.
func (c *client) sampleDocument(index string) (map[string]interface{}, error) {
	var response searchResponse
	if err := c.do(http.MethodGet, "/"+index+"/_search?size=1", nil, &response); err != nil {
		return nil, err
	}
	if response.Hits.Total.Value == 0 || len(response.Hits.Hits) == 0 {
		return nil, nil
	}
	return response.Hits.Hits[0].Source, nil
}

// ping probes cluster reachability.
func (c *client) ping() error {
	return c.do(http.MethodHead, "/", nil, nil)
}

func joinPath(prefix, path string) string {
	prefix = strings.TrimSuffix(prefix, "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return prefix + path
}

// errorReason digs the human-readable reason out of an error body, falling
// back to the raw text.
func errorReason(raw []byte) string {
	var body struct {
		Error *responseError `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != nil {
		if body.Error.Details != "" {
			return fmt.Sprintf("(%s): %s", body.Error.Reason, body.Error.Details)
		}
		return body.Error.Reason
	}
	return strings.TrimSpace(string(raw))
}

// withSQL attaches the offending statement to an error that was raised below
// the SQL layer.
func withSQL(err error, sql string) error {
	if e, ok := err.(*Error); ok && e.SQL == "" {
		e.SQL = sql
	}
	return err
}
