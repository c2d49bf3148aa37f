package cli

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/yelp-search/internal/ingest"
	"github.com/jonesrussell/yelp-search/internal/schema"
)

// fakeCluster answers ping, index existence checks, bulk requests and business
// searches.
func fakeCluster(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.URL.Path == "/":
			_, _ = io.WriteString(w, `{"name":"node-1","cluster_name":"yelp","version":{"number":"8.15.0"}}`)
		case r.Method == http.MethodHead:
			w.WriteHeader(http.StatusOK)
		case r.URL.Path == "/_bulk":
			writeBulkResponse(w, r.Body)
		case r.URL.Path == "/yelp-business/_search":
			_, _ = io.WriteString(w, `{"took":1,"hits":{"total":{"value":1},"hits":[
				{"_index":"yelp-business","_id":"b1","_source":
				 {"business_id":"b1","name":"Cafe X","city":"Tucson","state":"AZ","postal_code":"85705","review_count":120}}]}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":{"type":"index_not_found_exception","reason":"no such index"}}`)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// writeBulkResponse acknowledges every action line of an NDJSON body.
func writeBulkResponse(w io.Writer, body io.Reader) {
	scanner := bufio.NewScanner(body)
	var items []string
	for lineNo := 0; scanner.Scan(); lineNo++ {
		if lineNo%2 == 0 {
			items = append(items, `{"index":{"status":201}}`)
		}
	}
	_, _ = fmt.Fprintf(w, `{"took":3,"errors":false,"items":[%s]}`, strings.Join(items, ","))
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "missing.yml")}, args...))

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func useCluster(t *testing.T) {
	t.Helper()

	t.Setenv("ELASTIC_URL", fakeCluster(t).URL)
	t.Setenv("INDEX_PREFIX", "")
	t.Setenv("DB_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "error")
}

func TestQueryZip(t *testing.T) {
	useCluster(t)

	out, err := runCommand(t, "query", "zip", "85705")
	require.NoError(t, err)

	assert.Contains(t, out, "Businesses in 85705")
	assert.Contains(t, out, "Cafe X")
	assert.Contains(t, out, "Tucson")
}

func TestIngestCommand(t *testing.T) {
	useCluster(t)

	dir := t.TempDir()
	body := `{"business_id":"b1","name":"Cafe X"}` + "\n" + `{"business_id":"b2","name":"Deli Y"}` + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ingest.FileName("", schema.Business)), []byte(body), 0o600))

	out, err := runCommand(t, "ingest", "--data-dir", dir, "--entity", "business", "--batch-size", "1")
	require.NoError(t, err)

	assert.Contains(t, out, "yelp-business")
	assert.Contains(t, out, "yelp_academic_dataset_business.json")
	assert.Contains(t, out, "ok")
}

func TestIngestCommand_NoFiles(t *testing.T) {
	useCluster(t)

	_, err := runCommand(t, "ingest", "--data-dir", t.TempDir())
	assert.ErrorIs(t, err, ErrNoDatasetFiles)
}

func TestIngestCommand_UnknownEntity(t *testing.T) {
	useCluster(t)

	_, err := runCommand(t, "ingest", "--entity", "photo")
	assert.ErrorIs(t, err, schema.ErrUnknownEntity)
}

func TestHistoryCommand_Disabled(t *testing.T) {
	t.Setenv("DB_ENABLED", "false")

	_, err := runCommand(t, "history")
	assert.ErrorIs(t, err, ErrHistoryDisabled)
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		n    int
		want string
	}{
		{in: "short", n: 10, want: "short"},
		{in: "exactly ten", n: 11, want: "exactly ten"},
		{in: "this review is long", n: 4, want: "this..."},
		{in: "multi\nline\n\ntext", n: 50, want: "multi line text"},
		{in: "café crème", n: 4, want: "café..."},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, truncate(tt.in, tt.n), tt.in)
	}
}

func TestRenderIngestSummary(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	renderIngestSummary(&out, []*ingest.Stats{
		{Entity: schema.Business, Index: "yelp-business", File: "data/b.json", Indexed: 10, Batches: 1, Duration: time.Second},
		{
			Entity: schema.Review, Index: "yelp-review", File: "data/r.json", Indexed: 7, Failed: 1, Batches: 1,
			Errors: []ingest.DocumentError{{Line: 3, ID: "r3", Type: "mapper_parsing_exception", Reason: "failed to parse field [stars]"}},
		},
		{Entity: schema.Tip, Index: "yelp-tip", File: "data/t.json", Aborted: true, AbortReason: "connection refused"},
	})

	s := out.String()
	assert.Contains(t, s, "partial")
	assert.Contains(t, s, "aborted: connection refused")
	assert.Contains(t, s, "17")
	assert.Contains(t, s, "mapper_parsing_exception")
}

func TestIdentityLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "review_id", identityLabel("review_id", nil))
	assert.Equal(t, "business_id+user_id+date", identityLabel("", []string{"business_id", "user_id", "date"}))
}
