package refdata

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/planbatch/internal/apperr"
)

// sheetsServer mimics the values.get endpoint. Ranges not listed in
// values answer 400 like the real API does for an unknown tab.
func sheetsServer(t *testing.T, values map[string][][]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":{"code":403,"message":"API key not valid"}}`))
			return
		}
		prefix := "/v4/spreadsheets/sheet-1/values/"
		if !strings.HasPrefix(r.URL.Path, prefix) {
			http.NotFound(w, r)
			return
		}
		rangeName := strings.TrimPrefix(r.URL.Path, prefix)
		rows, ok := values[rangeName]
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":400,"message":"Unable to parse range"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"range":          rangeName,
			"majorDimension": "ROWS",
			"values":         rows,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSheetsReaderReadsRanges(t *testing.T) {
	srv := sheetsServer(t, map[string][][]any{
		"Users!A2:B":           {{"U1", "Ana"}, {"U2"}},
		"Properties!A2:B":      {{1042, "Grand Plaza"}},
		"Subjects!A2:A":        {{"Call"}},
		"Portfolios!A2:A":      {},
		"PropertyMapping!A2:C": {{"1042", "U1", "Coastal"}},
	})

	reader, err := NewSheetsReader(context.Background(), "sheet-1", "test-key", srv.URL)
	require.NoError(t, err)

	rows, err := reader.ReadRange(context.Background(), "Users!A2:B")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"U1", "Ana"}, {"U2"}}, rows)

	ref, err := NewGateway(reader, testRanges, 0).Load(context.Background())
	require.NoError(t, err)
	p, ok := ref.Property("1042")
	require.True(t, ok)
	assert.Equal(t, "Grand Plaza", p.Name)
}

func TestSheetsReaderMapsAPIErrors(t *testing.T) {
	srv := sheetsServer(t, map[string][][]any{})

	reader, err := NewSheetsReader(context.Background(), "sheet-1", "test-key", srv.URL)
	require.NoError(t, err)

	_, err = reader.ReadRange(context.Background(), "Nope!A2:B")
	var terr *apperr.TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, http.StatusBadRequest, terr.StatusCode)

	bad, err := NewSheetsReader(context.Background(), "sheet-1", "wrong-key", srv.URL)
	require.NoError(t, err)
	_, err = bad.ReadRange(context.Background(), "Users!A2:B")
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, http.StatusForbidden, terr.StatusCode)
}

func TestNewSheetsReaderRequiresConfig(t *testing.T) {
	_, err := NewSheetsReader(context.Background(), "", "", "")

	var cerr *apperr.ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, []string{"source.spreadsheet_id", "source.api_key"}, cerr.Fields)
}
