package refdata

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/nhle/planbatch/internal/apperr"
)

// SheetsReader reads ranges from one spreadsheet through the Sheets API
// using an API key.
type SheetsReader struct {
	svc           *sheets.Service
	spreadsheetID string
}

// NewSheetsReader builds a reader for spreadsheetID. endpoint overrides
// the API base URL when non-empty.
func NewSheetsReader(ctx context.Context, spreadsheetID, apiKey, endpoint string) (*SheetsReader, error) {
	var missing []string
	if spreadsheetID == "" {
		missing = append(missing, "source.spreadsheet_id")
	}
	if apiKey == "" {
		missing = append(missing, "source.api_key")
	}
	if len(missing) > 0 {
		return nil, &apperr.ConfigError{Component: "source", Fields: missing}
	}

	opts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if endpoint != "" {
		if !strings.HasSuffix(endpoint, "/") {
			endpoint += "/"
		}
		opts = append(opts, option.WithEndpoint(endpoint))
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}
	return &SheetsReader{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// ReadRange fetches rangeName as rows of display strings.
func (r *SheetsReader) ReadRange(ctx context.Context, rangeName string) ([][]string, error) {
	resp, err := r.svc.Spreadsheets.Values.Get(r.spreadsheetID, rangeName).Context(ctx).Do()
	if err != nil {
		terr := &apperr.TransportError{Op: "reading range " + rangeName, Err: err}
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			terr.StatusCode = gerr.Code
		}
		return nil, terr
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = fmt.Sprint(c)
		}
		rows = append(rows, cells)
	}
	return rows, nil
}
