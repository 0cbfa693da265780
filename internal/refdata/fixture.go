package refdata

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nhle/planbatch/internal/apperr"
)

// FixtureReader serves ranges from a YAML file keyed by tab name, e.g.
//
//	Users:
//	  - [U1, Ana Lopez]
//	PropertyMapping:
//	  - [P1, U1, Coastal]
//
// Rows start below the header, like the A2 ranges read from Sheets.
type FixtureReader struct {
	tabs map[string][][]string
}

// NewFixtureReader parses the fixture at path.
func NewFixtureReader(path string) (*FixtureReader, error) {
	if path == "" {
		return nil, &apperr.ConfigError{Component: "source", Fields: []string{"source.fixture_path"}}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture %s: %w", path, err)
	}
	return ParseFixture(data)
}

// ParseFixture parses fixture YAML.
func ParseFixture(data []byte) (*FixtureReader, error) {
	tabs := map[string][][]string{}
	if err := yaml.Unmarshal(data, &tabs); err != nil {
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}
	return &FixtureReader{tabs: tabs}, nil
}

// ReadRange returns the rows of the tab rangeName refers to. Column bounds
// in the range are ignored. A tab absent from the fixture reads as empty.
func (r *FixtureReader) ReadRange(ctx context.Context, rangeName string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows := r.tabs[tabName(rangeName)]
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = append([]string(nil), row...)
	}
	return out, nil
}

// tabName returns the sheet part of an A1 range: "Users!A2:B" -> "Users".
func tabName(rangeName string) string {
	tab, _, _ := strings.Cut(rangeName, "!")
	return strings.Trim(tab, "'")
}
