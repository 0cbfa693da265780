// Package refdata loads the reference data snapshot (users, properties,
// subjects, portfolios and property mappings) from a tabular source.
package refdata

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nhle/planbatch/internal/apperr"
	"github.com/nhle/planbatch/internal/logger"
	"github.com/nhle/planbatch/internal/model"
)

// RangeReader returns the rows of a named range, header excluded. Column
// order within a row is positional.
type RangeReader interface {
	ReadRange(ctx context.Context, rangeName string) ([][]string, error)
}

// NewReader returns the reader selected by cfg.Kind.
func NewReader(ctx context.Context, cfg model.SourceConfig) (RangeReader, error) {
	switch cfg.Kind {
	case model.SourceKindSheets, "":
		return NewSheetsReader(ctx, cfg.SpreadsheetID, cfg.APIKey, cfg.Endpoint)
	case model.SourceKindFixture:
		return NewFixtureReader(cfg.FixturePath)
	default:
		return nil, &apperr.ConfigError{
			Component: "source",
			Fields:    []string{"source.kind"},
			Message:   fmt.Sprintf("unknown source kind %q", cfg.Kind),
		}
	}
}

// Gateway fetches every range concurrently and assembles a ReferenceData.
type Gateway struct {
	reader  RangeReader
	ranges  model.RangeConfig
	timeout time.Duration
}

// NewGateway returns a Gateway reading ranges through reader. A zero
// timeout means the caller's context alone bounds Load.
func NewGateway(reader RangeReader, ranges model.RangeConfig, timeout time.Duration) *Gateway {
	return &Gateway{reader: reader, ranges: ranges, timeout: timeout}
}

// Load reads all ranges and parses them. Rows missing a required column
// are skipped; an empty users, properties or subjects collection fails
// the whole load. Portfolios and mappings may be empty.
func (g *Gateway) Load(ctx context.Context) (*model.ReferenceData, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	var userRows, propertyRows, subjectRows, portfolioRows, mappingRows [][]string

	eg, egCtx := errgroup.WithContext(ctx)
	read := func(rangeName string, dst *[][]string) {
		eg.Go(func() error {
			rows, err := g.reader.ReadRange(egCtx, rangeName)
			if err != nil {
				return transportErr(rangeName, err)
			}
			*dst = rows
			return nil
		})
	}
	read(g.ranges.Users, &userRows)
	read(g.ranges.Properties, &propertyRows)
	read(g.ranges.Subjects, &subjectRows)
	read(g.ranges.Portfolios, &portfolioRows)
	read(g.ranges.Mappings, &mappingRows)

	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("loading reference data: %w", err)
	}

	users := ParseUsers(userRows)
	properties := ParseProperties(propertyRows)
	subjects := ParseSubjects(subjectRows)
	portfolios := ParsePortfolios(portfolioRows)
	mappings := ParseMappings(mappingRows)

	logDropped(g.ranges.Users, len(userRows), len(users))
	logDropped(g.ranges.Properties, len(propertyRows), len(properties))
	logDropped(g.ranges.Subjects, len(subjectRows), len(subjects))
	logDropped(g.ranges.Portfolios, len(portfolioRows), len(portfolios))
	logDropped(g.ranges.Mappings, len(mappingRows), len(mappings))

	switch {
	case len(users) == 0:
		return nil, emptyCollection("users", g.ranges.Users)
	case len(properties) == 0:
		return nil, emptyCollection("properties", g.ranges.Properties)
	case len(subjects) == 0:
		return nil, emptyCollection("subjects", g.ranges.Subjects)
	}

	logger.Info("reference data loaded",
		"users", len(users),
		"properties", len(properties),
		"subjects", len(subjects),
		"portfolios", len(portfolios),
		"mappings", len(mappings),
	)

	return model.NewReferenceData(users, properties, subjects, portfolios, mappings), nil
}

func transportErr(rangeName string, err error) error {
	var terr *apperr.TransportError
	if errors.As(err, &terr) {
		return err
	}
	return &apperr.TransportError{Op: "reading range " + rangeName, Err: err}
}

func emptyCollection(entity, rangeName string) error {
	return &apperr.DataIntegrityError{
		Reason:  apperr.ReasonEmptyCollection,
		Entity:  entity,
		Message: fmt.Sprintf("no %s found in reference data; add rows to the %q tab", entity, tabName(rangeName)),
	}
}

func logDropped(rangeName string, read, kept int) {
	if read > kept {
		logger.Debug("skipped incomplete rows", "range", rangeName, "read", read, "skipped", read-kept)
	}
}

// cell returns the trimmed value at column i, or "" when the row is short.
func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// ParseUsers reads [id, name] rows. Both columns are required.
func ParseUsers(rows [][]string) []model.SalesPerson {
	var out []model.SalesPerson
	for _, row := range rows {
		id, name := cell(row, 0), cell(row, 1)
		if id == "" || name == "" {
			continue
		}
		out = append(out, model.SalesPerson{ID: id, Name: name})
	}
	return out
}

// ParseProperties reads [id, name] rows. Both columns are required.
func ParseProperties(rows [][]string) []model.Property {
	var out []model.Property
	for _, row := range rows {
		id, name := cell(row, 0), cell(row, 1)
		if id == "" || name == "" {
			continue
		}
		out = append(out, model.Property{ID: id, Name: name})
	}
	return out
}

// ParseSubjects reads [value] rows.
func ParseSubjects(rows [][]string) []string {
	var out []string
	for _, row := range rows {
		if v := cell(row, 0); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// ParsePortfolios reads [name] rows.
func ParsePortfolios(rows [][]string) []model.Portfolio {
	var out []model.Portfolio
	for _, row := range rows {
		if v := cell(row, 0); v != "" {
			out = append(out, model.Portfolio{Name: v})
		}
	}
	return out
}

// ParseMappings reads [propertyId, ownerUserId, brand] rows. The brand
// column is optional; a mapping without one only shows up org-wide.
func ParseMappings(rows [][]string) []model.PropertyMapping {
	var out []model.PropertyMapping
	for _, row := range rows {
		m := model.PropertyMapping{
			PropertyID:  cell(row, 0),
			OwnerUserID: cell(row, 1),
			Brand:       cell(row, 2),
		}
		if m.PropertyID == "" || m.OwnerUserID == "" {
			continue
		}
		out = append(out, m)
	}
	return out
}
