package model

import "strings"

// OrgWidePortfolio is the portfolio that selects every mapped property
// rather than a single brand. Matching is case-insensitive.
const OrgWidePortfolio = "Org-Wide"

// IsOrgWide reports whether name denotes the org-wide portfolio.
func IsOrgWide(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), OrgWidePortfolio)
}

// SalesPerson is a user who can own plan tasks.
type SalesPerson struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Property is a managed location (e.g. a hotel) a task relates to.
type Property struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Portfolio is a named grouping of properties.
type Portfolio struct {
	Name string `json:"name" yaml:"name"`
}

// PropertyMapping links a property to its responsible sales person and
// to a brand bucket.
type PropertyMapping struct {
	PropertyID  string `json:"property_id" yaml:"property_id"`
	OwnerUserID string `json:"owner_user_id" yaml:"owner_user_id"`
	Brand       string `json:"brand" yaml:"brand"`
}

// ReferenceData is the read-only snapshot loaded at startup. It is never
// patched in place; a reload replaces it wholesale.
type ReferenceData struct {
	users      []SalesPerson
	properties []Property
	subjects   []string
	portfolios []Portfolio
	mappings   []PropertyMapping

	userByID     map[string]SalesPerson
	propertyByID map[string]Property
	ownerByProp  map[string]PropertyMapping
}

// NewReferenceData copies the given collections and builds the lookup
// indexes. When a property appears in several mappings the last row wins
// for owner resolution.
func NewReferenceData(
	users []SalesPerson,
	properties []Property,
	subjects []string,
	portfolios []Portfolio,
	mappings []PropertyMapping,
) *ReferenceData {
	r := &ReferenceData{
		users:        append([]SalesPerson(nil), users...),
		properties:   append([]Property(nil), properties...),
		subjects:     append([]string(nil), subjects...),
		portfolios:   append([]Portfolio(nil), portfolios...),
		mappings:     append([]PropertyMapping(nil), mappings...),
		userByID:     make(map[string]SalesPerson, len(users)),
		propertyByID: make(map[string]Property, len(properties)),
		ownerByProp:  make(map[string]PropertyMapping, len(mappings)),
	}
	for _, u := range r.users {
		r.userByID[u.ID] = u
	}
	for _, p := range r.properties {
		r.propertyByID[p.ID] = p
	}
	for _, m := range r.mappings {
		r.ownerByProp[m.PropertyID] = m
	}
	return r
}

// Users returns the sales people in source order.
func (r *ReferenceData) Users() []SalesPerson {
	return append([]SalesPerson(nil), r.users...)
}

// Properties returns the properties in source order.
func (r *ReferenceData) Properties() []Property {
	return append([]Property(nil), r.properties...)
}

// Subjects returns the subject options in source order.
func (r *ReferenceData) Subjects() []string {
	return append([]string(nil), r.subjects...)
}

// Portfolios returns the portfolios as loaded, without the org-wide entry.
func (r *ReferenceData) Portfolios() []Portfolio {
	return append([]Portfolio(nil), r.portfolios...)
}

// Mappings returns every property mapping in source order.
func (r *ReferenceData) Mappings() []PropertyMapping {
	return append([]PropertyMapping(nil), r.mappings...)
}

// User looks up a sales person by id.
func (r *ReferenceData) User(id string) (SalesPerson, bool) {
	u, ok := r.userByID[id]
	return u, ok
}

// Property looks up a property by id.
func (r *ReferenceData) Property(id string) (Property, bool) {
	p, ok := r.propertyByID[id]
	return p, ok
}

// OwnerMapping returns the mapping that decides who owns propertyID.
func (r *ReferenceData) OwnerMapping(propertyID string) (PropertyMapping, bool) {
	m, ok := r.ownerByProp[propertyID]
	return m, ok
}

// MappingsForPortfolio resolves a portfolio name to mappings in source
// order: all of them for the org-wide portfolio, otherwise those whose
// brand equals name.
func (r *ReferenceData) MappingsForPortfolio(name string) []PropertyMapping {
	if IsOrgWide(name) {
		return r.Mappings()
	}
	name = strings.TrimSpace(name)
	var out []PropertyMapping
	for _, m := range r.mappings {
		if m.Brand != "" && m.Brand == name {
			out = append(out, m)
		}
	}
	return out
}

// PortfolioOptions returns the org-wide portfolio followed by each loaded
// portfolio name, skipping duplicates.
func (r *ReferenceData) PortfolioOptions() []string {
	seen := map[string]bool{strings.ToLower(OrgWidePortfolio): true}
	opts := []string{OrgWidePortfolio}
	for _, p := range r.portfolios {
		key := strings.ToLower(p.Name)
		if seen[key] {
			continue
		}
		seen[key] = true
		opts = append(opts, p.Name)
	}
	return opts
}
