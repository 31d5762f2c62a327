package normalize

import (
	"maps"
	"slices"
	"strings"
)

// bom is how a UTF-8 byte order mark reads once decoded as ISO-8859-1.
const bom = "ï»¿"

// alias is one raw header spelling and the canonical name it maps to.
type alias struct {
	raw       string
	canonical string
}

// builtinAliases is every header spelling seen in the published files.
// Order is the order canonical columns are listed in.
var builtinAliases = []alias{
	{raw: "Issued", canonical: "issued_at"},
	{raw: "Issued At", canonical: "issued_at"},
	{raw: bom + "Issued At", canonical: "issued_at"},
	{raw: "Issued Time/Date", canonical: "issued_at"},
	{raw: bom + "Issued Time/Date", canonical: "issued_at"},
	{raw: "Organisation name", canonical: "organisation_name"},
	{raw: "Paid", canonical: "paid"},
	{raw: "Organisation Code", canonical: "organisation_code"},
	{raw: "Status", canonical: "status"},
	{raw: "Location", canonical: "location"},
	{raw: "Location ", canonical: "location"},
	{raw: "Ward", canonical: "ward"},
	{raw: "Ticket Destination", canonical: "ticket_destination"},
	{raw: "Ticket Destinatio", canonical: "ticket_destination"},
	{raw: "Ticket destination", canonical: "ticket_destination"},
	{raw: "Zone Name", canonical: "zone_name"},
	{raw: "Zone name", canonical: "zone_name"},
	{raw: "Restriction", canonical: "zone_name"},
	{raw: "CEO", canonical: "zone_name_two"},
	{raw: "OS Bal", canonical: "outstanding_balance"},
	{raw: "O/S Balance", canonical: "outstanding_balance"},
	{raw: "Outstanding", canonical: "outstanding_balance"},
	{raw: "OS Balance", canonical: "outstanding_balance"},
	{raw: "Outstanding Balance", canonical: "outstanding_balance"},
	{raw: "Zone desc", canonical: "zone_description"},
	{raw: "Cont.", canonical: "contravention_code"},
	{raw: "Contravention", canonical: "contravention_code"},
	{raw: "Cont", canonical: "contravention_code"},
	{raw: "Offence", canonical: "contravention_code"},
	{raw: "Contravention Code", canonical: "contravention_code"},
	{raw: "Contravention Description", canonical: "contravention_description"},
}

// Mapping is a many-to-one map from raw header spellings to canonical
// column names. Lookups are exact: case and surrounding whitespace matter.
//
// A Mapping is immutable once built and safe for concurrent use.
type Mapping struct {
	entries   map[string]string
	canonical []string
}

// DefaultMapping returns the built-in mapping.
func DefaultMapping() *Mapping {
	m := &Mapping{entries: make(map[string]string, len(builtinAliases))}
	for _, a := range builtinAliases {
		m.set(a.raw, a.canonical)
	}
	return m
}

// NewMapping builds a mapping from entries alone, without the built-in table.
// Empty keys and empty canonical names are ignored.
func NewMapping(entries map[string]string) *Mapping {
	m := &Mapping{entries: make(map[string]string, len(entries))}
	for _, raw := range slices.Sorted(maps.Keys(entries)) {
		m.set(raw, entries[raw])
	}
	return m
}

func (m *Mapping) set(raw, canonical string) {
	canonical = strings.TrimSpace(canonical)
	if raw == "" || canonical == "" {
		return
	}
	m.entries[raw] = canonical
	if !slices.Contains(m.canonical, canonical) {
		m.canonical = append(m.canonical, canonical)
	}
}

// WithAliases returns a copy of m extended with aliases.
// An alias whose key is already mapped never changes that key's canonical
// name; such keys are returned as ignored, sorted.
func (m *Mapping) WithAliases(aliases map[string]string) (*Mapping, []string) {
	out := &Mapping{
		entries:   maps.Clone(m.entries),
		canonical: slices.Clone(m.canonical),
	}
	if out.entries == nil {
		out.entries = make(map[string]string)
	}

	var ignored []string
	for _, raw := range slices.Sorted(maps.Keys(aliases)) {
		if existing, ok := m.entries[raw]; ok {
			if existing != strings.TrimSpace(aliases[raw]) {
				ignored = append(ignored, raw)
			}
			continue
		}
		out.set(raw, aliases[raw])
	}
	return out, ignored
}

// Lookup returns the canonical name of a raw header.
func (m *Mapping) Lookup(raw string) (string, bool) {
	c, ok := m.entries[raw]
	return c, ok
}

// Len returns the number of raw spellings.
func (m *Mapping) Len() int {
	return len(m.entries)
}

// CanonicalColumns returns the distinct canonical names in definition order.
func (m *Mapping) CanonicalColumns() []string {
	return slices.Clone(m.canonical)
}
