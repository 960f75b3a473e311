package directory

// Directory is the query capability the audit engine delegates to. The
// engine never interprets bitmask or timestamp semantics here; it receives
// raw records and decodes them itself.
type Directory interface {
	// Search returns all objects matching the filter, carrying only the
	// requested attributes.
	Search(filter string, attributes []string) ([]Record, error)

	// SearchOne is the single-result convenience variant. It returns
	// (nil, nil) when no object matches.
	SearchOne(filter string, attributes []string) (Record, error)
}
