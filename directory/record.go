package directory

import "strconv"

// Record is one directory object as returned by the query layer: attribute
// name to raw values. Values arrive only type-tagged as far as "string"; the
// numeric accessors below perform the integer decoding tolerantly.
type Record map[string][]string

// Values returns all raw values for an attribute, or nil when absent.
func (r Record) Values(name string) []string {
	return r[name]
}

// First returns the first value of an attribute, or "" when absent.
func (r Record) First(name string) string {
	values := r[name]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// Has reports whether the attribute is present with at least one value.
func (r Record) Has(name string) bool {
	return len(r[name]) > 0
}

// Int decodes the first value as an int. Absent or unparsable values
// return (0, false) rather than an error.
func (r Record) Int(name string) (int, bool) {
	first := r.First(name)
	if first == "" {
		return 0, false
	}
	v, err := strconv.Atoi(first)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Int64 decodes the first value as a signed 64-bit integer, the encoding
// used for FILETIME attributes.
func (r Record) Int64(name string) (int64, bool) {
	first := r.First(name)
	if first == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(first, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
