package app

import "strings"

// Document is the nested mapping loaded from a tool's settings file. Values
// are maps, slices or scalars as produced by the JSON and TOML decoders.
type Document map[string]any

// SetPath assigns value at a dot-delimited path, creating intermediate maps.
// An intermediate segment holding anything other than a map is replaced by
// an empty map. Dots always mean descent; there is no escaping.
func (d Document) SetPath(path string, value any) {
	keys := strings.Split(path, ".")
	current := map[string]any(d)
	for _, key := range keys[:len(keys)-1] {
		switch next := current[key].(type) {
		case map[string]any:
			current = next
		case Document:
			current = next
		default:
			fresh := map[string]any{}
			current[key] = fresh
			current = fresh
		}
	}
	current[keys[len(keys)-1]] = value
}

// GetPath returns the value at a dot-delimited path.
func (d Document) GetPath(path string) (any, bool) {
	var current any = map[string]any(d)
	for _, key := range strings.Split(path, ".") {
		var m map[string]any
		switch node := current.(type) {
		case map[string]any:
			m = node
		case Document:
			m = node
		default:
			return nil, false
		}
		value, ok := m[key]
		if !ok {
			return nil, false
		}
		current = value
	}
	return current, true
}
