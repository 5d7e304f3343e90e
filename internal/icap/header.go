package icap

import "strings"

// Field is a single header line as presented on the wire.
type Field struct {
	Name  string
	Value string
}

// Header is a case-insensitive, multi-valued header collection. Keys keep the
// order in which they were first inserted, values keep the order in which
// they were added. The zero value is an empty Header ready to use.
//
// Unlike [net/http.Header], keys are folded to lower case for lookup and
// capitalized systematically for presentation, so the casing used by the
// peer is not preserved.
type Header struct {
	keys   []string // folded, first-insertion order
	values map[string][]string
}

// NewHeader builds a Header from name/value pairs in iteration order of kv,
// later duplicates are appended.
func NewHeader(kv ...Field) Header {
	var h Header
	for _, f := range kv {
		h.Add(f.Name, f.Value)
	}
	return h
}

func fold(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Set replaces all values stored under key.
func (h *Header) Set(key, value string) {
	k := fold(key)
	if h.values == nil {
		h.values = map[string][]string{}
	}
	if _, ok := h.values[k]; !ok {
		h.keys = append(h.keys, k)
	}
	h.values[k] = []string{value}
}

// Add appends value to the values stored under key.
func (h *Header) Add(key, value string) {
	k := fold(key)
	if h.values == nil {
		h.values = map[string][]string{}
	}
	if _, ok := h.values[k]; !ok {
		h.keys = append(h.keys, k)
	}
	h.values[k] = append(h.values[k], value)
}

// Lookup returns the values under key joined with ", ".
func (h *Header) Lookup(key string) (string, bool) {
	v, ok := h.values[fold(key)]
	if !ok {
		return "", false
	}
	return strings.Join(v, ", "), true
}

// Get is like Lookup but returns "" for absent keys.
func (h *Header) Get(key string) string {
	v, _ := h.Lookup(key)
	return v
}

// Values returns a copy of the raw values stored under key.
func (h *Header) Values(key string) []string {
	v := h.values[fold(key)]
	if v == nil {
		return nil
	}
	return append([]string(nil), v...)
}

func (h *Header) Has(key string) bool {
	_, ok := h.values[fold(key)]
	return ok
}

func (h *Header) Del(key string) {
	k := fold(key)
	if _, ok := h.values[k]; !ok {
		return
	}
	delete(h.values, k)
	for i := range h.keys {
		if h.keys[i] == k {
			h.keys = append(h.keys[:i:i], h.keys[i+1:]...)
			break
		}
	}
}

func (h *Header) Len() int { return len(h.keys) }

// Keys returns the folded keys in first-insertion order.
func (h *Header) Keys() []string {
	return append([]string(nil), h.keys...)
}

// Fields returns a snapshot of the header as capitalized name and joined
// value pairs, in first-insertion order of the keys.
func (h *Header) Fields() []Field {
	fields := make([]Field, 0, len(h.keys))
	for _, k := range h.keys {
		fields = append(fields, Field{Capitalize(k), strings.Join(h.values[k], ", ")})
	}
	return fields
}

// Clone returns a deep copy of h.
func (h *Header) Clone() Header {
	c := Header{keys: append([]string(nil), h.keys...)}
	if h.values != nil {
		c.values = make(map[string][]string, len(h.values))
		for k, v := range h.values {
			c.values[k] = append([]string(nil), v...)
		}
	}
	return c
}

// Capitalize upper-cases the first letter of each hyphen separated segment of
// name and lower-cases the rest, e.g. "user-agent" becomes "User-Agent".
func Capitalize(name string) string {
	b := []byte(strings.ToLower(name))
	upper := true
	for i, c := range b {
		if upper && 'a' <= c && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
		upper = c == '-'
	}
	return string(b)
}
