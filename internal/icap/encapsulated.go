package icap

import (
	"strconv"
	"strings"
)

// Entity is one name=offset entry of an Encapsulated header.
type Entity struct {
	Name   string
	Offset int
}

// Encapsulated lists the sections embedded in an ICAP message body, see
// RFC3507 section 4.4.1, e.g. "req-hdr=0, res-hdr=137, res-body=296".
type Encapsulated []Entity

// ParseEncapsulated parses an Encapsulated header value. Empty tokens are
// ignored, offsets must be decimal and non-decreasing.
func ParseEncapsulated(v string) (Encapsulated, error) {
	var e Encapsulated
	last := 0
	for _, tok := range strings.Split(v, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		name, off, ok := strings.Cut(tok, "=")
		if !ok {
			return nil, ErrEncapsulated.At(v)
		}
		n, err := strconv.Atoi(strings.TrimSpace(off))
		if err != nil || n < last {
			return nil, ErrEncapsulated.At(v)
		}
		last = n
		e = append(e, Entity{strings.ToLower(strings.TrimSpace(name)), n})
	}
	return e, nil
}

func isBodyEntity(name string) bool {
	switch name {
	case "req-body", "res-body", "opt-body", "null-body":
		return true
	}
	return false
}

// Body returns the entity marking the start of the body section.
func (e Encapsulated) Body() (Entity, bool) {
	for _, ent := range e {
		if isBodyEntity(ent.Name) {
			return ent, true
		}
	}
	return Entity{}, false
}

// Split slices data, the bytes preceding the body section, into its named
// header sections.
func (e Encapsulated) Split(data []byte) map[string][]byte {
	sections := make(map[string][]byte)
	for i, ent := range e {
		if isBodyEntity(ent.Name) {
			break
		}
		end := len(data)
		if i+1 < len(e) && e[i+1].Offset < end {
			end = e[i+1].Offset
		}
		if ent.Offset >= end {
			continue
		}
		sections[ent.Name] = data[ent.Offset:end]
	}
	return sections
}

func (e Encapsulated) String() string {
	var b strings.Builder
	for i, ent := range e {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(ent.Name)
		b.WriteByte('=')
		b.WriteString(strconv.Itoa(ent.Offset))
	}
	return b.String()
}
