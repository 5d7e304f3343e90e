package icap

import (
	"net"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"

	"golang.org/x/net/http/httpguts"
)

// DefaultUserAgent is sent when the caller did not set a User-Agent.
const DefaultUserAgent = "go-icap"

// Request is an ICAP request. It is built once by the caller and consumed
// by exactly one exchange, after which it must not be modified.
type Request struct {
	Method Method
	URL    *url.URL
	Header Header

	// Body is the encapsulated HTTP body to adapt, nil for none.
	Body []byte

	preview    int
	hasPreview bool
	sent       atomic.Bool
}

// NewRequest builds a request for target, an icap:// address or a bare
// resource path. Header fields in header take precedence over the derived
// Host and the default User-Agent.
func NewRequest(method Method, target string, header Header) (*Request, error) {
	if !method.Valid() {
		return nil, ErrUnknownMethod.Wrap(valueError{"method", string(method)})
	}
	if target == "" {
		return nil, ErrEmptyPath
	}
	u, err := ParseTarget(target)
	if err != nil {
		return nil, err
	}
	return NewRequestURL(method, u, header)
}

// NewRequestURL is like [NewRequest] with an already parsed address. u is copied.
func NewRequestURL(method Method, u *url.URL, header Header) (*Request, error) {
	if !method.Valid() {
		return nil, ErrUnknownMethod.Wrap(valueError{"method", string(method)})
	}
	if u == nil || u.Path == "" {
		return nil, ErrEmptyPath
	}
	cp := *u
	r := &Request{Method: method, URL: &cp, Header: header.Clone()}

	if host := u.Hostname(); host != "" && !r.Header.Has("Host") {
		r.Header.Set("Host", HostPort(host, PortOf(u)))
	}
	if !r.Header.Has("User-Agent") {
		r.Header.Set("User-Agent", DefaultUserAgent)
	}
	if v, ok := r.Header.Lookup("Preview"); ok {
		n, err := parsePreview(v)
		if err != nil {
			return nil, err
		}
		r.preview, r.hasPreview = n, true
	}
	return r, nil
}

// parsePreview takes the first run of digits of v.
func parsePreview(v string) (int, error) {
	start := strings.IndexAny(v, "0123456789")
	if start < 0 {
		return 0, ErrPreviewFormat
	}
	end := start
	for end < len(v) && '0' <= v[end] && v[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(v[start:end])
	if err != nil {
		return 0, ErrPreviewFormat.Wrap(err)
	}
	return n, nil
}

// SetPreview asks the server to decide on the first n body bytes before the
// rest is sent. It mirrors n into the Preview header.
func (r *Request) SetPreview(n int) error {
	if n < 0 {
		return ErrNegativePreview
	}
	if r.sent.Load() {
		return ErrRequestConsumed
	}
	r.preview, r.hasPreview = n, true
	r.Header.Set("Preview", strconv.Itoa(n))
	return nil
}

// Preview returns the preview size and whether one was set.
func (r *Request) Preview() (int, bool) {
	return r.preview, r.hasPreview
}

// Previewing reports whether sending r involves a preview negotiation, i.e.
// the preview is strictly shorter than the body.
func (r *Request) Previewing() bool {
	return r.hasPreview && r.Body != nil && r.preview < len(r.Body)
}

// Prepare freezes r for transmission. It fills the Encapsulated header of
// requests carrying a body and validates every header field. It fails when r
// was already prepared once.
func (r *Request) Prepare() error {
	if !r.sent.CompareAndSwap(false, true) {
		return ErrRequestConsumed
	}
	if r.Body != nil && !r.Header.Has("Encapsulated") {
		r.Header.Set("Encapsulated", r.Method.bodyEntity()+"=0")
	}
	if host, ok := r.Header.Lookup("Host"); ok && !httpguts.ValidHostHeader(host) {
		return ErrInvalidHeader.Wrap(valueError{"host", host})
	}
	for _, f := range r.Header.Fields() {
		if !httpguts.ValidHeaderFieldName(f.Name) || !httpguts.ValidHeaderFieldValue(f.Value) {
			return ErrInvalidHeader.Wrap(valueError{"header field", f.Name})
		}
	}
	return nil
}

// Sent reports whether r was handed to an exchange.
func (r *Request) Sent() bool { return r.sent.Load() }

// UpdateURL fills a missing host of r from the session address and pins the
// port to the one the session is connected to.
func (r *Request) UpdateURL(host string, port int) {
	h := r.URL.Hostname()
	if h == "" {
		h = host
	}
	if port == 0 {
		port = PortOf(r.URL)
	}
	r.URL.Scheme = Scheme
	r.URL.Host = net.JoinHostPort(h, strconv.Itoa(port))
	if !r.Header.Has("Host") {
		r.Header.Set("Host", HostPort(h, port))
	}
}

func (r *Request) String() string {
	return "<icap.Request " + string(r.Method) + ">"
}
