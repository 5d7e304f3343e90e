package icap

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
)

// ErrNoSection is returned when an embedded HTTP section is not announced
// by the Encapsulated header.
var ErrNoSection = errors.New("icap: encapsulated section not present")

// BodySource fills w with the body of res. It is installed by the transport
// for as long as the connection the response was read from is attached.
type BodySource func(res *Response, w io.Writer) error

// Response is a parsed ICAP response. Its body is materialized on the first
// call to [Response.ReadBody] and cached afterwards.
type Response struct {
	Proto      string // "ICAP/1.0"
	Code       string // 3 digits, e.g. "200"
	StatusCode int
	Reason     string // may be empty
	Header     Header
	Kind       Kind

	// URL is the address of the request this response answers.
	URL *url.URL

	// EncapsulatedHeader holds the bytes preceding the body section, i.e.
	// the embedded HTTP headers, when the response announces them.
	EncapsulatedHeader []byte

	source    BodySource
	bodyExist bool

	read bool
	body []byte
	dst  io.Writer
}

// NewResponse classifies code and returns an empty response for it.
func NewResponse(code, reason string) *Response {
	n, _ := strconv.Atoi(code)
	return &Response{
		Proto: Version, Code: code, StatusCode: n, Reason: reason,
		Kind: Classify(code),
	}
}

// Attach installs the body source. methodAllowsBody is whether the method
// of the originating request allows a response body at all.
func (r *Response) Attach(src BodySource, methodAllowsBody bool) {
	r.source = src
	r.bodyExist = methodAllowsBody && r.Kind.BodyPermitted()
}

// Detach removes the body source, an unread body can no longer be read.
func (r *Response) Detach() { r.source = nil }

// BodyExpected reports whether the response carries a body.
func (r *Response) BodyExpected() bool { return r.bodyExist }

// ReadBody materializes the body, copying it to dst too when dst is not
// nil. Subsequent calls return the cached body without touching the
// connection, unless they pass a destination different from the first one.
func (r *Response) ReadBody(dst io.Writer) ([]byte, error) {
	if r.read {
		if dst != nil && !sameWriter(dst, r.dst) {
			return nil, ErrBodyReadTwice
		}
		return r.body, nil
	}
	if r.source == nil {
		return nil, ErrBodyReadOutside
	}
	if r.bodyExist {
		buf := &bytes.Buffer{}
		var w io.Writer = buf
		if dst != nil {
			w = io.MultiWriter(buf, dst)
		}
		if err := r.source(r, w); err != nil {
			return nil, err
		}
		r.body = buf.Bytes()
	}
	r.read, r.dst = true, dst
	return r.body, nil
}

// Body returns the cached body, nil when it was not read or is absent.
func (r *Response) Body() []byte { return r.body }

// BodyRead reports whether ReadBody completed.
func (r *Response) BodyRead() bool { return r.read }

func sameWriter(a, b io.Writer) bool {
	if a == nil || b == nil {
		return a == b
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	return ta == tb && ta.Comparable() && a == b
}

// Encapsulated parses the Encapsulated header, nil when absent.
func (r *Response) Encapsulated() (Encapsulated, error) {
	v, ok := r.Header.Lookup("Encapsulated")
	if !ok {
		return nil, nil
	}
	return ParseEncapsulated(v)
}

func (r *Response) section(name string) []byte {
	e, err := r.Encapsulated()
	if err != nil {
		return nil
	}
	return e.Split(r.EncapsulatedHeader)[name]
}

// HTTPResponse parses the embedded res-hdr section. The returned response
// has no body, the adapted body is the one returned by ReadBody.
func (r *Response) HTTPResponse() (*http.Response, error) {
	hdr := r.section("res-hdr")
	if hdr == nil {
		return nil, ErrNoSection
	}
	return http.ReadResponse(bufio.NewReader(bytes.NewReader(hdr)), nil)
}

// HTTPRequest parses the embedded req-hdr section.
func (r *Response) HTTPRequest() (*http.Request, error) {
	hdr := r.section("req-hdr")
	if hdr == nil {
		return nil, ErrNoSection
	}
	return http.ReadRequest(bufio.NewReader(bytes.NewReader(hdr)))
}

func (r *Response) String() string {
	return "<icap.Response " + r.Code + " " + r.Kind.String() + " readbody=" + strconv.FormatBool(r.read) + ">"
}
