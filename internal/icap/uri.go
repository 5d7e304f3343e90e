package icap

import (
	"net"
	"net/url"
	"strconv"
	"strings"
)

// Scheme is the URI scheme of ICAP service addresses.
const Scheme = "icap"

// ParseTarget parses an icap:// service address.
func ParseTarget(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, ErrInvalidTarget.Wrap(err)
	}
	if u.Scheme != "" && !strings.EqualFold(u.Scheme, Scheme) {
		return nil, ErrInvalidTarget.Wrap(valueError{"scheme", u.Scheme})
	}
	return u, nil
}

// PortOf returns the port of u, or [DefaultPort] when u has none.
func PortOf(u *url.URL) int {
	if p, err := strconv.Atoi(u.Port()); err == nil {
		return p
	}
	return DefaultPort
}

// HostPort formats host[:port], leaving out the port when it is the default.
func HostPort(host string, port int) string {
	if port == DefaultPort || port == 0 {
		if strings.IndexByte(host, ':') >= 0 {
			return "[" + host + "]"
		}
		return host
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// ServiceURL builds icap://host:port/service?query, the port is always
// spelled out. A missing leading "/" is added to service.
func ServiceURL(host string, port int, service string, query url.Values) *url.URL {
	if port == 0 {
		port = DefaultPort
	}
	return &url.URL{
		Scheme:   Scheme,
		Host:     net.JoinHostPort(host, strconv.Itoa(port)),
		Path:     "/" + strings.TrimLeft(service, "/"),
		RawQuery: query.Encode(), // sorted by key
	}
}
