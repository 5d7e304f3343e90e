package icap

import (
	"github.com/frankli0324/go-icap/internal"
	"github.com/frankli0324/go-icap/internal/config"
	"github.com/frankli0324/go-icap/internal/icap"
)

type Client = internal.Client
type State = internal.State

type Middleware = internal.Middleware
type Handler = internal.Handler
type Option = internal.Option

const (
	StateIdle       = internal.StateIdle
	StateConnecting = internal.StateConnecting
	StateOpen       = internal.StateOpen
	StateInExchange = internal.StateInExchange
	StateClosed     = internal.StateClosed
)

var (
	WithPreview = internal.WithPreview
	WithHeader  = internal.WithHeader
	WithQuery   = internal.WithQuery
)

// NewClient returns a Client for the ICAP server at addr:port. A zero port
// means 1344.
func NewClient(addr string, port int) *Client {
	return &Client{Address: addr, Port: port}
}

// NewClientFromEnv builds a Client from the ICAP_* environment variables,
// reading a .env file in the working directory first if there is one.
func NewClientFromEnv() (*Client, error) {
	cfg, err := config.MustLoad()
	if err != nil {
		return nil, err
	}
	c := &Client{
		Address:         cfg.Host(),
		Port:            cfg.Port(),
		OpenTimeout:     cfg.OpenTimeout(),
		ReadTimeout:     cfg.ReadTimeout(),
		WriteTimeout:    cfg.WriteTimeout(),
		ContinueTimeout: cfg.ContinueTimeout(),
		UserAgent:       cfg.UserAgent(),
	}
	if p := cfg.Proxy(); p != "" {
		c.UseProxy(p)
	}
	if dns := cfg.DNSServer(); dns != "" {
		c.UseDNSServer(dns)
	}
	return c, nil
}

// NewRequest builds a request for target, see [icap.NewRequest].
func NewRequest(method Method, target string, header Header) (*Request, error) {
	return icap.NewRequest(method, target, header)
}
