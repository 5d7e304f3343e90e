package internal

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"strconv"
	"time"

	"github.com/frankli0324/go-icap/internal/dialer"
	"github.com/frankli0324/go-icap/internal/icap"
	"github.com/frankli0324/go-icap/internal/stream"
	"github.com/frankli0324/go-icap/internal/transport"
	"github.com/frankli0324/go-icap/utils/nettools"
)

type Dialer = dialer.Dialer
type CoreDialer = dialer.CoreDialer

type Request = icap.Request
type Response = icap.Response

type Handler = func(ctx context.Context, req *Request) (*Response, error)
type Middleware func(next Handler) Handler

// Client is an ICAP session with a single server. A zero Client connects to
// the host of each request. Exchanges on one Client must not run
// concurrently.
//
// Connections are not reused: each exchange ends with the connection closed
// and the next one dials again. Start and Finish delimit an explicit session
// whose connection is opened up front.
type Client struct {
	Address string
	Port    int // 1344 when zero

	OpenTimeout     time.Duration // zero means no limit
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ContinueTimeout time.Duration
	UserAgent       string // "go-icap" when empty

	middlewares []Middleware
	dialer      Dialer
	logger      *log.Logger

	stream  *stream.Stream
	unwatch func() bool
	state   State
	started bool
}

var defaultDialer = &CoreDialer{
	ResolveConfig: &dialer.ResolveConfig{},
	ProxyConfig:   &dialer.ProxyConfig{},
}

// Use appends mw to the end of the chain. The last "Use"d mw executes first
func (c *Client) Use(mws ...Middleware) {
	c.middlewares = append(c.middlewares, mws...)
}

// UseDialer replaces the dialer with the one returned by fn, which receives
// the current one.
func (c *Client) UseDialer(fn func(Dialer) Dialer) {
	c.dialer = fn(c.getDialer())
}

// UseCoreDialer is like UseDialer, fn receives the innermost *CoreDialer of
// the current dialer chain, or a fresh one if there is none.
func (c *Client) UseCoreDialer(fn func(*CoreDialer) Dialer) {
	c.UseDialer(func(d Dialer) Dialer {
		for cd := d; cd != nil; cd = cd.Unwrap() {
			if core, ok := cd.(*CoreDialer); ok {
				return fn(core)
			}
		}
		return fn(defaultDialer.Clone())
	})
}

func (c *Client) getDialer() Dialer {
	if c.dialer == nil {
		c.dialer = defaultDialer.Clone()
	}
	return c.dialer
}

// SetDebugOutput enables logging of connection events to w. A nil w turns
// logging off.
func (c *Client) SetDebugOutput(w io.Writer) {
	if w == nil {
		c.logger = nil
		return
	}
	c.logger = log.New(w, "", log.LstdFlags)
}

func (c *Client) logf(format string, v ...interface{}) {
	if c.logger != nil {
		c.logger.Printf(format, v...)
	}
}

func (c *Client) port() int {
	if c.Port == 0 {
		return icap.DefaultPort
	}
	return c.Port
}

// target returns where req is sent: the session address if there is one,
// the host of the request otherwise.
func (c *Client) target(req *Request) (string, int) {
	if c.Address != "" {
		return c.Address, c.port()
	}
	return req.URL.Hostname(), icap.PortOf(req.URL)
}

func (c *Client) State() State { return c.state }

func (c *Client) Started() bool { return c.started }

// Start opens the connection to Address. Without an Address the connection
// is opened by the first exchange.
func (c *Client) Start(ctx context.Context) error {
	if c.started {
		return icap.ErrAlreadyStarted
	}
	if c.Address != "" {
		if err := c.connect(ctx, c.Address, c.port()); err != nil {
			return err
		}
	}
	c.started = true
	return nil
}

// Finish ends the session started by Start and closes its connection if it
// is still open.
func (c *Client) Finish() error {
	if !c.started {
		return icap.ErrNotStarted
	}
	c.started = false
	c.closeConn(StateClosed)
	return nil
}

func (c *Client) connect(ctx context.Context, host string, port int) error {
	c.state = StateConnecting
	dctx := ctx
	if c.OpenTimeout > 0 {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(ctx, c.OpenTimeout)
		defer cancel()
	}
	conn, err := c.getDialer().Dial(dctx, host, port)
	if err != nil {
		c.state = StateClosed
		if dctx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			err = icap.ErrOpenTimeout
		}
		return icap.NewConnectionError(host, port, err)
	}
	s := stream.New(conn, c.logger)
	s.ReadTimeout, s.WriteTimeout = c.ReadTimeout, c.WriteTimeout
	c.stream, c.state = s, StateOpen
	c.logf("icap: connected to %s", net.JoinHostPort(host, strconv.Itoa(port)))
	return nil
}

// ensureOpen reuses the connection opened by Start unless the server dropped
// it in the meantime.
func (c *Client) ensureOpen(ctx context.Context, host string, port int) error {
	if c.stream != nil && !c.stream.Closed() {
		raw := c.stream.Raw()
		if raw == nil || !nettools.PeerClosed(raw) {
			return nil
		}
		c.logf("icap: connection closed by peer, reconnecting")
		c.stream.Close()
	}
	return c.connect(ctx, host, port)
}

func (c *Client) closeConn(state State) {
	if c.unwatch != nil {
		c.unwatch()
		c.unwatch = nil
	}
	if c.stream != nil {
		c.stream.Close()
		c.stream = nil
	}
	c.state = state
}

// abort force closes the connection after a failed exchange.
func (c *Client) abort(err error) {
	c.logf("icap: Conn close because of error: %v", err)
	c.closeConn(StateClosed)
}

func (c *Client) roundTrip(ctx context.Context, req *Request) (*Response, error) {
	host, port := c.target(req)
	req.UpdateURL(host, port)
	if err := req.Prepare(); err != nil {
		return nil, err
	}
	if err := c.ensureOpen(ctx, host, port); err != nil {
		return nil, err
	}
	c.state = StateInExchange
	if c.unwatch != nil {
		c.unwatch()
	}
	s := c.stream
	c.unwatch = context.AfterFunc(ctx, func() { s.Close() })

	t := &transport.ICAP1{ContinueTimeout: c.ContinueTimeout, Logger: c.logger}
	res, err := t.RoundTrip(s, req)
	if err != nil {
		return nil, c.canceled(ctx, host, port, err)
	}
	return res, nil
}

// canceled reports a failure caused by ctx as a connection error.
func (c *Client) canceled(ctx context.Context, host string, port int, err error) error {
	if ctx.Err() != nil {
		return icap.NewConnectionError(host, port, ctx.Err())
	}
	return err
}

// Do sends req and calls fn with the response while the connection is
// still attached, so fn may stream the body with [icap.Response.ReadBody].
// The body is read completely before Do returns and stays available from
// the response afterwards. fn may be nil.
//
// Without an explicit session, Do runs within one from start to finish.
func (c *Client) Do(ctx context.Context, req *Request, fn func(*Response) error) (err error) {
	if c.state == StateInExchange {
		return icap.ErrInExchange
	}
	if !c.started {
		if err := c.Start(ctx); err != nil {
			return err
		}
		defer func() {
			if ferr := c.Finish(); err == nil {
				err = ferr
			}
		}()
	}

	next := c.roundTrip
	for _, mw := range c.middlewares {
		next = mw(next)
	}
	res, err := next(ctx, req)
	if err != nil {
		c.abort(err)
		return err
	}
	if fn != nil {
		err = fn(res)
	}
	if err == nil {
		_, err = res.ReadBody(nil)
	}
	res.Detach()
	if err != nil {
		host, port := c.target(req)
		err = c.canceled(ctx, host, port, err)
		c.abort(err)
		return err
	}
	c.closeConn(StateIdle)
	return nil
}

// Option customizes requests built by the convenience methods.
type Option func(req *Request) error

// WithPreview offers the first n bytes of the body as a preview.
func WithPreview(n int) Option {
	return func(req *Request) error { return req.SetPreview(n) }
}

func WithHeader(key, value string) Option {
	return func(req *Request) error {
		req.Header.Add(key, value)
		return nil
	}
}

// WithQuery adds a query parameter to the service url.
func WithQuery(key, value string) Option {
	return func(req *Request) error {
		q := req.URL.Query()
		q.Add(key, value)
		req.URL.RawQuery = q.Encode()
		return nil
	}
}

// NewRequest builds a request for service on the session address.
func (c *Client) NewRequest(method icap.Method, service string, body []byte, opts ...Option) (*Request, error) {
	if c.Address == "" {
		return nil, icap.ErrInvalidTarget
	}
	var h icap.Header
	if c.UserAgent != "" {
		h.Set("User-Agent", c.UserAgent)
	}
	req, err := icap.NewRequestURL(method, icap.ServiceURL(c.Address, c.port(), service, nil), h)
	if err != nil {
		return nil, err
	}
	req.Body = body
	for _, opt := range opts {
		if err := opt(req); err != nil {
			return nil, err
		}
	}
	return req, nil
}

func (c *Client) exchange(ctx context.Context, method icap.Method, service string, body []byte, opts []Option) (*Response, error) {
	req, err := c.NewRequest(method, service, body, opts...)
	if err != nil {
		return nil, err
	}
	var res *Response
	if err := c.Do(ctx, req, func(r *Response) error {
		res = r
		return nil
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// Options asks service for its capabilities.
func (c *Client) Options(ctx context.Context, service string, opts ...Option) (*Response, error) {
	return c.exchange(ctx, icap.MethodOptions, service, nil, opts)
}

// Reqmod sends an encapsulated HTTP request body to service. body may be
// nil.
func (c *Client) Reqmod(ctx context.Context, service string, body []byte, opts ...Option) (*Response, error) {
	return c.exchange(ctx, icap.MethodReqmod, service, body, opts)
}

// Respmod sends an encapsulated HTTP response body to service. body may be
// nil.
func (c *Client) Respmod(ctx context.Context, service string, body []byte, opts ...Option) (*Response, error) {
	return c.exchange(ctx, icap.MethodRespmod, service, body, opts)
}

func (c *Client) String() string {
	return fmt.Sprintf("icap.Client %s open=%t", net.JoinHostPort(c.Address, strconv.Itoa(c.port())), c.stream != nil && !c.stream.Closed())
}
