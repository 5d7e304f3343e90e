package dialer

import (
	"context"
	"math/rand"
	"net"
)

// ResolveConfig controls how the ICAP server name is turned into an address.
type ResolveConfig struct {
	CustomDNSServer string            // "host:port" of the DNS server to query
	Network         string            // one of "ip4", "ip6", default is "ip"
	StaticHosts     map[string]string // resembles /etc/hosts
}

func (c *ResolveConfig) Clone() *ResolveConfig {
	if c == nil {
		return nil
	}
	return &ResolveConfig{
		CustomDNSServer: c.CustomDNSServer,
		Network:         c.Network,
		StaticHosts:     c.StaticHosts,
	}
}

// Merge returns a copy of c where the unset fields are taken from def.
// Static hosts of c take precedence over the ones of def.
func (c *ResolveConfig) Merge(def *ResolveConfig) *ResolveConfig {
	if c == nil {
		return def.Clone()
	}
	m := c.Clone()
	if def == nil {
		return m
	}
	if m.CustomDNSServer == "" {
		m.CustomDNSServer = def.CustomDNSServer
	}
	if m.Network == "" {
		m.Network = def.Network
	}
	if len(def.StaticHosts) > 0 {
		hosts := make(map[string]string, len(def.StaticHosts)+len(m.StaticHosts))
		for k, v := range def.StaticHosts {
			hosts[k] = v
		}
		for k, v := range m.StaticHosts {
			hosts[k] = v
		}
		m.StaticHosts = hosts
	}
	return m
}

// this type should not be used outside this file.
// prevents non-custom DNS server contexts to iterate through all keys
type dnsServerCtx struct {
	context.Context
	server string
}

var dnsServerCtxKey = &dnsServerCtx{nil, "dns-server"} // non-nil pointer to any object, definitely unique

func (c dnsServerCtx) Value(key interface{}) interface{} {
	if key == dnsServerCtxKey {
		return c.server
	}
	return c.Context.Value(key)
}

var customServerResolver = net.Resolver{
	PreferGo: true,
	Dial: func(ctx context.Context, network, address string) (net.Conn, error) {
		if v, ok := ctx.Value(dnsServerCtxKey).(string); ok && v != "" {
			return zeroDialer.DialContext(ctx, network, v)
		}
		return zeroDialer.DialContext(ctx, network, address)
	},
}

// resolve maps host to a single address honoring cfg, which may be nil:
// static hosts first, then a lookup on the configured server. IP literals
// are returned as is.
func (d *CoreDialer) resolve(ctx context.Context, cfg *ResolveConfig, host string) (string, error) {
	if cfg != nil {
		if res, ok := cfg.StaticHosts[host]; ok {
			return res, nil
		}
	}
	if net.ParseIP(host) != nil {
		return host, nil
	}
	ips, err := d.lookup(ctx, cfg, host)
	if err != nil {
		return "", err
	}
	if len(ips) == 0 {
		return "", &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
	}
	return ips[rand.Intn(len(ips))].String(), nil
}

func (d *CoreDialer) lookup(ctx context.Context, cfg *ResolveConfig, host string) (result []net.IP, err error) {
	if cfg == nil {
		return d.LookupIPServer(ctx, "ip", host, "")
	}
	network := cfg.Network
	if network == "" {
		network = "ip"
	}
	return d.LookupIPServer(ctx, network, host, cfg.CustomDNSServer)
}

// LookupIPServer performs DNS lookup for a host on a custom dns server,
// it calls [net.Resolver.LookupIP] with a Go Resolver behind the scenes.
// This part of logic may be reused when wrapping *[CoreDialer] into
// a new custom [Dialer]
func (d *CoreDialer) LookupIPServer(ctx context.Context, network, host, dns string) ([]net.IP, error) {
	return customServerResolver.LookupIP(dnsServerCtx{ctx, dns}, network, host)
}
