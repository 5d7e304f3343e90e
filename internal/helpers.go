package internal

import (
	"context"

	"github.com/frankli0324/go-icap/internal/dialer"
)

// UseProxy routes the connections of c through the socks5 or http proxy at
// proxyURL. It reports whether a *CoreDialer was found to configure.
func (c *Client) UseProxy(proxyURL string) (ok bool) {
	c.UseDialer(func(d Dialer) Dialer {
		for cd := d; cd != nil; cd = cd.Unwrap() {
			if d, isCore := cd.(*CoreDialer); isCore {
				d.GetProxy = func(context.Context, string, int) (string, error) {
					return proxyURL, nil
				}
				ok = true
			}
		}
		return d
	})
	return
}

// UseDNSServer resolves the ICAP server name with the DNS server at addr
// ("host:port") instead of the system resolver.
func (c *Client) UseDNSServer(addr string) (ok bool) {
	c.UseDialer(func(d Dialer) Dialer {
		for cd := d; cd != nil; cd = cd.Unwrap() {
			if d, isCore := cd.(*CoreDialer); isCore {
				if d.ResolveConfig == nil {
					d.ResolveConfig = &dialer.ResolveConfig{}
				}
				d.ResolveConfig.CustomDNSServer = addr
				ok = true
			}
		}
		return d
	})
	return
}
