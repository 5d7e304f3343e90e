// package config reads client settings from the environment, after loading
// an optional .env file from the working directory.
package config

import "time"

type Config interface {
	Host() string
	Port() int

	OpenTimeout() time.Duration
	ReadTimeout() time.Duration
	WriteTimeout() time.Duration
	ContinueTimeout() time.Duration

	UserAgent() string

	Proxy() string
	DNSServer() string
}

func MustLoad() (Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	cfg, err := parse()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *config) Host() string                   { return c.host }
func (c *config) Port() int                      { return c.port }
func (c *config) OpenTimeout() time.Duration     { return c.openTimeout }
func (c *config) ReadTimeout() time.Duration     { return c.readTimeout }
func (c *config) WriteTimeout() time.Duration    { return c.writeTimeout }
func (c *config) ContinueTimeout() time.Duration { return c.continueTimeout }
func (c *config) UserAgent() string              { return c.userAgent }
func (c *config) Proxy() string                  { return c.proxy }
func (c *config) DNSServer() string              { return c.dnsServer }
