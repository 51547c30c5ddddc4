package client

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/http/httpproxy"
	"golang.org/x/net/http2"
	"golang.org/x/net/proxy"

	"github.com/ideaspaper/rq/internal/constants"
)

var defaultPorts = map[string]string{
	"http":    "80",
	"https":   "443",
	"socks5":  "1080",
	"socks5h": "1080",
}

// proxyResolver picks the proxy for a target URL; nil means connect directly.
type proxyResolver func(target *url.URL) (*url.URL, error)

// proxyFunc returns a resolver for the explicit proxy, or one that reads
// HTTP_PROXY, HTTPS_PROXY and NO_PROXY when none is configured.
func proxyFunc(explicit *url.URL) proxyResolver {
	if explicit != nil {
		return func(*url.URL) (*url.URL, error) { return explicit, nil }
	}
	return httpproxy.FromEnvironment().ProxyFunc()
}

func isSocks(u *url.URL) bool {
	return u != nil && strings.HasPrefix(strings.ToLower(u.Scheme), "socks5")
}

func hostPort(u *url.URL) string {
	if u.Port() != "" {
		return u.Host
	}
	return net.JoinHostPort(u.Hostname(), defaultPorts[strings.ToLower(u.Scheme)])
}

// dialer opens connections to targets, directly, through a SOCKS5 proxy or
// through an HTTP CONNECT tunnel.
type dialer struct {
	resolve proxyResolver
	direct  *net.Dialer
}

func newDialer(resolve proxyResolver) *dialer {
	return &dialer{
		resolve: resolve,
		direct: &net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		},
	}
}

// dial connects to addr for a request with the given scheme.
func (d *dialer) dial(ctx context.Context, scheme, addr string) (net.Conn, error) {
	p, err := d.resolve(&url.URL{Scheme: scheme, Host: addr})
	if err != nil {
		return nil, err
	}
	switch {
	case p == nil:
		return d.direct.DialContext(ctx, "tcp", addr)
	case isSocks(p):
		return d.dialSocks(ctx, p, addr)
	default:
		return d.dialTunnel(ctx, p, addr)
	}
}

func (d *dialer) dialSocks(ctx context.Context, p *url.URL, addr string) (net.Conn, error) {
	pd, err := proxy.FromURL(p, d.direct)
	if err != nil {
		return nil, err
	}
	if cd, ok := pd.(proxy.ContextDialer); ok {
		return cd.DialContext(ctx, "tcp", addr)
	}
	return pd.Dial("tcp", addr)
}

// dialTunnel asks an HTTP(S) proxy to CONNECT to addr and returns the
// established tunnel.
func (d *dialer) dialTunnel(ctx context.Context, p *url.URL, addr string) (net.Conn, error) {
	conn, err := d.direct.DialContext(ctx, "tcp", hostPort(p))
	if err != nil {
		return nil, err
	}

	if strings.EqualFold(p.Scheme, "https") {
		tc := tls.Client(conn, &tls.Config{ServerName: p.Hostname()})
		if err := tc.HandshakeContext(ctx); err != nil {
			conn.Close()
			return nil, err
		}
		conn = tc
	}

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
		defer conn.SetDeadline(time.Time{})
	}

	connReq := &http.Request{
		Method: http.MethodConnect,
		URL:    &url.URL{Opaque: addr},
		Host:   addr,
		Header: make(http.Header),
	}
	if p.User != nil {
		creds := p.User.Username()
		if pass, ok := p.User.Password(); ok {
			creds += ":" + pass
		}
		auth := base64.StdEncoding.EncodeToString([]byte(creds))
		connReq.Header.Set(constants.HeaderProxyAuthorize, constants.AuthSchemeBasic+" "+auth)
	}
	if err := connReq.Write(conn); err != nil {
		conn.Close()
		return nil, err
	}

	resp, err := http.ReadResponse(bufio.NewReader(conn), connReq)
	if err != nil {
		conn.Close()
		return nil, err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		conn.Close()
		return nil, fmt.Errorf("proxy %s refused tunnel: %s", p.Host, resp.Status)
	}
	return conn, nil
}

// newTransport returns the round tripper for one invocation. Connections are
// not reused since a client sends a single request.
func newTransport(http2Only bool, explicit *url.URL) http.RoundTripper {
	resolve := proxyFunc(explicit)
	d := newDialer(resolve)
	if http2Only {
		return newHTTP2Transport(d)
	}

	t := &http.Transport{
		Proxy: func(req *http.Request) (*url.URL, error) {
			return resolve(req.URL)
		},
		DialContext:           d.direct.DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		DisableKeepAlives:     true,
	}
	if isSocks(explicit) {
		t.Proxy = nil
		t.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			return d.dialSocks(ctx, explicit, addr)
		}
	}
	return t
}

// http2Transport speaks HTTP/2 only: TLS targets must negotiate h2 through
// ALPN and cleartext targets get h2 with prior knowledge.
type http2Transport struct {
	secure    *http2.Transport
	cleartext *http2.Transport
}

func newHTTP2Transport(d *dialer) *http2Transport {
	return &http2Transport{
		secure: &http2.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string, cfg *tls.Config) (net.Conn, error) {
				conn, err := d.dial(ctx, "https", addr)
				if err != nil {
					return nil, err
				}
				tc := tls.Client(conn, cfg)
				if err := tc.HandshakeContext(ctx); err != nil {
					conn.Close()
					return nil, err
				}
				if proto := tc.ConnectionState().NegotiatedProtocol; proto != http2.NextProtoTLS {
					tc.Close()
					return nil, fmt.Errorf("server at %s did not negotiate HTTP/2 (got %q)", addr, proto)
				}
				return tc, nil
			},
		},
		cleartext: &http2.Transport{
			AllowHTTP: true,
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				return d.dial(ctx, "http", addr)
			},
		},
	}
}

func (t *http2Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if strings.EqualFold(req.URL.Scheme, "http") {
		return t.cleartext.RoundTrip(req)
	}
	return t.secure.RoundTrip(req)
}
