package httpclient

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/waftester/jsenum/pkg/duration"
)

// dnsCache remembers successful lookups for ttl. Probing sends many requests
// to a handful of hosts, so most dials skip the resolver entirely. Failed
// lookups are not cached.
type dnsCache struct {
	mu       sync.Mutex
	entries  map[string]dnsEntry
	ttl      time.Duration
	resolver *net.Resolver
	now      func() time.Time
}

type dnsEntry struct {
	addrs   []string
	expires time.Time
}

func newDNSCache(ttl time.Duration) *dnsCache {
	return &dnsCache{
		entries:  make(map[string]dnsEntry),
		ttl:      ttl,
		resolver: net.DefaultResolver,
		now:      time.Now,
	}
}

func (c *dnsCache) lookup(ctx context.Context, host string) ([]string, error) {
	c.mu.Lock()
	e, ok := c.entries[host]
	c.mu.Unlock()
	if ok && c.now().Before(e.expires) {
		return e.addrs, nil
	}

	addrs, err := c.resolver.LookupHost(ctx, host)
	if err != nil {
		return nil, err
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("dnscache: no addresses for %s", host)
	}

	c.mu.Lock()
	c.entries[host] = dnsEntry{addrs: addrs, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return addrs, nil
}

func (c *dnsCache) invalidate(host string) {
	c.mu.Lock()
	delete(c.entries, host)
	c.mu.Unlock()
}

// cachingDialer resolves through a dnsCache and tries each address in turn.
type cachingDialer struct {
	cache  *dnsCache
	dialer *net.Dialer
}

func newCachingDialer(cache *dnsCache, timeout time.Duration) *cachingDialer {
	return &cachingDialer{
		cache:  cache,
		dialer: &net.Dialer{Timeout: timeout, KeepAlive: duration.KeepAlive},
	}
}

func (d *cachingDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(address)
	if err != nil || net.ParseIP(host) != nil {
		return d.dialer.DialContext(ctx, network, address)
	}

	addrs, err := d.cache.lookup(ctx, host)
	if err != nil {
		return nil, err
	}
	var lastErr error
	for _, a := range addrs {
		conn, err := d.dialer.DialContext(ctx, network, net.JoinHostPort(a, port))
		if err == nil {
			return conn, nil
		}
		lastErr = err
	}
	d.cache.invalidate(host)
	return nil, lastErr
}
