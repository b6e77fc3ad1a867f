package httpclient

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDNSCache_CachesLocalhost(t *testing.T) {
	t.Parallel()

	c := newDNSCache(time.Minute)
	addrs, err := c.lookup(context.Background(), "localhost")
	require.NoError(t, err)
	require.NotEmpty(t, addrs)

	c.mu.Lock()
	_, cached := c.entries["localhost"]
	c.mu.Unlock()
	assert.True(t, cached)

	c.invalidate("localhost")
	c.mu.Lock()
	_, cached = c.entries["localhost"]
	c.mu.Unlock()
	assert.False(t, cached)
}

func TestDNSCache_ExpiredEntryIsRefreshed(t *testing.T) {
	t.Parallel()

	c := newDNSCache(time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }
	c.entries["localhost"] = dnsEntry{addrs: []string{"203.0.113.1"}, expires: now.Add(-time.Second)}

	addrs, err := c.lookup(context.Background(), "localhost")
	require.NoError(t, err)
	assert.NotContains(t, addrs, "203.0.113.1")
}

func TestCachingDialer_DialsIPDirectly(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		if c, err := ln.Accept(); err == nil {
			c.Close()
		}
	}()

	d := newCachingDialer(newDNSCache(time.Minute), time.Second)
	conn, err := d.DialContext(context.Background(), "tcp", ln.Addr().String())
	require.NoError(t, err)
	conn.Close()

	d.cache.mu.Lock()
	assert.Empty(t, d.cache.entries)
	d.cache.mu.Unlock()
}
