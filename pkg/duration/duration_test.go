package duration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProbeTimeoutShorterThanFetch(t *testing.T) {
	assert.Less(t, ProbeTimeout, FetchTimeout)
	assert.Equal(t, 10*time.Second, FetchTimeout)
	assert.Equal(t, 5*time.Second, ProbeTimeout)
}

func TestServerReadsBoundHeaders(t *testing.T) {
	assert.LessOrEqual(t, ServerReadHeader, ServerRead)
	assert.Less(t, ExpectContinue, DialTimeout)
}

func TestTransportTimeoutsPositive(t *testing.T) {
	for name, d := range map[string]time.Duration{
		"DialTimeout":      DialTimeout,
		"TLSHandshake":     TLSHandshake,
		"KeepAlive":        KeepAlive,
		"IdleConn":         IdleConn,
		"ShutdownGrace":    ShutdownGrace,
		"TracerBatch":      TracerBatch,
		"RenderTimeout":    RenderTimeout,
		"ExpectContinue":   ExpectContinue,
		"DNSCacheTTL":      DNSCacheTTL,
		"ServerRead":       ServerRead,
		"ServerIdle":       ServerIdle,
		"ServerReadHeader": ServerReadHeader,
		"MaxDeadline":      MaxDeadline,
	} {
		assert.Positive(t, int64(d), name)
	}
}
