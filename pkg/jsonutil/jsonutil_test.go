package jsonutil

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	URL       string   `json:"url"`
	Endpoints []string `json:"endpoints"`
	GraphQL   bool     `json:"graphql_used"`
}

func TestUnmarshal(t *testing.T) {
	var s sample
	require.NoError(t, Unmarshal([]byte(`{"url":"https://a.test","endpoints":["/x"],"graphql_used":true}`), &s))
	assert.Equal(t, "https://a.test", s.URL)
	assert.Equal(t, []string{"/x"}, s.Endpoints)
	assert.True(t, s.GraphQL)

	assert.Error(t, Unmarshal([]byte(`{invalid}`), &s))
}

func TestMarshal_DeterministicMapKeys(t *testing.T) {
	m := map[string]int{"zeta": 1, "alpha": 2, "mid": 3}
	for i := 0; i < 10; i++ {
		out, err := Marshal(m)
		require.NoError(t, err)
		assert.Equal(t, `{"alpha":2,"mid":3,"zeta":1}`, string(out))
	}
}

func TestMarshalIndent(t *testing.T) {
	out, err := MarshalIndent(sample{URL: "u", Endpoints: []string{}}, "", "  ")
	require.NoError(t, err)
	assert.Contains(t, string(out), "\n  \"url\": \"u\"")
	assert.Contains(t, string(out), `"endpoints": []`)
	assert.True(t, Valid(out))
}

func TestValid(t *testing.T) {
	assert.True(t, Valid([]byte(`{"a":1}`)))
	assert.True(t, Valid([]byte(`[]`)))
	assert.False(t, Valid([]byte(`{a:1}`)))
	assert.False(t, Valid(nil))
}

func TestStreamEncoder(t *testing.T) {
	var buf bytes.Buffer
	enc := NewStreamEncoder(&buf)
	require.NoError(t, enc.Encode(map[string]int{"a": 1}))
	require.NoError(t, enc.Encode([]int{1, 2}))
	assert.Equal(t, "{\"a\":1}\n[1,2]\n", buf.String())

	buf.Reset()
	enc.SetIndent("", "\t")
	require.NoError(t, enc.Encode(map[string]int{"a": 1}))
	assert.Equal(t, "{\n\t\"a\": 1\n}\n", buf.String())
}

func TestDecodeReader(t *testing.T) {
	var s sample
	require.NoError(t, DecodeReader(strings.NewReader(`{"url":"x","endpoints":null}`), &s))
	assert.Equal(t, "x", s.URL)
	assert.Nil(t, s.Endpoints)
}
