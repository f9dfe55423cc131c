package ai

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON_Direct(t *testing.T) {
	obj, err := ExtractJSON(`{"brandName": "Acme", "score": 42}`)
	require.NoError(t, err)
	assert.Equal(t, "Acme", obj["brandName"])
	assert.Equal(t, float64(42), obj["score"])
}

func TestExtractJSON_MarkdownFence(t *testing.T) {
	raw := "Here is the analysis:\n```json\n{\"pillars\": [\"speed\", \"trust\"]}\n```\nHope that helps."
	obj, err := ExtractJSON(raw)
	require.NoError(t, err)
	pillars, ok := obj["pillars"].([]interface{})
	require.True(t, ok)
	assert.Len(t, pillars, 2)
}

func TestExtractJSON_LeadingProse(t *testing.T) {
	obj, err := ExtractJSON(`Sure! {"ok": true}`)
	require.NoError(t, err)
	assert.Equal(t, true, obj["ok"])
}

func TestExtractJSON_NestedBraces(t *testing.T) {
	obj, err := ExtractJSON(`{"outer": {"inner": {"deep": 1}}}`)
	require.NoError(t, err)
	outer, ok := obj["outer"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, outer, "inner")
}

func TestExtractJSON_NoObject(t *testing.T) {
	_, err := ExtractJSON("I could not produce a structured answer.")
	assert.Error(t, err)
}

func TestExtractJSON_Empty(t *testing.T) {
	_, err := ExtractJSON("")
	assert.Error(t, err)
}

func TestIsRateLimited(t *testing.T) {
	cases := []struct {
		err     error
		limited bool
	}{
		{errors.New("openai API error (status 429): too many requests"), true},
		{errors.New("insufficient quota for this month"), true},
		{errors.New("rate limit exceeded"), true},
		{errors.New("RESOURCE_EXHAUSTED: rate_limit"), true},
		{errors.New("connection refused"), false},
		{nil, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.limited, IsRateLimited(tc.err), "err=%v", tc.err)
	}
}
