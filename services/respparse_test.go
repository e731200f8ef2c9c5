package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONStrict(t *testing.T) {
	payload, ok := ExtractJSON(`{"subcategory":"Vases"}`)
	require.True(t, ok)
	assert.JSONEq(t, `{"subcategory":"Vases"}`, payload)
}

func TestExtractJSONFenced(t *testing.T) {
	payload, ok := ExtractJSON("```json\n[\"a\",\"b\"]\n```")
	require.True(t, ok)
	assert.Equal(t, `["a","b"]`, payload)

	payload, ok = ExtractJSON("Sure! Here you go:\n```\n{\"x\":1}\n```\nHope that helps.")
	require.True(t, ok)
	assert.Equal(t, `{"x":1}`, payload)
}

func TestExtractJSONBareSpan(t *testing.T) {
	payload, ok := ExtractJSON(`The result is {"tags":["cat"]} as requested.`)
	require.True(t, ok)
	assert.JSONEq(t, `{"tags":["cat"]}`, payload)
}

func TestExtractJSONNothingThere(t *testing.T) {
	for _, in := range []string{"", "plain prose with no payload", "   "} {
		_, ok := ExtractJSON(in)
		assert.False(t, ok, "input %q", in)
	}
}

func TestParseTagListJSON(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, ParseTagList("```json\n[\"a\",\"b\"]\n```"))
	assert.Equal(t, []string{"vase", "ceramic"}, ParseTagList(`["vase"," ceramic "]`))
}

func TestParseTagListCommaFallback(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, ParseTagList("a, b, c"))
	assert.Equal(t, []string{"dragon", "fantasy"}, ParseTagList("- dragon\n- fantasy"))
}

func TestParseTagListUnusable(t *testing.T) {
	assert.Empty(t, ParseTagList(""))
	assert.Empty(t, ParseTagList("   \n  "))
}

func TestDecodeObject(t *testing.T) {
	var out struct {
		Subcategory string `json:"subcategory"`
	}
	ok := DecodeObject("```json\n{\"subcategory\":\"Drones\"}\n```", &out)
	require.True(t, ok)
	assert.Equal(t, "Drones", out.Subcategory)

	assert.False(t, DecodeObject("no json here", &out))
}
