package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDomain(t *testing.T) {
	assert.Equal(t, "example.ngrok.io", normalizeDomain("example.ngrok.io"))
	assert.Equal(t, "example.ngrok.io", normalizeDomain("https://example.ngrok.io"))
	assert.Equal(t, "example.ngrok.io", normalizeDomain("wss://example.ngrok.io/"))
	assert.Equal(t, "example.ngrok.io", normalizeDomain(" example.ngrok.io// "))
	assert.Equal(t, "", normalizeDomain(""))
}
