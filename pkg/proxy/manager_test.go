package proxy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManager_RotatesProxies(t *testing.T) {
	m := NewManager("http://p1:8000, http://p2:8000,,")

	assert.Equal(t, "http://p1:8000", m.GetProxy())
	assert.Equal(t, "http://p2:8000", m.GetProxy())
	assert.Equal(t, "http://p1:8000", m.GetProxy())
}

func TestManager_NoProxies(t *testing.T) {
	m := NewManager("")

	assert.Empty(t, m.GetProxy())
	assert.Contains(t, defaultUserAgents, m.GetUserAgent())
}
