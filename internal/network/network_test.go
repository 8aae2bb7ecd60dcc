package network

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/squidquam/internal/quam"
)

func TestDefaults(t *testing.T) {
	o := NewOctaveNetwork()
	assert.Equal(t, "", o.OctaveHost)
	assert.Equal(t, 80, o.OctavePort)
	assert.Equal(t, "", o.Controller)

	n := NewOPXNetwork()
	assert.Equal(t, "", n.Host)
	assert.Equal(t, "", n.ClusterName)
	assert.Equal(t, 0, n.OctaveNetworks.Len())
}

func TestOctaveLookupAndReference(t *testing.T) {
	n := NewOPXNetwork()
	n.Host = "10.0.0.5"
	o := NewOctaveNetwork()
	o.OctaveHost = "10.0.0.6"
	o.Controller = "con1"
	n.OctaveNetworks.Set("octave1", o)
	quam.Adopt(n)

	got, err := n.Octave("octave1")
	require.NoError(t, err)
	assert.Same(t, o, got)

	_, err = n.Octave("octave2")
	require.Error(t, err)

	host, err := quam.Resolve(o, "#/octave_networks/octave1/octave_host")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.6", host)
}

func TestJSON_KeepsDefaultsForMissingFields(t *testing.T) {
	n := NewOPXNetwork()
	require.NoError(t, json.Unmarshal([]byte(`{"host":"h","octave_networks":{"octave1":{"octave_host":"o"}}}`), n))
	quam.Adopt(n)

	o, err := n.Octave("octave1")
	require.NoError(t, err)
	assert.Equal(t, 80, o.OctavePort)
	assert.Equal(t, "o", o.OctaveHost)
}
