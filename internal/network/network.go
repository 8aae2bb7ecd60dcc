// Package network holds how the control hardware is reached over the lab
// network.
package network

import (
	"fmt"

	"github.com/vk/squidquam/internal/quam"
)

// DefaultOctavePort is the port an Octave listens on unless told otherwise.
const DefaultOctavePort = 80

func init() {
	quam.Register("network.OctaveNetwork", func() quam.Component { return NewOctaveNetwork() })
	quam.Register("network.OPXNetwork", func() quam.Component { return NewOPXNetwork() })
}

// OctaveNetwork is the address of one Octave and the controller it is
// attached to.
type OctaveNetwork struct {
	quam.Base
	OctaveHost string `json:"octave_host"`
	OctavePort int    `json:"octave_port"`
	Controller string `json:"controller"`
}

func NewOctaveNetwork() *OctaveNetwork {
	return &OctaveNetwork{OctavePort: DefaultOctavePort}
}

// OPXNetwork is the address of the cluster and its Octaves.
type OPXNetwork struct {
	quam.Base
	Host           string                     `json:"host"`
	ClusterName    string                     `json:"cluster_name"`
	OctaveNetworks *quam.Dict[*OctaveNetwork] `json:"octave_networks"`
}

func NewOPXNetwork() *OPXNetwork {
	return &OPXNetwork{OctaveNetworks: quam.NewDict[*OctaveNetwork]()}
}

// Octave returns the network entry of the named Octave.
func (n *OPXNetwork) Octave(name string) (*OctaveNetwork, error) {
	if !n.OctaveNetworks.Has(name) {
		return nil, fmt.Errorf("network: no octave named %q (have %v)", name, n.OctaveNetworks.Keys())
	}
	return n.OctaveNetworks.Get(name)
}
