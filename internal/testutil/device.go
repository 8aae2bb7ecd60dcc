package testutil

import (
	"github.com/vk/squidquam/internal/information"
	"github.com/vk/squidquam/internal/network"
	"github.com/vk/squidquam/internal/quam"
	"github.com/vk/squidquam/internal/wiring"
)

// SampleWiring is a two-qubit, single feed line wiring on con1. Qubit q1
// has a flux line.
func SampleWiring() *wiring.OPXWiring {
	w := wiring.NewOPXWiring()
	w.FeedLines.Set("feedline", &wiring.FeedLineWiring{
		OutputI: wiring.NewPort("con1", 1), OutputQ: wiring.NewPort("con1", 2),
		InputI: wiring.NewPort("con1", 1), InputQ: wiring.NewPort("con1", 2),
	})
	w.DriveLines.Set("q1", &wiring.IQChannelWiring{PortI: wiring.NewPort("con1", 3), PortQ: wiring.NewPort("con1", 4)})
	w.DriveLines.Set("q2", &wiring.IQChannelWiring{PortI: wiring.NewPort("con1", 5), PortQ: wiring.NewPort("con1", 6)})
	w.FluxLines.Set("q1", &wiring.SingleChannelWiring{Port: wiring.NewPort("con1", 7)})
	quam.Adopt(w)
	return w
}

// SampleNetwork has one Octave, octave1.
func SampleNetwork() *network.OPXNetwork {
	n := network.NewOPXNetwork()
	n.Host = "192.168.88.10"
	n.ClusterName = "Cluster_1"
	o := network.NewOctaveNetwork()
	o.OctaveHost = "192.168.88.11"
	o.Controller = "con1"
	n.OctaveNetworks.Set("octave1", o)
	quam.Adopt(n)
	return n
}

// SampleInformation saves to statePath and keeps its calibration database
// next to it, so nothing probes the lab network drive.
func SampleInformation(statePath string) *information.Information {
	info := information.New()
	info.UserName = "Ada"
	info.DeviceName = "D7"
	info.FridgeName = "Bluefors"
	info.ProjectName = "transmons"
	info.StatePath = statePath
	info.DataPath = quam.Lit(statePath)
	info.CalibrationDBPath = quam.Lit(statePath + "/calibration_db")
	return info
}
