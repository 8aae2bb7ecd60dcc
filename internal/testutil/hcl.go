package testutil

// SampleDescription is SampleWiring and SampleNetwork written as HCL device
// description files, with a build block for a 5.1 GHz q1. The information
// block leaves state_path unset.
func SampleDescription() map[string]string {
	return map[string]string{
		"information.hcl": `
information {
  user_name    = "Ada"
  device_name  = "D7"
  fridge_name  = "Bluefors"
  project_name = "transmons"

  data_path           = "/tmp/d7"
  calibration_db_path = "/tmp/d7/calibration_db"
}
`,
		"network.hcl": `
network {
  host         = "192.168.88.10"
  cluster_name = "Cluster_1"

  octave "octave1" {
    host       = "192.168.88.11"
    controller = "con1"
  }
}
`,
		"wiring/lines.hcl": `
wiring {
  feed_line "feedline" {
    output_I = ["con1", 1]
    output_Q = ["con1", 2]
    input_I  = ["con1", 1]
    input_Q  = ["con1", 2]
  }

  drive_line "q1" {
    port_I = ["con1", 3]
    port_Q = ["con1", 4]
  }

  drive_line "q2" {
    port_I = ["con1", 5]
    port_Q = ["con1", 6]
  }

  flux_line "q1" {
    port = ["con1", 7]
  }
}
`,
		"build.hcl": `
build {
  gate_length = 32

  qubit "q1" {
    frequency          = 5.1e9
    drive_lo_frequency = 5e9
  }
}
`,
	}
}
