// Package hcl loads device descriptions written in HCL.
//
// A description is one or more .hcl files holding at most one information,
// network, wiring and build block between them. Ports are written as
// ["con1", 3] tuples. The loaded Device carries the components and the
// builder options needed to generate a starting configuration.
package hcl
