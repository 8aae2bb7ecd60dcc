/*
Package quam is the component tree engine behind the device configuration.

Every node embeds Base and is attached to exactly one parent: a struct
component (through an exported field), a Dict (through a key) or a List
(through an index). Fields whose value should be derived from somewhere else
in the tree hold a Value with a reference string such as `#../../xy` or
`#/wiring/drive_lines/q1/port_I`. References are stored as written and are
only resolved when read, so editing the target is immediately visible to
every field that points at it.

Resolution walks the live parent pointers. For each path segment the
following are consulted, in order: container entries, exported fields by
their json name, and computed properties exposed through Propertier.
Reading an attribute that is already being resolved, directly or through a
property, fails with ErrReferenceCycle.

A string in the reference syntax is always a reference. Setting one as a
literal stores a reference, so a tree reads the same before and after a
save and load.

# Ownership

Containers adopt the components placed in them. Struct fields do not know
their owner until Adopt is called on an ancestor, which every builder and
loader in this module does before handing a tree out.

The engine is single threaded: trees are built, edited and read by one
goroutine at a time.
*/
package quam
