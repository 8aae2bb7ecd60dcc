// internal/refpath/doc.go

/*
Package refpath provides a structured representation of the reference
strings used to link fields across the component tree.

A reference starts with the `#` sentinel and is either absolute or relative:

	#/qubits/q1/xy          absolute, walked from the root
	#./inferred_sigma       relative to the component owning the field
	#../../xy               walk up two parents, then down into `xy`

This package only parses and formats references. Resolving them against a
live tree is the job of package quam.
*/
package refpath
