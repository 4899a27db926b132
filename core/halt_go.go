//go:build !tinygo

package core

// haltMachine parks outputs and panics with the fault so host tests can
// recover it.
func haltMachine(err error) {
	if safeStateHandler != nil {
		safeStateHandler()
	}
	panic(err)
}
