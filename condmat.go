// Package condmat collects condensed-matter model solvers: the Bistritzer-MacDonald continuum model of twisted bilayer graphene,
// exact diagonalization of the 1D Hubbard model, and a multi-orbital tight-binding model of FeSe.
//
// The subpackages share the error kinds defined here.
// Errors returned by the solvers wrap one of them, and callers distinguish the kinds with errors.Is.
package condmat

import (
	"github.com/pkg/errors"
)

var (
	// ErrInvalidParameter is an out-of-domain physical parameter, such as a twist angle below the continuum model threshold.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrNumerical is a matrix that fails the Hermiticity check, or a diagonalization that does not converge.
	ErrNumerical = errors.New("numerical error")
	// ErrResourceLimit is a problem size that exceeds the tractable basis.
	ErrResourceLimit = errors.New("resource limit exceeded")
	// ErrConfiguration is a malformed or incomplete parameter file.
	ErrConfiguration = errors.New("configuration error")
)
