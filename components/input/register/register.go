// Package register registers all relevant inputs
package register

import (
	// for inputs.
	_ "go.viam.com/touchsense/components/input/mpr121"
)
