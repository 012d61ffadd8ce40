// Package register registers all components
package register

import (
	// register components.
	_ "go.viam.com/touchsense/components/input/register"
)
