//go:build !statsview

package statsview

import "io"

// Launch does nothing without the statsview build tag
func Launch(_ string, _ io.Writer) (stop func(), err error) {
	return func() {}, nil
}

// Available reports whether this binary can serve the charts
func Available() bool {
	return false
}
