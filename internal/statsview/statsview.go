//go:build statsview

package statsview

import (
	"fmt"
	"io"
	"net"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

const chartsPath = "/debug/statsview"

// Launch serves the runtime charts on addr in the background and prints
// their URL to output. It fails if addr cannot be listened on. The
// returned stop shuts the server down.
func Launch(addr string, output io.Writer) (stop func(), err error) {
	if addr == "" {
		return nil, fmt.Errorf("statsview: no address")
	}
	// the view manager listens on its own goroutine and cannot report a
	// busy port, so claim it once here first
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("statsview: %w", err)
	}
	ln.Close()

	viewer.SetConfiguration(viewer.WithAddr(addr))
	mgr := statsview.New()
	go mgr.Start()

	fmt.Fprintf(output, "Runtime charts at http://%s%s\n", addr, chartsPath)
	return mgr.Stop, nil
}

// Available reports whether this binary can serve the charts
func Available() bool {
	return true
}
