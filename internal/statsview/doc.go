// Package statsview serves live Go runtime charts (heap, goroutines, GC
// pauses) while a training run is in progress. The server exists only in
// binaries built with the statsview build tag; elsewhere Launch is a no-op
// and Available reports false.
//
// The charts are served at http://<logging.statsview_addr>/debug/statsview
// and pprof at http://<logging.statsview_addr>/debug/pprof/.
package statsview
