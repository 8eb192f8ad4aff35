// Package connectors holds the sources batches are read from.
// The filesystem connector loads files and directories given on the
// command line and watches an inbox directory for new batch folders.
package connectors
