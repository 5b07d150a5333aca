// Package internaldefs holds the stable metric name definitions shared
// by the exporter implementations, so the Prometheus and OTel views of
// the same counter always carry the same name.
package internaldefs
