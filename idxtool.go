/*
Package idxtool is a library for exporting samples from IDX image datasets,
such as MNIST, as individual image files.
*/
package idxtool

import (
	"fmt"
	"io"
	"log"

	"github.com/bodgit/idxtool/catalog"
)

// Exporter runs export sessions for a single configuration
type Exporter struct {
	config  Config
	catalog *catalog.Catalog
	out     io.Writer
	logger  *log.Logger
}

// New returns an Exporter for config. Progress messages meant for the user
// are written to out while diagnostics go to logger. If config names a
// catalog it is opened here and must be released with Close.
func New(config Config, out io.Writer, logger *log.Logger) (*Exporter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	e := &Exporter{
		config: config,
		out:    out,
		logger: logger,
	}

	if config.Catalog != "" {
		c, err := catalog.Open(config.Catalog)
		if err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
		e.catalog = c
	}

	return e, nil
}

// Close releases the catalog, if any
func (e *Exporter) Close() error {
	if e.catalog != nil {
		return e.catalog.Close()
	}
	return nil
}
