package cci

import (
	"github.com/rs/zerolog"

	"github.com/eunmann/cci-extract/pkg/fileutil"
	"github.com/eunmann/cci-extract/pkg/format"
)

// Resolver expands a container path into its ordered slice files.
type Resolver func(path string) ([]string, error)

// Option configures Open.
type Option func(*config)

type config struct {
	log     zerolog.Logger
	open    format.Opener
	resolve Resolver
}

func defaultConfig() config {
	return config{
		log:     zerolog.Nop(),
		open:    format.OpenFile,
		resolve: fileutil.ResolveSlices,
	}
}

// WithLogger sets the logger used for slice loading and read diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(c *config) { c.log = log }
}

// WithMmap serves slices from read-only memory mappings instead of file reads.
func WithMmap(enabled bool) Option {
	return func(c *config) {
		if enabled {
			c.open = format.OpenMmapFile
		} else {
			c.open = format.OpenFile
		}
	}
}

// WithOpener overrides how slice files are opened.
func WithOpener(open format.Opener) Option {
	return func(c *config) { c.open = open }
}

// WithResolver overrides how a path is expanded into slice files.
func WithResolver(resolve Resolver) Option {
	return func(c *config) { c.resolve = resolve }
}

// WithSlices opens exactly the given slice files, in order.
func WithSlices(paths ...string) Option {
	return WithResolver(func(string) ([]string, error) { return paths, nil })
}
