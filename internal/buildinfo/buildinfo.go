// Package buildinfo holds build-time metadata, kept apart from user configuration.
package buildinfo

import "runtime/debug"

// UnknownValue is reported for metadata that was not injected at build time.
const UnknownValue = "unknown"

// Context carries the version and build date injected with -ldflags.
type Context struct {
	version   string
	buildDate string
}

// NewContext creates build metadata. An empty version falls back to the module
// version recorded by the Go toolchain, when there is one.
func NewContext(version, buildDate string) *Context {
	if version == "" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
			version = info.Main.Version
		}
	}
	return &Context{version: version, buildDate: buildDate}
}

// Version returns the build version string.
func (c *Context) Version() string {
	if c == nil || c.version == "" {
		return UnknownValue
	}
	return c.version
}

// BuildDate returns the build date string.
func (c *Context) BuildDate() string {
	if c == nil || c.buildDate == "" {
		return UnknownValue
	}
	return c.buildDate
}

// String renders the metadata for version output.
func (c *Context) String() string {
	return "birdview " + c.Version() + " (built " + c.BuildDate() + ")"
}
