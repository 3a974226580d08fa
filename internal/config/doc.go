// Package config loads, normalizes, and validates animexport configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files and honours the ANIMEXPORT_TAG_MODE fallback.
// Soft fields such as image quality, pixel ratio and the requested scale/fps
// samples are clamped the way the exporter always has; hard errors such as an
// unknown tag mode or a custom tag level outside the writable range are
// rejected by Validate.
//
// Exports never read Config directly. They take an ExportParam snapshot so a
// running export sees one immutable set of options.
package config
