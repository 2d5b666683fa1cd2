// Package config loads, normalizes, and validates biliwalle configuration data.
//
// A configuration document is YAML (the default) or TOML, chosen by file
// extension, and shares one schema across the weave, clips, and movie
// workflows. Load supplies repository defaults, expands user paths (including
// tilde shortcuts), lower-cases enum values, and rejects negative paddings or
// unknown policy names with services.ErrInvalidConfiguration. ValidateFor adds
// the per-workflow checks that input directories and the protocol table exist.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, a typed padding policy, and clear validation errors.
package config
