// Package config loads, overlays and validates the store connection
// configuration.
package config
