// Package config loads and merges verdict configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (VERDICT_PROVIDER, VERDICT_MODEL, VERDICT_THRESHOLD, etc.)
//  3. Config file ($XDG_CONFIG_HOME/verdict/config.yaml)
//  4. Built-in defaults
//
// Use [Load] to obtain a merged [Config], [Save] to write one, and
// [SetField] to update a single key by name.
package config
