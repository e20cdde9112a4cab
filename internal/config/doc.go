// Package config loads relay configuration from YAML with environment
// variable expansion, default values and validation.
package config
