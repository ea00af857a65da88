// ABOUTME: Package documentation for configuration
// ABOUTME: Describes the YAML format and environment expansion

// Package config loads the lodgekeep YAML configuration.
//
// Values in the form ${VAR_NAME} are expanded from the environment
// before parsing, so secrets stay out of the file. Missing optional
// fields fall back to platform defaults; required fields (database
// path, JWT secret) fail validation with a descriptive error.
package config
