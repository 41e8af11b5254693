// Package config holds the scanner configuration: defaults, CLI-populated
// settings, validation, and the optional YAML configuration file carrying
// AI provider credentials and a scan profile.
package config
