// Package config loads and validates pictor's TOML configuration. The
// Config struct is built once at startup and handed to component
// constructors; nothing reads configuration globally.
package config
