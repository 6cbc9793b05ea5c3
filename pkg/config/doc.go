// Package config resolves where pipectl connects and how it logs.
//
// Values come from command line flags, PIPECTL_* environment variables
// (optionally loaded from a .env file), a named profile in
// ~/.config/pipectl/config.yaml, and built-in defaults, in that order.
package config
