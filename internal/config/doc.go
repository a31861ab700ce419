// Package config loads dlpscan configuration from local and global YAML files
// with precedence rules, and resolves it together with the environment into
// the explicit Settings the scanner factory consumes.
package config
