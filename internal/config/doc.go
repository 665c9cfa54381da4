// Package config loads walletscan configuration from local and global YAML
// files and validates the merged settings. It is internal; CLI code maps
// flags and files into engine configuration.
package config
