/*
Package server holds the configuration shared by segvol tools: logging, the store
holding segmentations, and the settings used to build and persist sparse volumes.
Configuration is read from a TOML file, e.g.

	[logging]
	logfile = "segvol.log"
	max_log_size = 500 # MB
	max_log_age = 30   # days

	[store]
	engine = "filestore"
	path = "data/segs"

	[volume]
	block_size = 25
	background = 0

	[snapshot]
	compression = "zstd"
	checksum = true
	workers = 4

Relative paths are resolved against the directory holding the TOML file.
*/
package server
