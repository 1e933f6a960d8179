package server

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
	"github.com/janelia-flyem/segvol/datatype/sparsevolume"
	"github.com/janelia-flyem/segvol/segvol"
	"github.com/janelia-flyem/segvol/storage"
)

const (
	// DefaultEngine is the storage engine used when the configuration names none.
	DefaultEngine = "filestore"
)

var (
	// the parsed TOML configuration data
	tc tomlConfig

	// the TOML config file location
	tcLocation string
)

type tomlConfig struct {
	Logging  segvol.LogConfig
	Store    storeConfig
	Volume   volumeConfig
	Snapshot snapshotConfig
}

type storeConfig map[string]interface{}

type volumeConfig struct {
	BlockSize  int32 `toml:"block_size"`
	Background uint64
}

type snapshotConfig struct {
	Compression string
	Checksum    *bool
	Workers     int
}

// convertToAbsolute returns path unchanged if absolute, else joined to dir.
func convertToAbsolute(path, dir string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}
	return filepath.Abs(filepath.Join(dir, path))
}

// Some settings in the TOML can be given as relative paths.
// This function converts them in-place to absolute paths,
// assuming the given paths were relative to the TOML file's own directory.
func (c *tomlConfig) convertPathsToAbsolute(configPath string) error {
	var err error

	configDir := filepath.Dir(configPath)

	// [logging].logfile
	if c.Logging.Logfile != "" {
		c.Logging.Logfile, err = convertToAbsolute(c.Logging.Logfile, configDir)
		if err != nil {
			return fmt.Errorf("error converting logfile setting to absolute path")
		}
	}

	// [store].path
	p, ok := c.Store["path"]
	if !ok {
		return nil
	}
	path, ok := p.(string)
	if !ok {
		return fmt.Errorf("don't understand path setting for store: %v", p)
	}
	absPath, err := convertToAbsolute(path, configDir)
	if err != nil {
		return fmt.Errorf("error converting store.path to absolute path: %q", path)
	}
	c.Store["path"] = absPath
	return nil
}

// LoadConfig loads segvol configuration from a TOML file, replacing any previously
// loaded configuration.
func LoadConfig(filename string) error {
	if filename == "" {
		return fmt.Errorf("no TOML configuration file provided")
	}
	var c tomlConfig
	if _, err := toml.DecodeFile(filename, &c); err != nil {
		return fmt.Errorf("could not decode TOML config: %v", err)
	}
	if err := c.convertPathsToAbsolute(filename); err != nil {
		return fmt.Errorf("could not convert relative paths to absolute paths in TOML config: %v", err)
	}
	if _, err := segvol.ParseCompression(c.Snapshot.Compression); err != nil {
		return fmt.Errorf("bad [snapshot] setting: %v", err)
	}
	if c.Volume.BlockSize < 0 {
		return fmt.Errorf("bad [volume] block_size %d", c.Volume.BlockSize)
	}
	tc = c
	tcLocation = filename
	segvol.Infof("tomlConfig: %v\n", tc)
	return nil
}

func ConfigLocation() string {
	return tcLocation
}

// LogConfig returns the [logging] settings.
func LogConfig() *segvol.LogConfig {
	return &tc.Logging
}

// StoreConfig returns the [store] settings.
func StoreConfig() (storage.StoreConfig, error) {
	engine := DefaultEngine
	config := make(storage.Config, len(tc.Store))
	for k, v := range tc.Store {
		if k != "engine" {
			config[k] = v
			continue
		}
		name, ok := v.(string)
		if !ok {
			return storage.StoreConfig{}, fmt.Errorf("store engine must be a string (%v)", v)
		}
		engine = name
	}
	return storage.StoreConfig{Config: config, Engine: engine}, nil
}

// OpenStore opens the configured store, returning true if it was newly created.
func OpenStore() (storage.Store, bool, error) {
	config, err := StoreConfig()
	if err != nil {
		return nil, false, err
	}
	store, created, err := storage.Open(config)
	if err != nil {
		return nil, false, err
	}
	segvol.Infof("Opened %s store %s (created %t)\n", config.Engine, store, created)
	return store, created, nil
}

// Workers returns the number of concurrent block encodes and writes.
func Workers() int {
	if tc.Snapshot.Workers > 0 {
		return tc.Snapshot.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// VolumeOptions returns the sparse volume options given by the [volume] and [snapshot]
// settings.
func VolumeOptions() []sparsevolume.Option {
	compression, err := segvol.ParseCompression(tc.Snapshot.Compression)
	if err != nil {
		segvol.Warningf("Using default compression: %v\n", err)
	}
	opts := []sparsevolume.Option{
		sparsevolume.WithBackground(tc.Volume.Background),
		sparsevolume.WithCompression(compression),
		sparsevolume.WithWorkers(Workers()),
	}
	if tc.Volume.BlockSize > 0 {
		opts = append(opts, sparsevolume.WithBlockSize(tc.Volume.BlockSize))
	}
	if tc.Snapshot.Checksum != nil {
		opts = append(opts, sparsevolume.WithChecksum(*tc.Snapshot.Checksum))
	}
	return opts
}

// Shutdown closes the log file, if any.
func Shutdown() {
	segvol.Infof("Shutting down segvol...\n")
	segvol.Shutdown()
}
