// Package config materializes the capture pipeline's configuration
// surface from viper (config file, environment) and CLI flags.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Default values for the persistence surface.
const (
	DefaultSavePath  = "logs"
	DefaultMaxSizeMB = 100
	DefaultBuffer    = "all"
	DefaultFormat    = "threadtime"
)

var validBuffers = map[string]bool{"main": true, "system": true, "crash": true, "all": true}
var validFormats = map[string]bool{
	"brief": true, "process": true, "tag": true,
	"thread": true, "threadtime": true, "raw": true,
}

// Config is everything the capture pipeline consumes.
type Config struct {
	// Filtering (standard mode).
	FilterLevel string
	FilterTag   string

	// Mode.
	Interactive bool

	// Persistence.
	Save      bool
	SavePath  string
	MaxSizeMB int64
	Compress  bool

	// Source construction.
	Buffer string
	Format string
	Since  string
	Clear  bool

	// Optional web dashboard listen address, e.g. ":8080".
	Serve string
}

// FromViper builds a Config from bound flags and file/env settings.
func FromViper(v *viper.Viper) Config {
	return Config{
		FilterLevel: strings.ToUpper(strings.TrimSpace(v.GetString("filter"))),
		FilterTag:   v.GetString("tag"),
		Interactive: v.GetBool("interactive"),
		Save:        v.GetBool("save"),
		SavePath:    v.GetString("save-path"),
		MaxSizeMB:   v.GetInt64("max-size"),
		Compress:    v.GetBool("compress"),
		Buffer:      v.GetString("buffer"),
		Format:      v.GetString("format"),
		Since:       v.GetString("since"),
		Clear:       v.GetBool("clear"),
		Serve:       v.GetString("serve"),
	}
}

// Validate normalizes defaults and rejects values the pipeline cannot
// honor.
func (c *Config) Validate() error {
	if c.SavePath == "" {
		c.SavePath = DefaultSavePath
	}
	if c.MaxSizeMB <= 0 {
		c.MaxSizeMB = DefaultMaxSizeMB
	}
	if c.Buffer == "" {
		c.Buffer = DefaultBuffer
	}
	if c.Format == "" {
		c.Format = DefaultFormat
	}

	if !validBuffers[c.Buffer] {
		return fmt.Errorf("invalid buffer %q (main, system, crash, all)", c.Buffer)
	}
	if !validFormats[c.Format] {
		return fmt.Errorf("invalid format %q (brief, process, tag, thread, threadtime, raw)", c.Format)
	}

	if c.FilterLevel != "" {
		switch c.FilterLevel {
		case "E", "W", "I", "D", "V":
		default:
			return fmt.Errorf("invalid filter level %q (E, W, I, D, V)", c.FilterLevel)
		}
	}

	if c.Compress && !c.Save {
		return fmt.Errorf("--compress requires --save")
	}
	return nil
}

// MaxSizeBytes returns the rotation threshold in bytes.
func (c Config) MaxSizeBytes() int64 {
	return c.MaxSizeMB * 1024 * 1024
}
