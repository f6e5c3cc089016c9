package config

import (
	"testing"

	"github.com/spf13/viper"
)

func TestValidateDefaults(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}

	if c.SavePath != DefaultSavePath {
		t.Errorf("save path = %q", c.SavePath)
	}
	if c.MaxSizeMB != DefaultMaxSizeMB {
		t.Errorf("max size = %d", c.MaxSizeMB)
	}
	if c.Buffer != DefaultBuffer || c.Format != DefaultFormat {
		t.Errorf("buffer=%q format=%q", c.Buffer, c.Format)
	}
}

func TestValidateRejectsBadBuffer(t *testing.T) {
	c := Config{Buffer: "radio"}
	if err := c.Validate(); err == nil {
		t.Error("expected error for unknown buffer")
	}
}

func TestValidateRejectsBadLevel(t *testing.T) {
	c := Config{FilterLevel: "X"}
	if err := c.Validate(); err == nil {
		t.Error("expected error for unknown level letter")
	}
}

func TestValidateCompressNeedsSave(t *testing.T) {
	c := Config{Compress: true}
	if err := c.Validate(); err == nil {
		t.Error("compress without save must be rejected")
	}
}

func TestFromViperNormalizesLevel(t *testing.T) {
	v := viper.New()
	v.Set("filter", " e ")
	v.Set("max-size", 10)

	c := FromViper(v)
	if c.FilterLevel != "E" {
		t.Errorf("level not normalized: %q", c.FilterLevel)
	}
	if c.MaxSizeMB != 10 {
		t.Errorf("max size = %d", c.MaxSizeMB)
	}
}

func TestMaxSizeBytes(t *testing.T) {
	c := Config{MaxSizeMB: 2}
	if got := c.MaxSizeBytes(); got != 2*1024*1024 {
		t.Errorf("got %d", got)
	}
}
