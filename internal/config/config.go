// Package config loads server settings from an optional YAML file.
//
// Every field has a default, so an empty or missing file yields a working
// configuration:
//
//	log_level: info
//	temp_dir: ""            # os.TempDir()
//	defaults:
//	  quality: medium       # high, medium or low
//	  image_format: jpg     # jpg or png
//	  output_dir: ""        # a fresh temp directory per call
//	images:
//	  background: "#ffffff" # fill for transparent pixels in JPEG output
//	  ocr_language: eng
//	  tessdata_prefix: ""
package config

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/bgyooPtr/parse-paper-mcp/internal/imaging"
	"github.com/bgyooPtr/parse-paper-mcp/internal/ocr"
)

// Config holds the server settings.
type Config struct {
	LogLevel string   `yaml:"log_level"`
	TempDir  string   `yaml:"temp_dir"`
	Defaults Defaults `yaml:"defaults"`
	Images   Images   `yaml:"images"`

	quality    imaging.Quality
	format     imaging.Format
	background color.Color
	level      logrus.Level
}

// Defaults are applied to tool arguments the client leaves out.
type Defaults struct {
	Quality     string `yaml:"quality"`
	ImageFormat string `yaml:"image_format"`
	OutputDir   string `yaml:"output_dir"`
}

// Images configures image normalization and OCR.
type Images struct {
	Background     string `yaml:"background"`
	OCRLanguage    string `yaml:"ocr_language"`
	TessdataPrefix string `yaml:"tessdata_prefix"`
}

// Default returns the built-in configuration, already validated.
func Default() *Config {
	c := &Config{
		LogLevel: "info",
		Defaults: Defaults{
			Quality:     string(imaging.QualityMedium),
			ImageFormat: string(imaging.FormatJPG),
		},
		Images: Images{
			Background:  "#ffffff",
			OCRLanguage: ocr.DefaultLanguage,
		},
	}
	if err := c.Validate(); err != nil {
		panic(err)
	}
	return c
}

// Load reads the YAML file at path over the defaults and validates the
// result. An empty path returns Default().
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: config file %s", imaging.ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("%w: invalid config file %s: %v", imaging.ErrConfiguration, path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks every field and caches the parsed values. It must be
// called again after fields are changed directly.
func (c *Config) Validate() error {
	q, err := imaging.ParseQuality(c.Defaults.Quality)
	if err != nil {
		return fmt.Errorf("defaults.quality: %w", err)
	}
	f, err := imaging.ParseFormat(c.Defaults.ImageFormat)
	if err != nil {
		return fmt.Errorf("defaults.image_format: %w", err)
	}

	bg := color.Color(color.White)
	if s := strings.TrimSpace(c.Images.Background); s != "" {
		hex, err := colorful.Hex(s)
		if err != nil {
			return fmt.Errorf("%w: images.background %q: %v", imaging.ErrConfiguration, s, err)
		}
		bg = hex
	}

	level := logrus.InfoLevel
	if s := strings.TrimSpace(c.LogLevel); s != "" {
		level, err = logrus.ParseLevel(s)
		if err != nil {
			return fmt.Errorf("%w: log_level: %v", imaging.ErrConfiguration, err)
		}
	}

	if c.TempDir != "" {
		st, err := os.Stat(c.TempDir)
		if err != nil || !st.IsDir() {
			return fmt.Errorf("%w: temp_dir %s is not a directory", imaging.ErrConfiguration, c.TempDir)
		}
	}

	c.quality, c.format, c.background, c.level = q, f, bg, level
	return nil
}

// Quality returns the default quality preset.
func (c *Config) Quality() imaging.Quality { return c.quality }

// Format returns the default output format.
func (c *Config) Format() imaging.Format { return c.format }

// Level returns the parsed log level.
func (c *Config) Level() logrus.Level { return c.level }

// Normalizer returns an image normalizer using the configured background.
func (c *Config) Normalizer() *imaging.Normalizer {
	return &imaging.Normalizer{Background: c.background}
}

// OCR returns recognition options carrying the configured language and
// tessdata location.
func (c *Config) OCR() ocr.Options {
	return ocr.Options{
		Language:       c.Images.OCRLanguage,
		TessdataPrefix: c.Images.TessdataPrefix,
	}
}

// NewLogger returns a text logger at the configured level writing to w.
// The server passes stderr; stdout carries the protocol.
func (c *Config) NewLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(c.level)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		DisableColors:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return l
}
