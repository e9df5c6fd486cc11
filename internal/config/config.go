// Package config resolves command-line flags, with optional YAML-file
// defaults, into the viewer's runtime configuration.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all runtime configuration.
type Config struct {
	Background  uint16 // 16-bit RGBA (4 bits/channel), 0 disables the background layer
	Display     int
	Layer       int // z-order of the image layer
	XOffset     int
	YOffset     int
	XOffsetSet  bool // false means "center horizontally"
	YOffsetSet  bool
	TimeoutMs   uint32 // 0 = run until stopped
	Interactive bool
	Monitor     bool // poll the image file for changes
	ControlAddr string
	ImagePath   string // "-" means standard input
}

// Defaults is the optional YAML defaults file. Flags given explicitly on the
// command line override it.
type Defaults struct {
	Background  string  `yaml:"background"`
	Display     *int    `yaml:"display"`
	Layer       *int    `yaml:"layer"`
	TimeoutMs   *uint32 `yaml:"timeout_ms"`
	ControlAddr string  `yaml:"control_addr"`
}

// Parse resolves args (without the program name) into a Config.
func Parse(args []string) (*Config, error) {
	fs := flag.NewFlagSet("pixview", flag.ContinueOnError)
	fs.Usage = func() { usage(fs) }

	bg := fs.String("b", "000F", "background color as 16 bit RGBA hex, 0 disables it")
	display := fs.Int("d", 0, "display number")
	layer := fs.Int("l", 1, "layer number (z-order)")
	x := fs.Int("x", 0, "offset in pixels from the left (default: centered)")
	y := fs.Int("y", 0, "offset in pixels from the top (default: centered)")
	timeout := fs.Uint("t", 0, "timeout in ms, 0 runs until stopped")
	noninteractive := fs.Bool("n", false, "disable keyboard interactivity")
	monitor := fs.Bool("m", false, "monitor the image file for changes")
	control := fs.String("r", "", "remote control listen address, empty disables it")
	defaultsPath := fs.String("c", "", "YAML defaults file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return nil, fmt.Errorf("expected exactly one image path, got %d", fs.NArg())
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg := &Config{
		Display:     *display,
		Layer:       *layer,
		XOffset:     *x,
		YOffset:     *y,
		XOffsetSet:  set["x"],
		YOffsetSet:  set["y"],
		TimeoutMs:   uint32(*timeout),
		Interactive: !*noninteractive,
		Monitor:     *monitor,
		ControlAddr: *control,
		ImagePath:   fs.Arg(0),
	}

	background, err := ParseBackground(*bg)
	if err != nil {
		return nil, err
	}
	cfg.Background = background

	if *defaultsPath != "" {
		if err := applyDefaults(cfg, *defaultsPath, set); err != nil {
			return nil, err
		}
	}

	// A stream cannot be re-read, so there is nothing to monitor.
	if cfg.ImagePath == "-" {
		cfg.Monitor = false
	}
	return cfg, nil
}

// ParseBackground parses a 16-bit RGBA hex color such as "000F" or "0x000F".
func ParseBackground(s string) (uint16, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 16)
	if err != nil {
		return 0, fmt.Errorf("background color %q: %w", s, err)
	}
	return uint16(v), nil
}

func applyDefaults(cfg *Config, path string, set map[string]bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("defaults file: %w", err)
	}
	var d Defaults
	if err := yaml.Unmarshal(data, &d); err != nil {
		return fmt.Errorf("defaults file %s: %w", path, err)
	}

	if !set["b"] && d.Background != "" {
		background, err := ParseBackground(d.Background)
		if err != nil {
			return err
		}
		cfg.Background = background
	}
	if !set["d"] && d.Display != nil {
		cfg.Display = *d.Display
	}
	if !set["l"] && d.Layer != nil {
		cfg.Layer = *d.Layer
	}
	if !set["t"] && d.TimeoutMs != nil {
		cfg.TimeoutMs = *d.TimeoutMs
	}
	if !set["r"] && d.ControlAddr != "" {
		cfg.ControlAddr = d.ControlAddr
	}
	return nil
}

func usage(fs *flag.FlagSet) {
	out := fs.Output()
	fmt.Fprintln(out, "Usage: pixview [options] <file.png|->")
	fmt.Fprintln(out, "Pass - to read the image once from standard input (disables reload and monitoring).")
	fs.PrintDefaults()
	fmt.Fprintln(out, "Send SIGHUP to reload the image from its path.")
}
