package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the directory layout for bag processing.
type Paths struct {
	SrcDir string `toml:"src_dir"`
	TmpDir string `toml:"tmp_dir"`
	LogDir string `toml:"log_dir"`
}

// ArchivesSpace contains connection settings for the ArchivesSpace API.
type ArchivesSpace struct {
	BaseURL        string `toml:"baseurl"`
	Username       string `toml:"username"`
	Password       string `toml:"password"`
	Repository     int    `toml:"repository"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Description contains settings for the public description lookup API
// used when recreating manifests without a local bag record.
type Description struct {
	BaseURL        string `toml:"baseurl"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Storage contains settings for the derivative object store.
type Storage struct {
	Region          string `toml:"region"`
	Bucket          string `toml:"bucket"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	Endpoint        string `toml:"endpoint"`
}

// IIIF contains settings for presentation manifest generation.
type IIIF struct {
	ImageURL    string `toml:"image_url"`
	ManifestURL string `toml:"manifest_url"`
	Version     int    `toml:"version"`
}

// Tools contains the external conversion binaries invoked by stages.
type Tools struct {
	TiffCp         string `toml:"tiffcp"`
	OpjCompress    string `toml:"opj_compress"`
	Img2PDF        string `toml:"img2pdf"`
	Ghostscript    string `toml:"ghostscript"`
	OCRmyPDF       string `toml:"ocrmypdf"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Logging contains log output configuration.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the root configuration, constructed once at startup and
// passed to each component's constructor.
type Config struct {
	Paths         Paths         `toml:"paths"`
	ArchivesSpace ArchivesSpace `toml:"archivesspace"`
	Description   Description   `toml:"description"`
	Storage       Storage       `toml:"storage"`
	IIIF          IIIF          `toml:"iiif"`
	Tools         Tools         `toml:"tools"`
	Logging       Logging       `toml:"logging"`
}

// DefaultPath returns the conventional config file location.
func DefaultPath() string {
	return expandPath("~/.config/pictor/config.toml")
}

// Load reads the TOML config at path, applying defaults for unset fields.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg.normalize()
			return &cfg, nil
		}
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	cfg.normalize()
	return &cfg, nil
}

// EnsureDirectories creates the src/tmp/log directories when missing.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.SrcDir, c.Paths.TmpDir, c.Paths.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// WriteSample writes the embedded sample configuration to path.
func WriteSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %q already exists", path)
	}
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}

func (c *Config) normalize() {
	c.Paths.SrcDir = expandPath(c.Paths.SrcDir)
	c.Paths.TmpDir = expandPath(c.Paths.TmpDir)
	c.Paths.LogDir = expandPath(c.Paths.LogDir)
	c.ArchivesSpace.BaseURL = strings.TrimRight(strings.TrimSpace(c.ArchivesSpace.BaseURL), "/")
	c.Description.BaseURL = strings.TrimRight(strings.TrimSpace(c.Description.BaseURL), "/")
	c.IIIF.ImageURL = strings.TrimRight(strings.TrimSpace(c.IIIF.ImageURL), "/")
	c.IIIF.ManifestURL = strings.TrimRight(strings.TrimSpace(c.IIIF.ManifestURL), "/")
}

func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
