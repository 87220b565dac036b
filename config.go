package idxtool

import (
	"errors"
	"os"

	"github.com/bodgit/idxtool/raster"
	"gopkg.in/yaml.v3"
)

// Config holds every setting of an export session. A zero Rows, Cols or
// Magic disables the corresponding header check.
type Config struct {
	Input   string        `yaml:"input"`
	Output  string        `yaml:"output"`
	Count   int           `yaml:"count"`
	Rows    uint32        `yaml:"rows"`
	Cols    uint32        `yaml:"cols"`
	Magic   uint32        `yaml:"magic"`
	Format  raster.Format `yaml:"format"`
	Quality int           `yaml:"quality"`
	Colors  int           `yaml:"colors"`
	Catalog string        `yaml:"catalog"`
}

// Defaults match exporting calibration images from the MNIST training set
const (
	DefaultInput  = "train-images-idx3-ubyte"
	DefaultOutput = "calib"
	DefaultCount  = 200
	DefaultRows   = 28
	DefaultCols   = 28
)

// DefaultConfig returns the configuration used when nothing else is given
func DefaultConfig() Config {
	return Config{
		Input:   DefaultInput,
		Output:  DefaultOutput,
		Count:   DefaultCount,
		Rows:    DefaultRows,
		Cols:    DefaultCols,
		Format:  raster.JPEG,
		Quality: raster.DefaultQuality,
		Colors:  raster.DefaultColors,
	}
}

// LoadConfig reads the YAML file and applies it over DefaultConfig. Keys
// missing from the file keep their default.
func LoadConfig(file string) (Config, error) {
	cfg := DefaultConfig()

	b, err := os.ReadFile(file)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

// Validate checks the configuration is usable
func (c Config) Validate() error {
	switch {
	case c.Input == "":
		return errors.New("no input file")
	case c.Output == "":
		return errors.New("no output directory")
	case c.Count < 0:
		return errors.New("negative sample count")
	case c.Quality < 0 || c.Quality > 100:
		return errors.New("quality out of range")
	case c.Colors < 0 || c.Colors > 256:
		return errors.New("colors out of range")
	}
	return nil
}
