package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/ini.v1"

	"github.com/setanarut/stripalpha/utils"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "stripalpha.ini"

type ColorSection struct {
	Background string `json:"background"`
}

type OutputSection struct {
	Subfolder bool   `json:"subfolder"`
	Folder    string `json:"folder"`
	Suffix    string `json:"suffix"`
}

type BatchSection struct {
	Workers     int  `json:"workers"`
	HaltOnError bool `json:"haltOnError"`
}

type LogSection struct {
	Level string `json:"level"`
}

type Config struct {
	Color  ColorSection  `json:"color"`
	Output OutputSection `json:"output"`
	Batch  BatchSection  `json:"batch"`
	Log    LogSection    `json:"log"`
}

func Default() *Config {
	return &Config{
		Color:  ColorSection{Background: "0, 0, 0"},
		Output: OutputSection{Subfolder: true, Folder: "processed", Suffix: "_processed"},
		Batch:  BatchSection{Workers: 1},
		Log:    LogSection{Level: "info"},
	}
}

// Load reads path on top of the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	config := Default()
	// "#rrggbb" values must not be read as comments.
	iniData, err := ini.LoadSources(ini.LoadOptions{SpaceBeforeInlineComment: true}, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return config, nil
		}
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	colorSection := iniData.Section("color")
	outputSection := iniData.Section("output")
	batchSection := iniData.Section("batch")
	logSection := iniData.Section("log")

	config.Color.Background = colorSection.Key("background").MustString(config.Color.Background)
	config.Output = OutputSection{
		Subfolder: outputSection.Key("subfolder").MustBool(config.Output.Subfolder),
		Folder:    outputSection.Key("folder").MustString(config.Output.Folder),
		Suffix:    outputSection.Key("suffix").MustString(config.Output.Suffix),
	}
	config.Batch = BatchSection{
		Workers:     batchSection.Key("workers").MustInt(config.Batch.Workers),
		HaltOnError: batchSection.Key("halt_on_error").MustBool(config.Batch.HaltOnError),
	}
	config.Log.Level = logSection.Key("level").MustString(config.Log.Level)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return config, nil
}

func (c *Config) Validate() error {
	if _, err := utils.ParseBackground(c.Color.Background); err != nil {
		return fmt.Errorf("color.background: %w", err)
	}
	if c.Output.Folder == "" {
		return errors.New("output.folder must not be empty")
	}
	if !c.Output.Subfolder && c.Output.Suffix == "" {
		return errors.New("output.suffix must not be empty without a subfolder")
	}
	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers must be at least 1, got %d", c.Batch.Workers)
	}
	return nil
}

// Save writes c to path as ini.
func (c *Config) Save(path string) error {
	iniData := ini.Empty()
	sections := []struct {
		name string
		keys [][2]string
	}{
		{"color", [][2]string{{"background", c.Color.Background}}},
		{"output", [][2]string{
			{"subfolder", fmt.Sprint(c.Output.Subfolder)},
			{"folder", c.Output.Folder},
			{"suffix", c.Output.Suffix},
		}},
		{"batch", [][2]string{
			{"workers", fmt.Sprint(c.Batch.Workers)},
			{"halt_on_error", fmt.Sprint(c.Batch.HaltOnError)},
		}},
		{"log", [][2]string{{"level", c.Log.Level}}},
	}
	for _, s := range sections {
		section, err := iniData.NewSection(s.name)
		if err != nil {
			return err
		}
		for _, kv := range s.keys {
			if _, err := section.NewKey(kv[0], kv[1]); err != nil {
				return err
			}
		}
	}
	return iniData.SaveTo(path)
}
