package main

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/ajanata/simplertc/ds1302"
	"github.com/ajanata/simplertc/ds1302/sim"
	"github.com/ajanata/simplertc/internal/config"
	"github.com/ajanata/simplertc/internal/logger"
	"github.com/ajanata/simplertc/rtctime"
)

// env is what every command runs against: a simulated chip following wall time and a configured driver on its pins.
type env struct {
	cfg  *config.Config
	log  *logger.Logger
	chip *sim.Chip
	dev  *ds1302.Device
}

// loadConfig reads the config file. A missing file is only an error when --config was given explicitly.
func loadConfig(path string, explicit bool) (*config.Config, error) {
	cfg, err := config.ReadFromFile(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		cfg = config.Default()
	} else if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newEnv(explicit bool) (*env, error) {
	cfg, err := loadConfig(configPath, explicit)
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg.Log.Level)

	start, ok, err := cfg.StartTime()
	if err != nil {
		return nil, err
	}
	if !ok {
		start = time.Now()
	}

	chip := sim.NewChip()
	chip.SetDate(rtctime.FromTime(start))
	chip.SetClock(time.Now)

	dev := ds1302.New(chip.Pins())
	if err := dev.Configure(ds1302.Config{Settle: cfg.Chip.Settle.Duration}); err != nil {
		return nil, fmt.Errorf("configuring chip: %w", err)
	}
	log.Debugw("chip ready", "start", start.UTC().Format(time.RFC3339), "settle", cfg.Chip.Settle.Duration)

	return &env{cfg: cfg, log: log, chip: chip, dev: dev}, nil
}

func (e *env) close() {
	_ = e.log.Sync()
}
