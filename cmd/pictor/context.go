package main

import (
	"log/slog"
	"strings"
	"sync"

	"pictor/internal/bags"
	"pictor/internal/config"
	"pictor/internal/logging"
	"pictor/internal/runlock"
	"pictor/internal/services/archivesspace"
	"pictor/internal/services/description"
	"pictor/internal/services/storage"
	"pictor/internal/tools"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.Validate(); err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// pipeline bundles everything a run command needs. The lock is held
// until release is called.
type pipeline struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *bags.Store
	tools  tools.Runner
}

// withPipeline acquires the run lock, opens the store, and hands both to
// fn, releasing them afterwards.
func (c *commandContext) withPipeline(fn func(*pipeline) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}

	lock, err := runlock.Acquire(cfg)
	if err != nil {
		return err
	}
	defer lock.Release()

	store, err := bags.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(&pipeline{
		cfg:    cfg,
		logger: logger,
		store:  store,
		tools:  tools.New(cfg),
	})
}

// withStore opens the bag store without taking the run lock, for
// inspection commands that do not mutate pipeline state machines.
func (c *commandContext) withStore(fn func(*config.Config, *bags.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := bags.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store)
}

func (c *commandContext) archivesSpaceClient() (*archivesspace.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return archivesspace.New(cfg.ArchivesSpace)
}

func (c *commandContext) descriptionClient() (*description.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return description.New(cfg.Description)
}

func (c *commandContext) storageClient() (*storage.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return storage.New(cfg.Storage)
}
