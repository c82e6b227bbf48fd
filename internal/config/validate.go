package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateGateway(); err != nil {
		return err
	}
	if err := c.validateGuard(); err != nil {
		return err
	}
	if err := c.validateClassifier(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateGateway() error {
	if c.Gateway.BridgeURL != "" {
		parsed, err := url.Parse(c.Gateway.BridgeURL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("gateway.bridge_url must be an absolute URL, got %q", c.Gateway.BridgeURL)
		}
	}
	if strings.ContainsAny(c.Gateway.CommandPrefix, " \t\n") {
		return errors.New("gateway.command_prefix must not contain whitespace")
	}
	return nil
}

func (c *Config) validateGuard() error {
	if c.Guard.TrimTo >= c.Guard.HardLimit {
		return errors.New("guard.trim_to must be lower than guard.hard_limit")
	}
	if c.Guard.SweepAbove > c.Guard.HardLimit {
		return errors.New("guard.sweep_above must not exceed guard.hard_limit")
	}
	return nil
}

func (c *Config) validateClassifier() error {
	if !c.Classifier.LLMEnabled {
		return nil
	}
	if c.Classifier.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/pedidobot/config.toml"
		}
		return fmt.Errorf("classifier.api_key is required when classifier.llm_enabled is true. Set OPENROUTER_API_KEY or edit %s", defaultPath)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
