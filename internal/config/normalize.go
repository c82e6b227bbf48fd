package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeGateway()
	c.normalizeAccess()
	c.normalizeMatching()
	c.normalizeGuard()
	c.Files.MaxSendMB = clampSendMB(c.Files.MaxSendMB)
	c.normalizeClassifier()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LibraryDir) == "" {
		c.Paths.LibraryDir = defaultLibraryDir
	}
	if c.Paths.LibraryDir, err = expandPath(c.Paths.LibraryDir); err != nil {
		return fmt.Errorf("paths.library_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeGateway() {
	c.Gateway.Bind = strings.TrimSpace(c.Gateway.Bind)
	if c.Gateway.Bind == "" {
		c.Gateway.Bind = defaultGatewayBind
	}
	c.Gateway.Token = strings.TrimSpace(c.Gateway.Token)
	if c.Gateway.Token == "" {
		if value, ok := os.LookupEnv("PEDIDOBOT_GATEWAY_TOKEN"); ok {
			c.Gateway.Token = strings.TrimSpace(value)
		}
	}
	c.Gateway.BridgeURL = strings.TrimRight(strings.TrimSpace(c.Gateway.BridgeURL), "/")
	c.Gateway.BridgeToken = strings.TrimSpace(c.Gateway.BridgeToken)
	if c.Gateway.BridgeToken == "" {
		if value, ok := os.LookupEnv("PEDIDOBOT_BRIDGE_TOKEN"); ok {
			c.Gateway.BridgeToken = strings.TrimSpace(value)
		}
	}
	if c.Gateway.RequestTimeout <= 0 {
		c.Gateway.RequestTimeout = defaultGatewayRequestTimeout
	}
	c.Gateway.CommandPrefix = strings.TrimSpace(c.Gateway.CommandPrefix)
	if c.Gateway.CommandPrefix == "" {
		c.Gateway.CommandPrefix = defaultCommandPrefix
	}
}

func (c *Config) normalizeAccess() {
	admins := make([]string, 0, len(c.Access.Admins))
	seen := make(map[string]struct{}, len(c.Access.Admins))
	for _, admin := range c.Access.Admins {
		trimmed := strings.TrimSpace(admin)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		admins = append(admins, trimmed)
	}
	c.Access.Admins = admins
}

func (c *Config) normalizeMatching() {
	if c.Matching.MinScore <= 0 {
		c.Matching.MinScore = defaultMinScore
	}
	if c.Matching.MaxResults <= 0 {
		c.Matching.MaxResults = defaultMaxResults
	}
	c.Matching.DefaultProvider = strings.TrimSpace(c.Matching.DefaultProvider)
}

func (c *Config) normalizeGuard() {
	if c.Guard.WindowSeconds <= 0 {
		c.Guard.WindowSeconds = defaultGuardWindowSeconds
	}
	if c.Guard.MaxAgeHours <= 0 {
		c.Guard.MaxAgeHours = defaultGuardMaxAgeHours
	}
	if c.Guard.SweepAbove <= 0 {
		c.Guard.SweepAbove = defaultGuardSweepAbove
	}
	if c.Guard.HardLimit <= 0 {
		c.Guard.HardLimit = defaultGuardHardLimit
	}
	if c.Guard.TrimTo <= 0 {
		c.Guard.TrimTo = defaultGuardTrimTo
	}
}

func (c *Config) normalizeClassifier() {
	if c.Classifier.TimeoutSeconds <= 0 {
		c.Classifier.TimeoutSeconds = defaultClassifierTimeoutSeconds
	}
	c.Classifier.APIKey = strings.TrimSpace(c.Classifier.APIKey)
	if c.Classifier.APIKey == "" {
		if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.Classifier.APIKey = strings.TrimSpace(value)
		}
	}
	c.Classifier.BaseURL = strings.TrimSpace(c.Classifier.BaseURL)
	if c.Classifier.BaseURL == "" {
		c.Classifier.BaseURL = defaultClassifierBaseURL
	}
	c.Classifier.Model = strings.TrimSpace(c.Classifier.Model)
	if c.Classifier.Model == "" {
		c.Classifier.Model = defaultClassifierModel
	}
	c.Classifier.Title = strings.TrimSpace(c.Classifier.Title)
	if c.Classifier.Title == "" {
		c.Classifier.Title = defaultClassifierTitle
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
	c.Notifications.RedisURL = strings.TrimSpace(c.Notifications.RedisURL)
	c.Notifications.RedisChannel = strings.TrimSpace(c.Notifications.RedisChannel)
	if c.Notifications.RedisChannel == "" {
		c.Notifications.RedisChannel = defaultRedisChannel
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// clampSendMB keeps the document limit within [1, 500] MB; zero or negative
// values fall back to the default.
func clampSendMB(value int) int {
	switch {
	case value <= 0:
		return defaultMaxSendMB
	case value < minSendMB:
		return minSendMB
	case value > maxSendMB:
		return maxSendMB
	default:
		return value
	}
}
