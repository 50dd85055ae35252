// Package config loads synchronizer configuration from a YAML file with
// environment variable overrides. Environment variables take precedence over
// file values, file values over defaults; each attribute remembers where its
// value came from so operators can inspect the effective configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "/etc/chansync"
	ConfigFileName    = "chansync.yml"
)

// Config holds all synchronizer configuration settings.
type Config struct {
	// RemoteBaseURL is the base URL of the remote chat server API
	RemoteBaseURL string `yaml:"remote_base_url"`

	// RemoteAPISecret is the shared secret sent on every remote call
	RemoteAPISecret string `yaml:"remote_api_secret"`

	// RemoteTeamSlug is the team namespace channels are created under
	RemoteTeamSlug string `yaml:"remote_team_slug"`

	// RemotePageSize is the member-list page size used when snapshotting
	RemotePageSize int `yaml:"remote_page_size"`

	// RemoteTimeoutSeconds bounds every remote HTTP call
	RemoteTimeoutSeconds int `yaml:"remote_timeout_seconds"`

	// ChannelNameTemplate derives course channel names ({$a->key} placeholders)
	ChannelNameTemplate string `yaml:"channel_name_template"`

	// GroupChannelNameTemplate derives group channel names
	GroupChannelNameTemplate string `yaml:"group_channel_name_template"`

	// InvalidCharsPattern matches characters replaced during name sanitization
	InvalidCharsPattern string `yaml:"invalid_chars_pattern"`

	// AdminRoles are LMS roles granted channel admin privilege
	AdminRoles []string `yaml:"admin_roles"`

	// MemberRoles are LMS roles granted plain channel membership
	MemberRoles []string `yaml:"member_roles"`

	// DeferredSources are event sources routed to deferred execution
	DeferredSources []string `yaml:"deferred_sources"`

	// BindAddress and Port configure the webhook HTTP server
	BindAddress string `yaml:"bind_address"`
	Port        string `yaml:"port"`

	// WebhookSecret signs/validates bearer tokens on inbound webhooks
	WebhookSecret string `yaml:"webhook_secret"`

	// LogLevel is the minimum diagnostic log level (debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// adminRoleSet and memberRoleSet are parsed once at load
	adminRoleSet  RoleSet
	memberRoleSet RoleSet

	// deferredSourceSet is the parsed deferred-source allow-list
	deferredSourceSet map[string]struct{}

	// sources tracks where each value came from
	sources map[string]string

	// configFilePath is the path to the config file
	configFilePath string

	// mu guards reads against an in-place Reload
	mu sync.RWMutex
}

// Attribute represents a configuration attribute with its value and source.
type Attribute struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// Global singleton config
var (
	globalConfig *Config
	configMu     sync.RWMutex
)

// Get returns the global configuration, loading it if necessary.
func Get() *Config {
	configMu.RLock()
	if globalConfig != nil {
		configMu.RUnlock()
		return globalConfig
	}
	configMu.RUnlock()

	configMu.Lock()
	defer configMu.Unlock()

	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			cfg = newDefault()
			cfg.finalize()
		}
		globalConfig = cfg
	}
	return globalConfig
}

// Reload re-reads the configuration from file and environment and swaps
// the new values into the existing Config in place, so lookups and method
// values bound to it observe the update.
func Reload() error {
	fresh, err := Load()
	if err != nil {
		return err
	}

	configMu.Lock()
	defer configMu.Unlock()

	if globalConfig == nil {
		globalConfig = fresh
		return nil
	}
	globalConfig.replaceWith(fresh)
	return nil
}

// replaceWith copies all values and parsed lookup forms from fresh.
func (c *Config) replaceWith(fresh *Config) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.RemoteBaseURL = fresh.RemoteBaseURL
	c.RemoteAPISecret = fresh.RemoteAPISecret
	c.RemoteTeamSlug = fresh.RemoteTeamSlug
	c.RemotePageSize = fresh.RemotePageSize
	c.RemoteTimeoutSeconds = fresh.RemoteTimeoutSeconds
	c.ChannelNameTemplate = fresh.ChannelNameTemplate
	c.GroupChannelNameTemplate = fresh.GroupChannelNameTemplate
	c.InvalidCharsPattern = fresh.InvalidCharsPattern
	c.AdminRoles = fresh.AdminRoles
	c.MemberRoles = fresh.MemberRoles
	c.DeferredSources = fresh.DeferredSources
	c.BindAddress = fresh.BindAddress
	c.Port = fresh.Port
	c.WebhookSecret = fresh.WebhookSecret
	c.LogLevel = fresh.LogLevel

	c.adminRoleSet = fresh.adminRoleSet
	c.memberRoleSet = fresh.memberRoleSet
	c.deferredSourceSet = fresh.deferredSourceSet
	c.sources = fresh.sources
	c.configFilePath = fresh.configFilePath
}

func newDefault() *Config {
	return &Config{
		RemotePageSize:           50,
		RemoteTimeoutSeconds:     30,
		ChannelNameTemplate:      "{$a->courseshortname}_{$a->instanceid}",
		GroupChannelNameTemplate: "{$a->courseshortname}_{$a->groupname}",
		InvalidCharsPattern:      `[^a-z0-9._\-]`,
		AdminRoles:               []string{"editingteacher", "manager"},
		MemberRoles:              []string{"student"},
		DeferredSources:          []string{},
		BindAddress:              "0.0.0.0",
		Port:                     "8080",
		LogLevel:                 "info",
		sources:                  make(map[string]string),
	}
}

// Load loads configuration from file and environment variables.
// Environment variables take precedence over file values.
func Load() (*Config, error) {
	cfg := newDefault()

	for _, name := range attributeNames() {
		cfg.sources[name] = "default"
	}

	configPath := os.Getenv("CHANSYNC_CONFIG_PATH")
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	cfg.configFilePath = filepath.Join(configPath, ConfigFileName)

	if data, err := os.ReadFile(cfg.configFilePath); err == nil {
		var fileConfig Config
		if err := yaml.Unmarshal(data, &fileConfig); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", cfg.configFilePath, err)
		}
		cfg.applyFileConfig(&fileConfig)
	}

	cfg.applyEnvConfig()
	cfg.finalize()

	return cfg, nil
}

func attributeNames() []string {
	return []string{
		"remote_base_url", "remote_api_secret", "remote_team_slug",
		"remote_page_size", "remote_timeout_seconds",
		"channel_name_template", "group_channel_name_template",
		"invalid_chars_pattern", "admin_roles", "member_roles",
		"deferred_sources", "bind_address", "port", "webhook_secret",
		"log_level",
	}
}

func (c *Config) applyFileConfig(file *Config) {
	if file.RemoteBaseURL != "" {
		c.RemoteBaseURL = file.RemoteBaseURL
		c.sources["remote_base_url"] = "file"
	}
	if file.RemoteAPISecret != "" {
		c.RemoteAPISecret = file.RemoteAPISecret
		c.sources["remote_api_secret"] = "file"
	}
	if file.RemoteTeamSlug != "" {
		c.RemoteTeamSlug = file.RemoteTeamSlug
		c.sources["remote_team_slug"] = "file"
	}
	if file.RemotePageSize != 0 {
		c.RemotePageSize = file.RemotePageSize
		c.sources["remote_page_size"] = "file"
	}
	if file.RemoteTimeoutSeconds != 0 {
		c.RemoteTimeoutSeconds = file.RemoteTimeoutSeconds
		c.sources["remote_timeout_seconds"] = "file"
	}
	if file.ChannelNameTemplate != "" {
		c.ChannelNameTemplate = file.ChannelNameTemplate
		c.sources["channel_name_template"] = "file"
	}
	if file.GroupChannelNameTemplate != "" {
		c.GroupChannelNameTemplate = file.GroupChannelNameTemplate
		c.sources["group_channel_name_template"] = "file"
	}
	if file.InvalidCharsPattern != "" {
		c.InvalidCharsPattern = file.InvalidCharsPattern
		c.sources["invalid_chars_pattern"] = "file"
	}
	if len(file.AdminRoles) > 0 {
		c.AdminRoles = file.AdminRoles
		c.sources["admin_roles"] = "file"
	}
	if len(file.MemberRoles) > 0 {
		c.MemberRoles = file.MemberRoles
		c.sources["member_roles"] = "file"
	}
	if len(file.DeferredSources) > 0 {
		c.DeferredSources = file.DeferredSources
		c.sources["deferred_sources"] = "file"
	}
	if file.BindAddress != "" {
		c.BindAddress = file.BindAddress
		c.sources["bind_address"] = "file"
	}
	if file.Port != "" {
		c.Port = file.Port
		c.sources["port"] = "file"
	}
	if file.WebhookSecret != "" {
		c.WebhookSecret = file.WebhookSecret
		c.sources["webhook_secret"] = "file"
	}
	if file.LogLevel != "" {
		c.LogLevel = file.LogLevel
		c.sources["log_level"] = "file"
	}
}

func (c *Config) applyEnvConfig() {
	if val := os.Getenv("CHANSYNC_REMOTE_BASE_URL"); val != "" {
		c.RemoteBaseURL = val
		c.sources["remote_base_url"] = "environment"
	}
	if val := os.Getenv("CHANSYNC_REMOTE_API_SECRET"); val != "" {
		c.RemoteAPISecret = val
		c.sources["remote_api_secret"] = "environment"
	}
	if val := os.Getenv("CHANSYNC_REMOTE_TEAM_SLUG"); val != "" {
		c.RemoteTeamSlug = val
		c.sources["remote_team_slug"] = "environment"
	}
	if val := os.Getenv("CHANSYNC_REMOTE_PAGE_SIZE"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.RemotePageSize = i
			c.sources["remote_page_size"] = "environment"
		}
	}
	if val := os.Getenv("CHANSYNC_REMOTE_TIMEOUT_SECONDS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.RemoteTimeoutSeconds = i
			c.sources["remote_timeout_seconds"] = "environment"
		}
	}
	if val := os.Getenv("CHANSYNC_CHANNEL_NAME_TEMPLATE"); val != "" {
		c.ChannelNameTemplate = val
		c.sources["channel_name_template"] = "environment"
	}
	if val := os.Getenv("CHANSYNC_GROUP_CHANNEL_NAME_TEMPLATE"); val != "" {
		c.GroupChannelNameTemplate = val
		c.sources["group_channel_name_template"] = "environment"
	}
	if val := os.Getenv("CHANSYNC_INVALID_CHARS_PATTERN"); val != "" {
		c.InvalidCharsPattern = val
		c.sources["invalid_chars_pattern"] = "environment"
	}
	if val := os.Getenv("CHANSYNC_ADMIN_ROLES"); val != "" {
		c.AdminRoles = splitAndTrim(val)
		c.sources["admin_roles"] = "environment"
	}
	if val := os.Getenv("CHANSYNC_MEMBER_ROLES"); val != "" {
		c.MemberRoles = splitAndTrim(val)
		c.sources["member_roles"] = "environment"
	}
	if val := os.Getenv("CHANSYNC_DEFERRED_SOURCES"); val != "" {
		c.DeferredSources = splitAndTrim(val)
		c.sources["deferred_sources"] = "environment"
	}
	if val := os.Getenv("CHANSYNC_BIND_ADDRESS"); val != "" {
		c.BindAddress = val
		c.sources["bind_address"] = "environment"
	}
	if val := os.Getenv("CHANSYNC_PORT"); val != "" {
		c.Port = val
		c.sources["port"] = "environment"
	}
	if val := os.Getenv("CHANSYNC_WEBHOOK_SECRET"); val != "" {
		c.WebhookSecret = val
		c.sources["webhook_secret"] = "environment"
	}
	if val := os.Getenv("CHANSYNC_LOG_LEVEL"); val != "" {
		c.LogLevel = val
		c.sources["log_level"] = "environment"
	}
}

// finalize parses role sets and source lists into their lookup forms.
// Parsing happens once at load, never per reconciliation pass.
func (c *Config) finalize() {
	c.adminRoleSet = NewRoleSet(c.AdminRoles)
	c.memberRoleSet = NewRoleSet(c.MemberRoles)
	c.deferredSourceSet = make(map[string]struct{}, len(c.DeferredSources))
	for _, source := range c.DeferredSources {
		source = strings.TrimSpace(source)
		if source != "" {
			c.deferredSourceSet[source] = struct{}{}
		}
	}
}

// AdminRoleSet returns the parsed admin role set.
func (c *Config) AdminRoleSet() RoleSet {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.adminRoleSet
}

// MemberRoleSet returns the parsed member role set.
func (c *Config) MemberRoleSet() RoleSet {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.memberRoleSet
}

// IsDeferredSource reports whether events from the named source are routed to
// deferred execution.
func (c *Config) IsDeferredSource(source string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.deferredSourceSet[source]
	return ok
}

// ConfigFilePath returns the path to the config file.
func (c *Config) ConfigFilePath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.configFilePath
}

// Source returns the source of a configuration attribute.
func (c *Config) Source(name string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.sources == nil {
		return "default"
	}
	if s, ok := c.sources[name]; ok {
		return s
	}
	return "default"
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.RemotePageSize <= 0 {
		return fmt.Errorf("remote_page_size must be positive, got %d", c.RemotePageSize)
	}
	if c.RemoteTimeoutSeconds <= 0 {
		return fmt.Errorf("remote_timeout_seconds must be positive, got %d", c.RemoteTimeoutSeconds)
	}
	return nil
}

// Attributes returns all configuration attributes with their values and
// sources. Secrets are redacted.
func (c *Config) Attributes() []Attribute {
	redact := func(s string) string {
		if s == "" {
			return ""
		}
		return "(redacted)"
	}
	return []Attribute{
		{Name: "remote_base_url", Value: c.RemoteBaseURL, Source: c.Source("remote_base_url")},
		{Name: "remote_api_secret", Value: redact(c.RemoteAPISecret), Source: c.Source("remote_api_secret")},
		{Name: "remote_team_slug", Value: c.RemoteTeamSlug, Source: c.Source("remote_team_slug")},
		{Name: "remote_page_size", Value: strconv.Itoa(c.RemotePageSize), Source: c.Source("remote_page_size")},
		{Name: "remote_timeout_seconds", Value: strconv.Itoa(c.RemoteTimeoutSeconds), Source: c.Source("remote_timeout_seconds")},
		{Name: "channel_name_template", Value: c.ChannelNameTemplate, Source: c.Source("channel_name_template")},
		{Name: "group_channel_name_template", Value: c.GroupChannelNameTemplate, Source: c.Source("group_channel_name_template")},
		{Name: "invalid_chars_pattern", Value: c.InvalidCharsPattern, Source: c.Source("invalid_chars_pattern")},
		{Name: "admin_roles", Value: strings.Join(c.AdminRoles, ","), Source: c.Source("admin_roles")},
		{Name: "member_roles", Value: strings.Join(c.MemberRoles, ","), Source: c.Source("member_roles")},
		{Name: "deferred_sources", Value: strings.Join(c.DeferredSources, ","), Source: c.Source("deferred_sources")},
		{Name: "bind_address", Value: c.BindAddress, Source: c.Source("bind_address")},
		{Name: "port", Value: c.Port, Source: c.Source("port")},
		{Name: "webhook_secret", Value: redact(c.WebhookSecret), Source: c.Source("webhook_secret")},
		{Name: "log_level", Value: c.LogLevel, Source: c.Source("log_level")},
	}
}

// FormatJSON returns a JSON representation of the configuration attributes.
func (c *Config) FormatJSON() (string, error) {
	out, err := json.MarshalIndent(c.Attributes(), "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// FormatText returns a text representation of the configuration.
func (c *Config) FormatText() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Config file: %s\n\n", c.configFilePath))
	sb.WriteString(fmt.Sprintf("%-32s %-42s %s\n", "NAME", "VALUE", "SOURCE"))
	sb.WriteString(fmt.Sprintf("%-32s %-42s %s\n", "----", "-----", "------"))

	for _, attr := range c.Attributes() {
		value := attr.Value
		if value == "" {
			value = "(not set)"
		}
		sb.WriteString(fmt.Sprintf("%-32s %-42s %s\n", attr.Name, value, attr.Source))
	}
	return sb.String()
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
