package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/sitetokens/cache"
	"github.com/jonwraymond/sitetokens/content"
	"github.com/jonwraymond/sitetokens/fragment"
	"github.com/jonwraymond/sitetokens/observe"
)

// ServiceName is the default observe service name.
const ServiceName = "sitetokens"

// Sentinel errors for configuration loading.
var (
	ErrMissingEnv = errors.New("config: missing required environment variables")
	ErrInvalid    = errors.New("config: invalid configuration")
)

// Config is the full service configuration.
type Config struct {
	// Fixture is an optional content tree fixture to load at startup.
	Fixture   string          `yaml:"fixture"`
	Templates TemplatesConfig `yaml:"templates"`
	Multisite MultisiteConfig `yaml:"multisite"`
	Cache     CacheConfig     `yaml:"cache"`
	Observe   observe.Config  `yaml:"observe"`
}

// TemplatesConfig controls templates fragment construction.
type TemplatesConfig struct {
	GlobalRoot     string `yaml:"global_root" validate:"required,startswith=/"`
	TemplateName   string `yaml:"template_name" validate:"required"`
	SettingsField  string `yaml:"settings_field" validate:"required"`
	PageTemplateID string `yaml:"page_template_id" validate:"required,nodeid"`
}

// MultisiteConfig names the nodes that make up a tenant/site hierarchy.
type MultisiteConfig struct {
	TenantTemplate string `yaml:"tenant_template" validate:"required"`
	SiteTemplate   string `yaml:"site_template" validate:"required"`
	SettingsName   string `yaml:"settings_name" validate:"required"`
	MediaName      string `yaml:"media_name" validate:"required"`
	HomeName       string `yaml:"home_name" validate:"required"`
}

// CacheConfig sizes the fragment cache.
type CacheConfig struct {
	// Shards is rounded up to a power of two; 0 selects the default.
	Shards int `yaml:"shards" validate:"gte=0,lte=65536"`
}

// Default returns the built-in configuration. PageTemplateID has no default
// and must be supplied.
func Default() Config {
	fc := fragment.DefaultConfig()
	return Config{
		Templates: TemplatesConfig{
			GlobalRoot:    fc.GlobalTemplatesRoot,
			TemplateName:  fc.TemplateName,
			SettingsField: fc.SettingsField,
		},
		Multisite: MultisiteConfig{
			TenantTemplate: "Tenant",
			SiteTemplate:   "Site",
			SettingsName:   "Settings",
			MediaName:      "Media",
			HomeName:       "Home",
		},
		Cache:   CacheConfig{Shards: cache.DefaultShards},
		Observe: observe.DefaultConfig(ServiceName),
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("nodeid", func(fl validator.FieldLevel) bool {
		_, err := content.ParseID(fl.Field().String())
		return err == nil
	})
	return v
}

// Load reads, expands and parses the YAML file at path. A relative fixture
// path is resolved against the directory holding the file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, err
	}
	if cfg.Fixture != "" && !filepath.IsAbs(cfg.Fixture) {
		cfg.Fixture = filepath.Join(filepath.Dir(path), cfg.Fixture)
	}
	return cfg, nil
}

// Parse expands environment references in data, decodes it over Default,
// normalizes and validates the result.
func Parse(data []byte) (Config, error) {
	expanded, err := ExpandEnvStrict(string(data))
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	cfg.Cache.Shards = cache.ShardCount(cfg.Cache.Shards)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := c.Observe.Validate(); err != nil {
		return fmt.Errorf("%w: observe: %w", ErrInvalid, err)
	}
	return nil
}

// PageTemplate returns the canonical Page template identifier.
func (c *Config) PageTemplate() content.ID {
	id, _ := content.ParseID(c.Templates.PageTemplateID)
	return id
}

// Fragment returns the fragment builder configuration.
func (c *Config) Fragment() fragment.Config {
	return fragment.Config{
		GlobalTemplatesRoot: c.Templates.GlobalRoot,
		TemplateName:        c.Templates.TemplateName,
		SettingsField:       c.Templates.SettingsField,
	}
}

// Resolver returns the multisite resolver configuration.
func (c *Config) Resolver() content.AncestorResolverConfig {
	return content.AncestorResolverConfig{
		TenantTemplate: c.Multisite.TenantTemplate,
		SiteTemplate:   c.Multisite.SiteTemplate,
		SettingsName:   c.Multisite.SettingsName,
		MediaName:      c.Multisite.MediaName,
		HomeName:       c.Multisite.HomeName,
	}
}
