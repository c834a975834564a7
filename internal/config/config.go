package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	srvErrors "github.com/qaharness/api-test-framework/pkg/errors"
)

const (
	envSectionPrefix  = "env_"
	projectRootMarker = "config"
	defaultConfigFile = "config.yaml"
	projectRootVar    = "${PROJECT_ROOT}"
)

var inlineComment = regexp.MustCompile(`\s+#.*$`)

// Reader resolves single SECTION/OPTION values. An environment variable
// named SECTION_OPTION (upper case) takes precedence over the file.
type Reader struct {
	v    *viper.Viper
	root string
}

// NewReader reads the YAML file at path.
func NewReader(path string) (*Reader, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	root := FindProjectRoot(filepath.Dir(path))

	return &Reader{v: v, root: root}, nil
}

// Get returns the cleaned value of section.option.
func (r *Reader) Get(section, option string) (string, error) {
	key := strings.ToLower(section + "." + option)
	if !r.v.IsSet(key) {
		return "", srvErrors.NewValidationError(key, "config option not found")
	}
	return clean(r.v.GetString(key), r.root), nil
}

// Sections returns the top level section names in sorted order.
func (r *Reader) Sections() []string {
	sections := make([]string, 0)
	for k := range r.v.AllSettings() {
		sections = append(sections, k)
	}
	sort.Strings(sections)
	return sections
}

// Load reads path and decodes every section into a Configuration with
// defaults applied. An empty path resolves to <project root>/config/config.yaml.
func Load(path string) (*Configuration, error) {
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(FindProjectRoot(wd), projectRootMarker, defaultConfigFile)
	}

	r, err := NewReader(path)
	if err != nil {
		return nil, err
	}

	return r.Configuration()
}

// Configuration decodes the whole file.
func (r *Reader) Configuration() (*Configuration, error) {
	cfg := NewConfigurationWithOptionsAndDefaults()
	cfg.ProjectRoot = r.root

	settings := r.v.AllSettings()

	if err := r.decode(settings, cfg); err != nil {
		return nil, err
	}

	for key, section := range settings {
		if !strings.HasPrefix(key, envSectionPrefix) {
			continue
		}

		env := Environment{}
		if err := r.decode(section, &env); err != nil {
			return nil, fmt.Errorf("section %s: %w", key, err)
		}
		if err := defaults.Set(&env); err != nil {
			return nil, err
		}
		env.Name = strings.TrimPrefix(key, envSectionPrefix)
		cfg.Environments[env.Name] = env
	}

	for alias, target := range cfg.Web.Databases {
		if err := defaults.Set(&target); err != nil {
			return nil, err
		}
		cfg.Web.Databases[alias] = target
	}

	if cfg.Web.StorePath != "" && !filepath.IsAbs(cfg.Web.StorePath) && cfg.Web.StorePath != ":memory:" {
		cfg.Web.StorePath = filepath.Join(r.root, cfg.Web.StorePath)
	}
	if cfg.Log.Dir != "" && !filepath.IsAbs(cfg.Log.Dir) {
		cfg.Log.Dir = filepath.Join(r.root, cfg.Log.Dir)
	}

	return cfg, nil
}

// bindEnv registers every known option so that SECTION_OPTION variables
// reach the decoded Configuration even when the file omits the option.
// AutomaticEnv alone only overrides keys the file already holds.
func bindEnv(v *viper.Viper) error {
	sections := map[string]reflect.Type{
		"database": reflect.TypeOf(Database{}),
		"ssh":      reflect.TypeOf(SSH{}),
		"log":      reflect.TypeOf(Log{}),
		"web":      reflect.TypeOf(Web{}),
	}
	for key := range v.AllSettings() {
		if strings.HasPrefix(key, envSectionPrefix) {
			sections[key] = reflect.TypeOf(Environment{})
		}
	}

	for section, t := range sections {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			tag := f.Tag.Get("mapstructure")
			if tag == "" || tag == "-" || f.Type.Kind() == reflect.Map {
				continue
			}
			if err := v.BindEnv(section + "." + tag); err != nil {
				return err
			}
		}
	}

	return nil
}

func (r *Reader) decode(input any, output any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			cleanStringHook(r.root),
			mapstructure.StringToTimeDurationHookFunc(),
		),
		WeaklyTypedInput: true,
		Result:           output,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

func cleanStringHook(root string) mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String {
			return data, nil
		}
		return clean(data.(string), root), nil
	}
}

// clean drops a trailing " # comment" and expands ${PROJECT_ROOT}.
func clean(value, root string) string {
	value = inlineComment.ReplaceAllString(value, "")
	value = strings.ReplaceAll(value, projectRootVar, root)
	return strings.TrimSpace(value)
}

// FindProjectRoot walks up from start until it finds a directory holding
// a config/ folder. It falls back to start.
func FindProjectRoot(start string) string {
	abs, err := filepath.Abs(start)
	if err != nil {
		return start
	}

	dir := abs
	for {
		if fi, err := os.Stat(filepath.Join(dir, projectRootMarker)); err == nil && fi.IsDir() {
			return dir
		}
		// the config file itself may live directly in a folder named config
		if filepath.Base(dir) == projectRootMarker {
			return filepath.Dir(dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs
		}
		dir = parent
	}
}

// Environment returns the named environment.
func (c *Configuration) Environment(name string) (Environment, error) {
	env, ok := c.Environments[strings.ToLower(name)]
	if !ok {
		return Environment{}, srvErrors.NewEnvironmentNotFoundError(name)
	}
	return env, nil
}

// EnvironmentNames returns the configured environment names in sorted order.
func (c *Configuration) EnvironmentNames() []string {
	names := make([]string, 0, len(c.Environments))
	for name := range c.Environments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DatabaseAlias resolves a builder alias to its target.
func (c *Configuration) DatabaseAlias(alias string) (DatabaseTarget, error) {
	t, ok := c.Web.Databases[alias]
	if !ok {
		return DatabaseTarget{}, srvErrors.NewDatabaseAliasNotFoundError(alias)
	}
	return t, nil
}

// DatabaseAliases returns the alias names in sorted order.
func (c *Configuration) DatabaseAliases() []string {
	aliases := make([]string, 0, len(c.Web.Databases))
	for a := range c.Web.Databases {
		aliases = append(aliases, a)
	}
	sort.Strings(aliases)
	return aliases
}
