package config

import (
	"reflect"

	"github.com/creasty/defaults"
)

type ConfigurationOption func(c *Configuration)

// NewConfigurationWithOptions creates a new Configuration with the passed in options set
func NewConfigurationWithOptions(opts ...ConfigurationOption) *Configuration {
	c := &Configuration{Environments: map[string]Environment{}}
	for _, o := range opts {
		o(c)
	}
	return c
}

// NewConfigurationWithOptionsAndDefaults creates a new Configuration with the passed in options set starting from the defaults
func NewConfigurationWithOptionsAndDefaults(opts ...ConfigurationOption) *Configuration {
	c := &Configuration{Environments: map[string]Environment{}}
	defaults.MustSet(c)
	for _, o := range opts {
		o(c)
	}
	return c
}

func WithEnvironment(name string, env Environment) ConfigurationOption {
	return func(c *Configuration) {
		defaults.MustSet(&env)
		env.Name = name
		c.Environments[name] = env
	}
}

func WithDatabase(d Database) ConfigurationOption {
	return func(c *Configuration) {
		defaults.MustSet(&d)
		c.Database = d
	}
}

func WithSSH(s SSH) ConfigurationOption {
	return func(c *Configuration) {
		defaults.MustSet(&s)
		c.SSH = s
	}
}

func WithLog(l Log) ConfigurationOption {
	return func(c *Configuration) {
		defaults.MustSet(&l)
		c.Log = l
	}
}

func WithWeb(w Web) ConfigurationOption {
	return func(c *Configuration) {
		defaults.MustSet(&w)
		for alias, t := range w.Databases {
			defaults.MustSet(&t)
			w.Databases[alias] = t
		}
		c.Web = w
	}
}

// DebugMap returns a map form of Configuration for debugging.
// Fields tagged debugmap:"hidden" are replaced by "(sensitive)".
func (c Configuration) DebugMap() map[string]any {
	envs := make(map[string]any, len(c.Environments))
	for name, env := range c.Environments {
		envs[name] = debugStruct(env)
	}

	dbs := make(map[string]any, len(c.Web.Databases))
	for alias, t := range c.Web.Databases {
		dbs[alias] = debugStruct(t)
	}

	web := debugStruct(c.Web)
	web["Databases"] = dbs

	return map[string]any{
		"Environments": envs,
		"Database":     debugStruct(c.Database),
		"SSH":          debugStruct(c.SSH),
		"Log":          debugStruct(c.Log),
		"Web":          web,
		"ProjectRoot":  c.ProjectRoot,
	}
}

func debugStruct(s any) map[string]any {
	m := map[string]any{}
	v := reflect.ValueOf(s)
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if f.Tag.Get("debugmap") == "hidden" {
			if v.Field(i).IsZero() {
				m[f.Name] = "(empty)"
			} else {
				m[f.Name] = "(sensitive)"
			}
			continue
		}
		m[f.Name] = v.Field(i).Interface()
	}
	return m
}
