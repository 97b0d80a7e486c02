package config

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/glorpus-work/zpkg/pkg/errors"
)

// Keys returns the settable setting keys, sorted.
func Keys() []string {
	t := reflect.TypeOf(Settings{})
	keys := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if key := yamlKey(t.Field(i)); key != "" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// SetValue sets a setting by its YAML key. Durations use Go syntax ("30s"),
// lists are comma separated. The result is validated and the change is
// reverted when invalid.
func (c *Config) SetValue(key, value string) error {
	field, ok := c.settingField(key)
	if !ok {
		return errors.Wrap(errors.ErrUnknownConfigKey, key)
	}

	previous := reflect.New(field.Type()).Elem()
	previous.Set(field)

	if err := assign(field, value); err != nil {
		return errors.Wrapf(errors.ErrConfigValidation, "%s: %v", key, err)
	}
	if err := c.Validate(); err != nil {
		field.Set(previous)
		return err
	}
	return nil
}

// GetValue returns a setting by its YAML key.
func (c *Config) GetValue(key string) (string, error) {
	field, ok := c.settingField(key)
	if !ok {
		return "", errors.Wrap(errors.ErrUnknownConfigKey, key)
	}
	return format(field), nil
}

// ToMap returns every setting keyed by its YAML key.
// This is useful for displaying the configuration.
func (c *Config) ToMap() map[string]string {
	result := make(map[string]string)
	v := reflect.ValueOf(c.Settings)
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if key := yamlKey(t.Field(i)); key != "" {
			result[key] = format(v.Field(i))
		}
	}
	return result
}

func (c *Config) settingField(key string) (reflect.Value, bool) {
	v := reflect.ValueOf(&c.Settings).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if yamlKey(t.Field(i)) == key {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// yamlKey handles tags with options, e.g. "cache_dir,omitempty".
func yamlKey(f reflect.StructField) string {
	tag := f.Tag.Get("yaml")
	if tag == "" || tag == "-" {
		return ""
	}
	return strings.Split(tag, ",")[0]
}

var durationType = reflect.TypeOf(time.Duration(0))

func assign(field reflect.Value, value string) error {
	switch {
	case field.Type() == durationType:
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
	case field.Kind() == reflect.Int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		field.SetInt(int64(n))
	case field.Kind() == reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case field.Kind() == reflect.Slice && field.Type().Elem().Kind() == reflect.String:
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		field.Set(reflect.ValueOf(items))
	case field.Kind() == reflect.String:
		field.SetString(value)
	default:
		return fmt.Errorf("unsupported setting type %s", field.Type())
	}
	return nil
}

func format(field reflect.Value) string {
	switch {
	case field.Type() == durationType:
		return time.Duration(field.Int()).String()
	case field.Kind() == reflect.Slice:
		items := make([]string, field.Len())
		for i := range items {
			items[i] = fmt.Sprint(field.Index(i).Interface())
		}
		return strings.Join(items, ",")
	default:
		return fmt.Sprint(field.Interface())
	}
}
