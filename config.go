package main

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"
)

// yamlConfigParser is an ff.ConfigFileParser
// for YAML configuration files.
//
// Keys are flag names. Lists set a flag once per item.
//
//	style: monokai
//	classes: true
//	header:
//	  - "Authorization: Bearer foo"
func yamlConfigParser(r io.Reader, set func(name, value string) error) error {
	var cfg map[string]any
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			// Empty file.
			return nil
		}
		return fmt.Errorf("parse config: %w", err)
	}

	names := make([]string, 0, len(cfg))
	for name := range cfg {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		switch v := cfg[name].(type) {
		case nil:
			// "key:" with no value
		case []any:
			for _, item := range v {
				if err := set(name, fmt.Sprint(item)); err != nil {
					return err
				}
			}
		case map[string]any:
			return fmt.Errorf("config %q: unexpected mapping", name)
		default:
			if err := set(name, fmt.Sprint(v)); err != nil {
				return err
			}
		}
	}
	return nil
}
