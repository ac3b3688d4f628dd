package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// exclusions is the shape of an --exclude-file document.
type exclusions struct {
	Exclude []string `yaml:"exclude"`
}

func loadExclusions(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read exclude file: %w", err)
	}

	var e exclusions
	if err := yaml.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("parse exclude file %s: %w", path, err)
	}

	out := make([]string, 0, len(e.Exclude))
	for _, slug := range e.Exclude {
		if slug = strings.TrimSpace(slug); slug != "" {
			out = append(out, slug)
		}
	}
	return out, nil
}
