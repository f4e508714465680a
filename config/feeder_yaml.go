// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// YamlFeeder feeds using a YAML file.
type YamlFeeder struct {
	File string
}

func (f YamlFeeder) Feed(structure interface{}) error {
	data, err := os.ReadFile(filepath.Clean(f.File))
	if err != nil {
		return fmt.Errorf("cannot open yaml file: %v", err)
	}

	// Empty files leave the defaults in place.
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(structure); err != nil {
		return fmt.Errorf("cannot feed config file %s: %v", f.File, err)
	}

	return nil
}

// Write stores structure in the file.  With merge set, keys present in the
// file but unknown to structure are kept.
func (f YamlFeeder) Write(structure interface{}, merge bool) error {
	if len(f.File) == 0 {
		return fmt.Errorf("filename for YAML cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(f.File), 0o755); err != nil {
		return fmt.Errorf("could not create config directory: %v", err)
	}

	var into yaml.Node
	raw, err := yaml.Marshal(structure)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(raw, &into); err != nil {
		return err
	}

	if existing, err := os.ReadFile(f.File); err == nil && merge {
		var from yaml.Node
		if err := yaml.Unmarshal(existing, &from); err != nil {
			return fmt.Errorf("could not unmarshal YAML: %s", err)
		}

		// A zero kind is an empty document.
		if from.Kind != 0 {
			if err := mergeNodes(&from, &into); err != nil {
				return fmt.Errorf("could not update config: %v", err)
			}
		}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&into); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}

	return os.WriteFile(f.File, buf.Bytes(), 0o600)
}

// mergeNodes copies mapping keys of from which are missing in into.
func mergeNodes(from, into *yaml.Node) error {
	if from.Kind != into.Kind {
		return fmt.Errorf("cannot merge nodes of different kinds")
	}

	switch from.Kind {
	case yaml.DocumentNode:
		if len(from.Content) > 0 && len(into.Content) > 0 {
			return mergeNodes(from.Content[0], into.Content[0])
		}

	case yaml.MappingNode:
		for i := 0; i+1 < len(from.Content); i += 2 {
			key := from.Content[i]

			found := false
			for j := 0; j+1 < len(into.Content); j += 2 {
				if into.Content[j].Value == key.Value {
					found = true
					if from.Content[i+1].Kind == yaml.MappingNode {
						if err := mergeNodes(from.Content[i+1], into.Content[j+1]); err != nil {
							return fmt.Errorf("at key %s: %w", key.Value, err)
						}
					}
					break
				}
			}

			if !found {
				into.Content = append(into.Content, from.Content[i:i+2]...)
			}
		}
	}

	return nil
}
