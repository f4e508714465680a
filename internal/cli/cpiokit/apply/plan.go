// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package apply

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"kraftkit.sh/cpiokit/internal/cli/cpiokit/utils"
)

// Plan is a list of changes applied to one archive in order.
type Plan struct {
	Steps []Step `yaml:"steps"`
}

// Step is a single change.  Exactly one of its fields is set.
type Step struct {
	Add    *utils.AddSpec    `yaml:"add,omitempty"`
	Delete *utils.DeleteSpec `yaml:"delete,omitempty"`
	Modify *utils.ModifySpec `yaml:"modify,omitempty"`
}

// ParsePlan decodes a plan.  Relative local paths in it are taken relative
// to base.
func ParsePlan(r io.Reader, base string) (*Plan, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var plan Plan
	if err := dec.Decode(&plan); errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("plan is empty")
	} else if err != nil {
		return nil, fmt.Errorf("could not parse plan: %w", err)
	}

	if len(plan.Steps) == 0 {
		return nil, fmt.Errorf("plan has no steps")
	}

	for i := range plan.Steps {
		if err := plan.Steps[i].validate(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}

		plan.Steps[i].resolve(base)
	}

	return &plan, nil
}

func (step *Step) validate() error {
	n := 0
	for _, set := range []bool{step.Add != nil, step.Delete != nil, step.Modify != nil} {
		if set {
			n++
		}
	}

	switch {
	case n == 0:
		return fmt.Errorf("expected one of add, delete or modify")
	case n > 1:
		return fmt.Errorf("only one of add, delete or modify may be given")
	case step.Add != nil && (step.Add.Path == "" || step.Add.File == ""):
		return fmt.Errorf("add requires path and file")
	case step.Modify != nil && step.Modify.Path == "":
		return fmt.Errorf("modify requires path")
	case step.Delete != nil && len(step.Delete.Paths) == 0:
		return fmt.Errorf("delete requires paths")
	}

	return nil
}

func (step *Step) resolve(base string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}

		return filepath.Join(base, p)
	}

	if step.Add != nil {
		step.Add.File = abs(step.Add.File)
	}
	if step.Modify != nil {
		step.Modify.Data = abs(step.Modify.Data)
	}
}

// Name describes the step for logs and errors.
func (step *Step) Name() string {
	switch {
	case step.Add != nil:
		return "add " + step.Add.Path
	case step.Delete != nil:
		return fmt.Sprintf("delete %v", step.Delete.Paths)
	case step.Modify != nil:
		return "modify " + step.Modify.Path
	}

	return "empty step"
}

// Edit returns the change the step describes.
func (step *Step) Edit(ctx context.Context) utils.Edit {
	switch {
	case step.Add != nil:
		return step.Add.Edit(ctx)
	case step.Delete != nil:
		return step.Delete.Edit(ctx)
	default:
		return step.Modify.Edit(ctx)
	}
}
