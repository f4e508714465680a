// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Acorn Labs, Inc; All rights reserved.
// Copyright 2022 Unikraft GmbH; All rights reserved.
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
package cmdfactory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unsafe"

	"github.com/spf13/cobra"

	"kraftkit.sh/cpiokit/iostreams"
	"kraftkit.sh/cpiokit/log"
)

var caseRegexp = regexp.MustCompile("([a-z])([A-Z])")

type PersistentPreRunnable interface {
	PersistentPre(cmd *cobra.Command, args []string) error
}

type PreRunnable interface {
	Pre(cmd *cobra.Command, args []string) error
}

type Runnable interface {
	Run(ctx context.Context, args []string) error
}

type fieldInfo struct {
	FieldType  reflect.StructField
	FieldValue reflect.Value
}

func fields(obj any) []fieldInfo {
	var objValue reflect.Value
	ptrValue := reflect.ValueOf(obj)
	if ptrValue.Kind() == reflect.Ptr {
		objValue = ptrValue.Elem()
	} else {
		objValue = ptrValue
	}

	var result []fieldInfo

	for i := 0; i < objValue.NumField(); i++ {
		fieldType := objValue.Type().Field(i)
		if fieldType.Anonymous && fieldType.Type.Kind() == reflect.Struct {
			result = append(result, fields(objValue.Field(i).Addr().Interface())...)
		} else if !fieldType.Anonymous {
			result = append(result, fieldInfo{
				FieldValue: objValue.Field(i),
				FieldType:  fieldType,
			})
		}
	}

	return result
}

// Name derives the command name from the type of obj, e.g. a
// `ListCommand` becomes "list".
func Name(obj any) string {
	ptrValue := reflect.ValueOf(obj)
	objValue := ptrValue.Elem()
	commandName := strings.Replace(objValue.Type().Name(), "Command", "", 1)
	commandName, _ = name(commandName, "", "")
	return commandName
}

// Main executes the given command and returns the process exit code.
func Main(ctx context.Context, cmd *cobra.Command) int {
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	if errors.Is(err, ErrSilent) || IsUserCancellation(err) {
		return 1
	}

	var flagErr *FlagError
	if errors.As(err, &flagErr) {
		errOut := iostreams.G(ctx).ErrOut
		fmt.Fprintln(errOut, flagErr.Error())
		fmt.Fprintf(errOut, "see '%s --help' for more information\n", cmd.CommandPath())
		return 2
	}

	log.G(ctx).Error(err)
	return 1
}

// lookupEnv returns the value of the named environment variable, if the
// tag names one and it is set.
func lookupEnv(envName string) (string, bool) {
	if envName == "" {
		return "", false
	}

	value := os.Getenv(envName)
	return value, value != ""
}

// AttributeFlags associates a given struct with public attributes and a set of
// tags with the provided cobra command so as to enable dynamic population of
// CLI flags.
//
// The value currently held by a field is used as the flag's default so that
// values fed from a configuration file survive.  An environment variable named
// by the `env` tag takes precedence over that value and the `default` tag is
// only consulted when the field still holds its zero value.
func AttributeFlags(c *cobra.Command, obj any) error {
	optional := map[string]reflect.Value{}

	for _, info := range fields(obj) {
		fieldType := info.FieldType
		v := info.FieldValue

		if !fieldType.IsExported() {
			continue
		}

		// Any structure attribute which has the tag `noattribute:"true"` is skipped
		if fieldType.Tag.Get("noattribute") == "true" {
			continue
		}

		name, alias := name(fieldType.Name, fieldType.Tag.Get("long"), fieldType.Tag.Get("short"))
		usage := fieldType.Tag.Get("usage")
		defValue := fieldType.Tag.Get("default")
		envValue, hasEnv := lookupEnv(fieldType.Tag.Get("env"))

		flags := c.PersistentFlags()
		if fieldType.Tag.Get("local") == "true" {
			flags = c.Flags()
		}

		// raw returns the textual value this flag starts out with.
		raw := func(current string, isZero bool) string {
			if hasEnv {
				return envValue
			}
			if isZero && defValue != "" {
				return defValue
			}
			return current
		}

		ptr := unsafe.Pointer(v.Addr().Pointer())

		if _, ok := v.Interface().(time.Duration); ok {
			d, err := time.ParseDuration(raw(v.Interface().(time.Duration).String(), v.IsZero()))
			if err != nil {
				return fmt.Errorf("parsing value of --%s: %w", name, err)
			}
			flags.DurationVarP((*time.Duration)(ptr), name, alias, d, usage)
			if err := markHidden(flags.MarkHidden, fieldType, name); err != nil {
				return err
			}
			continue
		}

		switch fieldType.Type.Kind() {
		case reflect.String:
			flags.StringVarP((*string)(ptr), name, alias, raw(v.String(), v.IsZero()), usage)

		case reflect.Bool:
			b, err := strconv.ParseBool(raw(strconv.FormatBool(v.Bool()), v.IsZero()))
			if err != nil {
				return fmt.Errorf("parsing value of --%s: %w", name, err)
			}
			flags.BoolVarP((*bool)(ptr), name, alias, b, usage)

		case reflect.Int:
			i, err := strconv.Atoi(raw(strconv.FormatInt(v.Int(), 10), v.IsZero()))
			if err != nil {
				return fmt.Errorf("parsing value of --%s: %w", name, err)
			}
			flags.IntVarP((*int)(ptr), name, alias, i, usage)

		case reflect.Uint64:
			u, err := strconv.ParseUint(raw(strconv.FormatUint(v.Uint(), 10), v.IsZero()), 0, 64)
			if err != nil {
				return fmt.Errorf("parsing value of --%s: %w", name, err)
			}
			flags.Uint64VarP((*uint64)(ptr), name, alias, u, usage)

		case reflect.Slice:
			if fieldType.Type.Elem().Kind() != reflect.String {
				continue
			}

			value := *(*[]string)(ptr)
			if hasEnv {
				value = strings.Split(envValue, ",")
			}

			if fieldType.Tag.Get("split") == "false" {
				flags.StringArrayVarP((*[]string)(ptr), name, alias, value, usage)
			} else {
				flags.StringSliceVarP((*[]string)(ptr), name, alias, value, usage)
			}

		case reflect.Pointer:
			// Optional attributes stay nil unless the flag is given on the
			// command line or through the environment.
			switch fieldType.Type.Elem().Kind() {
			case reflect.Int:
				flags.IntP(name, alias, 0, usage)
			case reflect.String:
				flags.StringP(name, alias, "", usage)
			case reflect.Bool:
				flags.BoolP(name, alias, false, usage)
			default:
				continue
			}

			optional[name] = v
			if hasEnv {
				if err := flags.Set(name, envValue); err != nil {
					return fmt.Errorf("parsing value of --%s: %w", name, err)
				}
			}

		case reflect.Struct:
			if !v.CanAddr() {
				continue
			}

			// Recursively set nested structs
			if err := AttributeFlags(c, v.Addr().Interface()); err != nil {
				return err
			}
			continue

		default:
			continue
		}

		if err := markHidden(flags.MarkHidden, fieldType, name); err != nil {
			return err
		}
	}

	if len(optional) > 0 {
		c.PersistentPreRunE = bind(c.PersistentPreRunE, optional)
		c.PreRunE = bind(c.PreRunE, optional)
		c.RunE = bind(c.RunE, optional)
	}

	return nil
}

func markHidden(mark func(string) error, field reflect.StructField, name string) error {
	if field.Tag.Get("hidden") != "true" {
		return nil
	}

	return mark(name)
}

// New populates a cobra.Command object by extracting args from struct tags of the
// Runnable obj passed.  Also the Run method is assigned to the RunE of the command.
func New(obj Runnable, cmd cobra.Command) (*cobra.Command, error) {
	c := cmd
	if c.Use == "" {
		c.Use = fmt.Sprintf("%s [SUBCOMMAND] [FLAGS]", Name(obj))
	}

	if p, ok := obj.(PersistentPreRunnable); ok {
		c.PersistentPreRunE = p.PersistentPre
	}

	if p, ok := obj.(PreRunnable); ok {
		c.PreRunE = p.Pre
	}

	c.SilenceErrors = true
	c.SilenceUsage = true
	c.DisableFlagsInUseLine = true
	c.InitDefaultHelpFlag()

	if obj != nil {
		c.RunE = func(cmd *cobra.Command, args []string) error {
			return obj.Run(cmd.Context(), args)
		}

		// Parse the attributes of this object into addressable flags for this command
		if err := AttributeFlags(&c, obj); err != nil {
			return nil, err
		}
	}

	c.SetHelpFunc(rootHelpFunc)
	c.SetUsageFunc(rootUsageFunc)
	c.SetFlagErrorFunc(rootFlagErrorFunc)

	return &c, nil
}

// assignOptional copies the values of changed flags into their optional
// attributes.
func assignOptional(cmd *cobra.Command, optional map[string]reflect.Value) error {
	for k, v := range optional {
		flag := cmd.Flags().Lookup(k)
		if flag == nil || !flag.Changed {
			continue
		}

		switch v.Type().Elem().Kind() {
		case reflect.Int:
			i, err := cmd.Flags().GetInt(k)
			if err != nil {
				return err
			}
			v.Set(reflect.ValueOf(&i))
		case reflect.String:
			s, err := cmd.Flags().GetString(k)
			if err != nil {
				return err
			}
			v.Set(reflect.ValueOf(&s))
		case reflect.Bool:
			b, err := cmd.Flags().GetBool(k)
			if err != nil {
				return err
			}
			v.Set(reflect.ValueOf(&b))
		}
	}

	return nil
}

func name(name, setName, short string) (string, string) {
	if setName != "" {
		return setName, short
	}
	parts := strings.Split(name, "_")
	i := len(parts) - 1
	name = caseRegexp.ReplaceAllString(parts[i], "$1-$2")
	name = strings.ToLower(name)
	result := append([]string{name}, parts[0:i]...)
	for i := 0; i < len(result); i++ {
		result[i] = strings.ToLower(result[i])
	}
	if short == "" && len(result) > 1 {
		short = result[1]
	}
	return result[0], short
}

func bind(next func(*cobra.Command, []string) error, optional map[string]reflect.Value) func(*cobra.Command, []string) error {
	if next == nil {
		return nil
	}

	return func(cmd *cobra.Command, args []string) error {
		if err := assignOptional(cmd, optional); err != nil {
			return err
		}

		return next(cmd, args)
	}
}
