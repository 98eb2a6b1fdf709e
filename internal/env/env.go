package env

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Validator is implemented by config structs that need validation.
type Validator interface {
	Validate() error
}

// ErrInvalidValue is returned when an environment variable or default value cannot be parsed.
type ErrInvalidValue struct {
	Field  string
	EnvVar string
	Value  string
	Err    error
}

func (e ErrInvalidValue) Error() string {
	return fmt.Sprintf("invalid value for %s=%q (field: %s): %v", e.EnvVar, e.Value, e.Field, e.Err)
}

func (e ErrInvalidValue) Unwrap() error {
	return e.Err
}

// ErrNotStructPointer is returned when Load is called with a non-pointer or non-struct argument.
type ErrNotStructPointer struct {
	Type string
}

func (e ErrNotStructPointer) Error() string {
	return fmt.Sprintf("env.Load: argument must be a pointer to struct, got %s", e.Type)
}

// ErrUnsupportedType is returned when a field has an unsupported type.
type ErrUnsupportedType struct {
	Kind string
}

func (e ErrUnsupportedType) Error() string {
	return fmt.Sprintf("unsupported type: %s", e.Kind)
}

var (
	durationType = reflect.TypeOf(time.Duration(0))
	timeType     = reflect.TypeOf(time.Time{})
)

// Parse applies defaults and then environment variables, and validates the result.
//
// Supported struct tags:
//   - env:"VAR_NAME" - maps field to environment variable VAR_NAME
//   - default:"value" - used when VAR_NAME is not set
//
// Supported field types:
//   - string
//   - int, int8, int16, int32, int64
//   - bool
//   - time.Duration (parses Go duration strings like "5s", "1m30s")
//   - []string (comma separated)
//
// A variable that is set but empty is respected for strings and is a parse
// error for every other type.
func Parse(v any) error {
	if err := SetDefaults(v); err != nil {
		return err
	}
	return Load(v)
}

// SetDefaults writes every default tag into its field, without looking at
// the environment. Callers layering a config file between defaults and the
// environment call SetDefaults, decode the file, then Load.
func SetDefaults(v any) error {
	ptrVal, err := structPointer(v)
	if err != nil {
		return err
	}
	return walk(ptrVal.Elem(), func(field reflect.Value, sf reflect.StructField) error {
		def, ok := sf.Tag.Lookup("default")
		if !ok {
			return nil
		}
		if err := setField(field, def); err != nil {
			return ErrInvalidValue{Field: sf.Name, EnvVar: sf.Tag.Get("env"), Value: def, Err: err}
		}
		return nil
	})
}

// Load overlays set environment variables onto the provided struct pointer.
// After parsing, it validates the root and any nested struct that implements Validator.
// Unset variables leave the field untouched.
func Load(v any) error {
	ptrVal, err := structPointer(v)
	if err != nil {
		return err
	}

	err = walk(ptrVal.Elem(), func(field reflect.Value, sf reflect.StructField) error {
		envKey := sf.Tag.Get("env")
		if envKey == "" {
			return nil
		}

		envVal, exists := os.LookupEnv(envKey)
		if !exists {
			return nil
		}

		if err := setField(field, envVal); err != nil {
			return ErrInvalidValue{
				Field:  sf.Name,
				EnvVar: envKey,
				Value:  envVal,
				Err:    err,
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	return validate(ptrVal.Elem())
}

func structPointer(v any) (reflect.Value, error) {
	ptrVal := reflect.ValueOf(v)
	if ptrVal.Kind() != reflect.Pointer || ptrVal.IsNil() || ptrVal.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, ErrNotStructPointer{Type: fmt.Sprintf("%T", v)}
	}
	return ptrVal, nil
}

// walk calls fn for every settable leaf field, descending into nested structs.
func walk(val reflect.Value, fn func(reflect.Value, reflect.StructField) error) error {
	typ := val.Type()

	for i := range val.NumField() {
		field := val.Field(i)
		structField := typ.Field(i)

		if !field.CanSet() {
			continue
		}

		if field.Kind() == reflect.Struct && field.Type() != timeType {
			if err := walk(field, fn); err != nil {
				return err
			}
			continue
		}

		if err := fn(field, structField); err != nil {
			return err
		}
	}
	return nil
}

// validate runs Validate on nested structs first, then on val itself.
func validate(val reflect.Value) error {
	for i := range val.NumField() {
		field := val.Field(i)
		if !field.CanSet() || field.Kind() != reflect.Struct || field.Type() == timeType {
			continue
		}
		if err := validate(field); err != nil {
			return err
		}
	}

	if val.CanAddr() {
		if validator, ok := val.Addr().Interface().(Validator); ok {
			return validator.Validate()
		}
	}
	return nil
}

func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
		return nil

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
		return nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == durationType {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
			return nil
		}

		i, err := strconv.ParseInt(value, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetInt(i)
		return nil

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return ErrUnsupportedType{Kind: "[]" + field.Type().Elem().Kind().String()}
		}
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		field.Set(reflect.ValueOf(out))
		return nil

	default:
		return ErrUnsupportedType{Kind: field.Kind().String()}
	}
}
