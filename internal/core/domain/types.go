package domain

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.trai.ch/zerr"
)

// TypeOf returns the type descriptor of T. Interface types are preserved.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeFor[T]()
}

var anyType = reflect.TypeFor[any]()

// Assignable reports whether value can be stored in a setting declared as typ.
// A nil value is only assignable to types that have a nil value.
func Assignable(value any, typ reflect.Type) bool {
	if typ == nil {
		return false
	}
	if value == nil {
		switch typ.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return true
		default:
			return false
		}
	}
	return reflect.TypeOf(value).AssignableTo(typ)
}

// Compatible reports whether a setting registered as registered can be read as requested.
// The dynamic type of value is consulted when the registered type is an interface.
func Compatible(registered reflect.Type, value any, requested reflect.Type) bool {
	if registered != nil && registered.AssignableTo(requested) {
		return true
	}
	return value != nil && reflect.TypeOf(value).AssignableTo(requested)
}

// CommonType infers the declared type of a setting from its default and initial values.
// Either value's type wins when the other is assignable to it. Otherwise the first of
// families that both values implement is used; the empty interface never qualifies.
func CommonType(defaultValue, initialValue any, families ...reflect.Type) (reflect.Type, error) {
	switch {
	case defaultValue == nil && initialValue == nil:
		return nil, zerr.Wrap(ErrIncompatibleDefaults, "cannot infer a type from two nil values")
	case defaultValue == nil:
		return reflect.TypeOf(initialValue), nil
	case initialValue == nil:
		return reflect.TypeOf(defaultValue), nil
	}

	dt := reflect.TypeOf(defaultValue)
	it := reflect.TypeOf(initialValue)
	if it.AssignableTo(dt) {
		return dt, nil
	}
	if dt.AssignableTo(it) {
		return it, nil
	}

	for _, family := range families {
		if family == nil || family.Kind() != reflect.Interface || family == anyType {
			continue
		}
		if dt.Implements(family) && it.Implements(family) {
			return family, nil
		}
	}

	err := zerr.With(zerr.Wrap(ErrIncompatibleDefaults, "no common type"), "default_type", dt.String())
	return nil, zerr.With(err, "initial_type", it.String())
}

var (
	typeRegistryMu sync.RWMutex
	typesByName    = map[string]reflect.Type{
		"string":             TypeOf[string](),
		"int":                TypeOf[int](),
		"int64":              TypeOf[int64](),
		"float64":            TypeOf[float64](),
		"bool":               TypeOf[bool](),
		"duration":           TypeOf[time.Duration](),
		"strings":            TypeOf[[]string](),
		"json":               TypeOf[any](),
		"applied_migrations": TypeOf[AppliedMigrations](),
	}
	namesByType = func() map[reflect.Type]string {
		m := make(map[reflect.Type]string, len(typesByName))
		for name, typ := range typesByName {
			m[typ] = name
		}
		return m
	}()
)

// RegisterType makes a type resolvable by name for persistent backends and the CLI.
func RegisterType(name string, typ reflect.Type) {
	typeRegistryMu.Lock()
	defer typeRegistryMu.Unlock()
	typesByName[name] = typ
	namesByType[typ] = name
}

// ResolveType returns the type registered under name.
func ResolveType(name string) (reflect.Type, error) {
	typeRegistryMu.RLock()
	defer typeRegistryMu.RUnlock()
	typ, ok := typesByName[name]
	if !ok {
		return nil, zerr.With(zerr.Wrap(ErrUnknownType, "unresolvable type name"), "type", name)
	}
	return typ, nil
}

// TypeName returns the persisted name of typ. Unregistered types use their Go type string.
func TypeName(typ reflect.Type) string {
	typeRegistryMu.RLock()
	defer typeRegistryMu.RUnlock()
	if name, ok := namesByType[typ]; ok {
		return name
	}
	return typ.String()
}

// DecodeTarget checks a persisted type name against the requested type and returns the
// type the stored payload should be decoded into.
func DecodeTarget(key, storedName string, requested reflect.Type) (reflect.Type, error) {
	typeRegistryMu.RLock()
	stored, ok := typesByName[storedName]
	typeRegistryMu.RUnlock()

	if ok {
		if stored.AssignableTo(requested) {
			return stored, nil
		}
		// Values registered as json are decoded generically and checked afterwards.
		if stored == anyType {
			return requested, nil
		}
	} else if storedName == requested.String() {
		return requested, nil
	}

	err := zerr.With(zerr.Wrap(ErrTypeMismatch, "stored type does not match requested type"), "key", key)
	err = zerr.With(err, "stored_type", storedName)
	return nil, zerr.With(err, "requested_type", requested.String())
}

// EncodeValue serializes a setting value for persistent backends.
func EncodeValue(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, zerr.Wrap(err, ErrStoreMarshalFailed.Error())
	}
	return data, nil
}

// DecodeValue deserializes a payload produced by EncodeValue into a value of typ.
func DecodeValue(data []byte, typ reflect.Type) (any, error) {
	target := reflect.New(typ)
	if err := json.Unmarshal(data, target.Interface()); err != nil {
		return nil, zerr.Wrap(err, ErrStoreUnmarshalFailed.Error())
	}
	return target.Elem().Interface(), nil
}

// CoerceValue converts a loosely typed value, as produced by a YAML or JSON decoder, into typ.
func CoerceValue(value any, typ reflect.Type) (any, error) {
	if value == nil {
		if Assignable(nil, typ) {
			return nil, nil
		}
		return reflect.Zero(typ).Interface(), nil
	}
	if Assignable(value, typ) {
		return value, nil
	}
	if s, ok := value.(string); ok {
		return ParseValue(s, typ)
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(ErrInvalidValue, err.Error()), "type", typ.String())
	}
	v, err := DecodeValue(data, typ)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(ErrInvalidValue, err.Error()), "type", typ.String())
	}
	return v, nil
}

// ParseValue converts command line text into a value of typ.
func ParseValue(raw string, typ reflect.Type) (any, error) {
	var (
		v   any
		err error
	)
	switch typ {
	case TypeOf[string]():
		return raw, nil
	case TypeOf[time.Duration]():
		v, err = time.ParseDuration(raw)
	case TypeOf[bool]():
		v, err = strconv.ParseBool(raw)
	case TypeOf[int]():
		v, err = strconv.Atoi(raw)
	case TypeOf[int64]():
		v, err = strconv.ParseInt(raw, 10, 64)
	case TypeOf[float64]():
		v, err = strconv.ParseFloat(raw, 64)
	case TypeOf[[]string]():
		if raw == "" {
			return []string{}, nil
		}
		parts := strings.Split(raw, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts, nil
	default:
		v, err = DecodeValue([]byte(raw), typ)
	}
	if err != nil {
		return nil, zerr.With(zerr.Wrap(ErrInvalidValue, err.Error()), "type", typ.String())
	}
	return v, nil
}

// FormatValue renders a setting value for command line output.
func FormatValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case time.Duration:
		return v.String()
	case []string:
		return strings.Join(v, ",")
	case fmt.Stringer:
		return v.String()
	case int, int64, float64, bool:
		return fmt.Sprint(v)
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(data)
}
