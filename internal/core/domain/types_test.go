package domain_test

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/knob/internal/core/domain"
)

type label string

func (l label) String() string { return string(l) }

type code int

func (c code) String() string { return fmt.Sprintf("#%d", int(c)) }

func TestAssignable(t *testing.T) {
	t.Parallel()

	assert.True(t, domain.Assignable(1, domain.TypeOf[int]()))
	assert.True(t, domain.Assignable(1, domain.TypeOf[any]()))
	assert.True(t, domain.Assignable(nil, domain.TypeOf[[]string]()))
	assert.True(t, domain.Assignable(label("x"), domain.TypeOf[fmt.Stringer]()))
	assert.False(t, domain.Assignable(nil, domain.TypeOf[int]()))
	assert.False(t, domain.Assignable("1", domain.TypeOf[int]()))
	assert.False(t, domain.Assignable(1, nil))
}

func TestCompatible(t *testing.T) {
	t.Parallel()

	stringer := domain.TypeOf[fmt.Stringer]()
	assert.True(t, domain.Compatible(domain.TypeOf[label](), label("a"), stringer))
	assert.True(t, domain.Compatible(domain.TypeOf[any](), 5, domain.TypeOf[int]()), "dynamic type decides for interfaces")
	assert.False(t, domain.Compatible(domain.TypeOf[int](), 5, domain.TypeOf[string]()))
}

func TestCommonType(t *testing.T) {
	t.Parallel()

	stringer := domain.TypeOf[fmt.Stringer]()

	tests := []struct {
		name     string
		def      any
		init     any
		families []reflect.Type
		want     reflect.Type
		wantErr  bool
	}{
		{name: "same type", def: 1, init: 2, want: domain.TypeOf[int]()},
		{name: "nil default", def: nil, init: "x", want: domain.TypeOf[string]()},
		{name: "nil initial", def: "x", init: nil, want: domain.TypeOf[string]()},
		{name: "family", def: label("a"), init: code(1), families: []reflect.Type{stringer}, want: stringer},
		{name: "non interface family ignored", def: label("a"), init: code(1), families: []reflect.Type{domain.TypeOf[int]()}, wantErr: true},
		{name: "no family", def: label("a"), init: code(1), wantErr: true},
		{name: "both nil", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := domain.CommonType(tt.def, tt.init, tt.families...)
			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrIncompatibleDefaults)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTypeNames(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"string", "int", "int64", "float64", "bool", "duration", "strings", "json", "applied_migrations"} {
		typ, err := domain.ResolveType(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, domain.TypeName(typ))
	}

	_, err := domain.ResolveType("complex128")
	require.ErrorIs(t, err, domain.ErrUnknownType)
	assert.Equal(t, "domain_test.label", domain.TypeName(domain.TypeOf[label]()))
}

func TestDecodeTarget(t *testing.T) {
	t.Parallel()

	target, err := domain.DecodeTarget("k", "int", domain.TypeOf[int]())
	require.NoError(t, err)
	assert.Equal(t, domain.TypeOf[int](), target)

	target, err = domain.DecodeTarget("k", "int", domain.TypeOf[any]())
	require.NoError(t, err)
	assert.Equal(t, domain.TypeOf[int](), target)

	target, err = domain.DecodeTarget("k", "json", domain.TypeOf[map[string]int]())
	require.NoError(t, err)
	assert.Equal(t, domain.TypeOf[map[string]int](), target)

	_, err = domain.DecodeTarget("k", "string", domain.TypeOf[int]())
	require.ErrorIs(t, err, domain.ErrTypeMismatch)
}

func TestEncodeDecodeValue(t *testing.T) {
	t.Parallel()

	data, err := domain.EncodeValue(domain.AppliedMigrations{"": {"a", "b"}})
	require.NoError(t, err)

	v, err := domain.DecodeValue(data, domain.TypeOf[domain.AppliedMigrations]())
	require.NoError(t, err)
	assert.Equal(t, domain.AppliedMigrations{"": {"a", "b"}}, v)

	_, err = domain.DecodeValue([]byte("{"), domain.TypeOf[int]())
	require.Error(t, err)
}

func TestParseAndFormatValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		typ  reflect.Type
		want any
		text string
	}{
		{raw: "hello", typ: domain.TypeOf[string](), want: "hello", text: "hello"},
		{raw: "42", typ: domain.TypeOf[int](), want: 42, text: "42"},
		{raw: "42", typ: domain.TypeOf[int64](), want: int64(42), text: "42"},
		{raw: "1.5", typ: domain.TypeOf[float64](), want: 1.5, text: "1.5"},
		{raw: "true", typ: domain.TypeOf[bool](), want: true, text: "true"},
		{raw: "1m30s", typ: domain.TypeOf[time.Duration](), want: 90 * time.Second, text: "1m30s"},
		{raw: "a, b", typ: domain.TypeOf[[]string](), want: []string{"a", "b"}, text: "a,b"},
		{raw: `{"x":1}`, typ: domain.TypeOf[map[string]int](), want: map[string]int{"x": 1}, text: `{"x":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			t.Parallel()
			got, err := domain.ParseValue(tt.raw, tt.typ)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.text, domain.FormatValue(got))
		})
	}

	_, err := domain.ParseValue("nope", domain.TypeOf[bool]())
	require.ErrorIs(t, err, domain.ErrInvalidValue)
}

func TestCoerceValue(t *testing.T) {
	t.Parallel()

	got, err := domain.CoerceValue(3, domain.TypeOf[int64]())
	require.NoError(t, err)
	assert.Equal(t, int64(3), got)

	got, err = domain.CoerceValue("2s", domain.TypeOf[time.Duration]())
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, got)

	got, err = domain.CoerceValue(nil, domain.TypeOf[int]())
	require.NoError(t, err)
	assert.Equal(t, 0, got)

	got, err = domain.CoerceValue(map[string]any{"ui": []any{"a"}}, domain.TypeOf[domain.AppliedMigrations]())
	require.NoError(t, err)
	assert.Equal(t, domain.AppliedMigrations{"ui": {"a"}}, got)
}
