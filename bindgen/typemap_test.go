package bindgen

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rubiojr/cppbind/api"
)

func TestMapTypeBothModes(t *testing.T) {
	d := loadISL(t)
	m := TypeMapper{Prefix: "isl_", Namespace: "isl"}

	tests := []struct {
		name string
		typ  api.Type
		exc  string
		stat string
	}{
		{"object", method(t, d, "isl_set", "intersect").Return, "isl::set", "isl::set"},
		{"bool", method(t, d, "isl_set", "is_empty").Return, "bool", "isl::boolean"},
		{"stat", method(t, d, "isl_set", "foreach_basic_set").Return, "void", "isl::stat"},
		{"enum", method(t, d, "isl_set", "dim").Params[1].Type, "isl::dim_type", "isl::dim_type"},
		{"size", method(t, d, "isl_set", "dim").Return, "isl_size", "isl_size"},
		{"integer", method(t, d, "isl_val", "get_num_si").Return, "long", "long"},
		{"context", d.Function("isl_val_zero").Params[0].Type, "isl::ctx", "isl::ctx"},
		{"string", d.Function("isl_set_read_from_str").Params[1].Type, "std::string", "std::string"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.MapType(tt.typ, ModeExceptions)
			require.NoError(t, err)
			assert.Equal(t, tt.exc, got.Name)

			got, err = m.MapType(tt.typ, ModeStatusCodes)
			require.NoError(t, err)
			assert.Equal(t, tt.stat, got.Name)
		})
	}
}

func TestMapTypeCallback(t *testing.T) {
	d := loadISL(t)
	m := TypeMapper{Prefix: "isl_", Namespace: "isl"}
	cb := method(t, d, "isl_set", "foreach_basic_set").Params[1].Type

	got, err := m.MapType(cb, ModeExceptions)
	require.NoError(t, err)
	assert.Equal(t, "std::function<void(isl::basic_set)>", got.Name)

	got, err = m.MapType(cb, ModeStatusCodes)
	require.NoError(t, err)
	assert.Equal(t, "std::function<isl::stat(isl::basic_set)>", got.Name)
}

func TestMapTypeObjectKeepsClassIdentity(t *testing.T) {
	d := loadISL(t)
	m := TypeMapper{Prefix: "isl_", Namespace: "isl"}
	got, err := m.MapType(method(t, d, "isl_schedule_node", "parent").Return, ModeExceptions)
	require.NoError(t, err)
	assert.Same(t, d.Class("isl_schedule_node"), got.Class)
}

func TestMapTypeUnmappable(t *testing.T) {
	m := TypeMapper{Prefix: "isl_", Namespace: "isl"}
	_, err := m.MapType(api.Type{Kind: api.KindPointer, Name: "void", Spelling: "void *"}, ModeExceptions)
	require.Error(t, err)
	if !errors.Is(err, ErrUnmappableType) {
		t.Errorf("err = %v, want ErrUnmappableType", err)
	}
}

func TestEnumeratorNames(t *testing.T) {
	d := loadISL(t)
	m := TypeMapper{Prefix: "isl_", Namespace: "isl"}
	dim := d.Enum("isl_dim_type")
	require.NotNil(t, dim)

	assert.Equal(t, "isl::dim_type", m.EnumName(dim))
	assert.Equal(t, "param", m.EnumeratorName(dim, "isl_dim_param"))
	assert.Equal(t, "in", m.EnumeratorName(dim, "isl_dim_in"))

	node := d.Enum("isl_schedule_node_type")
	assert.Equal(t, "band", m.EnumeratorName(node, "isl_schedule_node_band"))
	assert.Equal(t, "error", m.EnumeratorName(node, "isl_schedule_node_error"))
}

func TestEnumRoundTripPreservesDiscriminants(t *testing.T) {
	d := loadISL(t)
	m := TypeMapper{Prefix: "isl_", Namespace: "isl"}
	for _, e := range d.Enums {
		for _, v := range e.Values {
			target, value, ok := m.MapEnumValue(e, v.Name)
			require.True(t, ok, v.Name)
			assert.Equal(t, v.Value, value, v.Name)

			back, backValue, ok := m.UnmapEnumValue(e, target)
			require.True(t, ok, target)
			assert.Equal(t, v.Value, backValue, target)
			// Aliased discriminants (isl_dim_out and isl_dim_set) keep
			// distinct enumerator names.
			assert.Equal(t, v.Name, back)
		}
	}

	_, _, ok := m.MapEnumValue(d.Enum("isl_dim_type"), "isl_dim_bogus")
	assert.False(t, ok)
}

func TestBoolAndStatTypes(t *testing.T) {
	m := TypeMapper{Prefix: "isl_", Namespace: "isl"}
	assert.Equal(t, "bool", m.BoolType(ModeExceptions))
	assert.Equal(t, "isl::boolean", m.BoolType(ModeStatusCodes))
	assert.Equal(t, "void", m.StatType(ModeExceptions))
	assert.Equal(t, "isl::stat", m.StatType(ModeStatusCodes))
}
