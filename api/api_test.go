package api

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixturePath(name string) string {
	_, f, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(f), "..", "testdata", name)
}

func resolveString(t *testing.T, src string) (*Description, error) {
	t.Helper()
	doc, err := DecodeTOML([]byte(src), "test.toml")
	require.NoError(t, err)
	return Resolve(doc)
}

func TestLoadFixture(t *testing.T) {
	d, err := Load(fixturePath("isl.toml"))
	require.NoError(t, err)

	assert.Equal(t, "isl_", d.Prefix)
	var names []string
	for _, c := range d.Classes {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{
		"isl_basic_set",
		"isl_schedule_node",
		"isl_schedule_node_band",
		"isl_schedule_node_domain",
		"isl_set",
		"isl_union_set",
		"isl_val",
	}, names)
	assert.Len(t, d.Enums, 2)

	set := d.Class("isl_set")
	require.NotNil(t, set)
	assert.Equal(t, "isl_set_copy", set.Copy)
	assert.Equal(t, "isl_set_free", set.Free)
	assert.Equal(t, "isl_set_get_ctx", set.GetContext)
	assert.Same(t, d.Function("isl_set_is_equal"), set.Equality)
	assert.Equal(t, []string{"dim", "foreach_basic_set", "intersect", "is_empty", "is_equal", "union"}, set.MethodNames())

	band := d.Class("isl_schedule_node_band")
	assert.True(t, band.IsSubclass())
	assert.Same(t, d.Class("isl_schedule_node"), band.Storage())
	assert.Equal(t, "isl_schedule_node_band", band.TagValue)
	assert.Equal(t, []*Class{band, d.Class("isl_schedule_node_domain")}, d.Subclasses(d.Class("isl_schedule_node")))
}

func TestResolveTypes(t *testing.T) {
	d, err := Load(fixturePath("isl.toml"))
	require.NoError(t, err)

	dim := d.Function("isl_set_dim")
	require.NotNil(t, dim)
	assert.Equal(t, KindInteger, dim.Return.Kind)
	assert.Equal(t, KindObject, dim.Params[0].Type.Kind)
	assert.Equal(t, Borrowed, dim.Params[0].Ownership)
	assert.Equal(t, KindEnum, dim.Params[1].Type.Kind)
	assert.Same(t, d.Enum("isl_dim_type"), dim.Params[1].Type.Enum)

	inter := d.Function("isl_set_intersect")
	assert.Equal(t, Transferred, inter.Params[1].Ownership)
	assert.True(t, inter.Gives)

	each := d.Function("isl_set_foreach_basic_set")
	assert.Equal(t, []int{1}, each.CallbackParams())
	cb := each.Params[1]
	assert.Equal(t, Callback, cb.Ownership)
	require.NotNil(t, cb.Type.Callback)
	assert.Equal(t, KindStat, cb.Type.Callback.Return.Kind)
	require.Len(t, cb.Type.Callback.Params, 1)
	assert.Same(t, d.Class("isl_basic_set"), cb.Type.Callback.Params[0].Class)
	assert.True(t, cb.Type.Callback.TakesArguments)

	every := d.Function("isl_schedule_node_every_descendant")
	assert.False(t, every.Params[1].Type.Callback.TakesArguments)

	assert.Equal(t, KindContext, d.Function("isl_val_zero").Params[0].Type.Kind)
	assert.Equal(t, KindString, d.Function("isl_set_to_str").Return.Kind)
}

func TestParseTypeSpellings(t *testing.T) {
	p := &typeParser{
		prefix:  "isl_",
		classes: map[string]*Class{"isl_map": {Name: "isl_map"}},
		enums:   map[string]*Enum{"isl_dim_type": {Name: "isl_dim_type"}},
	}
	tests := []struct {
		spelling string
		kind     Kind
		name     string
	}{
		{"void", KindVoid, "void"},
		{"isl_bool", KindBool, "isl_bool"},
		{"isl_stat", KindStat, "isl_stat"},
		{"isl_size", KindInteger, "isl_size"},
		{"unsigned int", KindInteger, "unsigned int"},
		{"enum isl_dim_type", KindEnum, "isl_dim_type"},
		{"const char *", KindString, "char"},
		{"__isl_take isl_map *", KindObject, "isl_map"},
		{"isl_map*", KindObject, "isl_map"},
		{"isl_ctx *", KindContext, "isl_ctx"},
		{"void *", KindPointer, "void"},
		{"isl_stat (*fn)(__isl_take isl_map *map, void *user)", KindCallback, "callback"},
	}
	for _, tt := range tests {
		t.Run(tt.spelling, func(t *testing.T) {
			got, err := p.parse(tt.spelling)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, got.Kind)
			assert.Equal(t, tt.name, got.Name)
			assert.Equal(t, tt.spelling, got.Spelling)
		})
	}

	for _, bad := range []string{
		"",
		"struct foo",
		"isl_unknown *",
		"isl_map **",
		"isl_stat (*fn)(isl_map *map)",
		"isl_stat (*fn)(isl_stat (*inner)(void *), void *user)",
		"void *(*fn)(void *user)",
	} {
		_, err := p.parse(bad)
		assert.Error(t, err, "%q should not parse", bad)
	}
}

func TestResolveReportsEveryProblem(t *testing.T) {
	_, err := resolveString(t, `
prefix = "isl_"

[[function]]
name = "isl_set_bogus"
returns = "isl_map *"
param = [{ name = "set", type = "isl_set *", ownership = "lend" }]

[[class]]
name = "isl_set"
constructors = ["isl_set_missing"]
supertypes = ["isl_union_set"]
`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidModel))

	var merr *ModelError
	require.True(t, errors.As(err, &merr))
	assert.Len(t, merr.List, 4)

	msg := err.Error()
	for _, want := range []string{
		`unrecognized type "isl_map *"`,
		`unknown ownership "lend"`,
		`unknown function "isl_set_missing"`,
		`unknown supertype "isl_union_set"`,
	} {
		assert.Contains(t, msg, want)
	}
	assert.True(t, strings.HasPrefix(msg, ErrInvalidModel.Error()))
}

func TestResolveErrorPositions(t *testing.T) {
	_, err := resolveString(t, `prefix = "isl_"

[[function]]
name = "isl_set_bogus"
returns = "isl_map *"

[[class]]
name = "isl_set"
supertypes = ["isl_union_set"]
`)
	var merr *ModelError
	require.True(t, errors.As(err, &merr))
	require.Len(t, merr.List, 2)

	assert.Equal(t, "test.toml", merr.List[0].Pos.Filename)
	assert.Equal(t, 3, merr.List[0].Pos.Line)
	assert.Equal(t, 7, merr.List[1].Pos.Line)
	assert.Contains(t, err.Error(), "test.toml:3:1: function[0] isl_set_bogus: return:")
	assert.Contains(t, err.Error(), "test.toml:7:1: class[0] isl_set: unknown supertype")
}

func TestDeclPositions(t *testing.T) {
	doc, err := DecodeTOML([]byte(`# header
prefix = "isl_"

[[enum]]
name = "isl_dim_type"

[[function]]
name = "isl_set_free"
param = [
  { name = "set", type = "isl_set *", ownership = "take" },
]

[[class]]
name = "isl_set"

[class.methods]
free = ["isl_set_free"]

[[class]]
name = "isl_map"
`), "pos.toml")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{
		"prefix":      2,
		"enum[0]":     4,
		"function[0]": 7,
		"class[0]":    13,
		"class[1]":    19,
	}, doc.Positions)
}

func TestResolveRequiresPrefix(t *testing.T) {
	_, err := resolveString(t, `[[class]]
name = "isl_set"
`)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidModel)
	assert.Contains(t, err.Error(), "prefix: missing prefix")

	_, err = resolveString(t, `prefix = ""
[[class]]
name = "isl_set"
`)
	var merr *ModelError
	require.True(t, errors.As(err, &merr))
	require.Len(t, merr.List, 1)
	assert.Equal(t, 1, merr.List[0].Pos.Line)
}

func TestResolveOwnershipAnnotations(t *testing.T) {
	d, err := resolveString(t, `
prefix = "isl_"

[[function]]
name = "isl_set_intersect"
returns = "__isl_give isl_set *"
param = [
  { name = "set1", type = "__isl_take isl_set *" },
  { name = "set2", type = "__isl_take isl_set *", ownership = "take" },
]

[[function]]
name = "isl_set_is_subset"
returns = "isl_bool"
param = [
  { name = "set1", type = "__isl_keep isl_set *" },
  { name = "set2", type = "__isl_keep isl_set *", ownership = "keep" },
]

[[class]]
name = "isl_set"
`)
	require.NoError(t, err)

	intersect := d.Function("isl_set_intersect")
	assert.True(t, intersect.Gives)
	assert.Equal(t, KindObject, intersect.Return.Kind)
	for _, p := range intersect.Params {
		assert.Equal(t, Transferred, p.Ownership, p.Name)
		assert.Equal(t, KindObject, p.Type.Kind)
	}

	subset := d.Function("isl_set_is_subset")
	assert.False(t, subset.Gives)
	for _, p := range subset.Params {
		assert.Equal(t, Borrowed, p.Ownership, p.Name)
	}
}

func TestResolveRejectsContradictoryOwnership(t *testing.T) {
	_, err := resolveString(t, `
prefix = "isl_"

[[function]]
name = "isl_set_intersect"
returns = "__isl_give isl_set *"
param = [
  { name = "set1", type = "__isl_take isl_set *", ownership = "keep" },
  { name = "set2", type = "__isl_keep isl_set *", ownership = "take" },
]

[[class]]
name = "isl_set"
`)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidModel)

	var merr *ModelError
	require.True(t, errors.As(err, &merr))
	assert.Len(t, merr.List, 2)
	assert.Contains(t, err.Error(), `param 0: ownership "keep" contradicts take annotation`)
	assert.Contains(t, err.Error(), `param 1: ownership "take" contradicts keep annotation`)
}

func TestResolveEqualityMustBeMethod(t *testing.T) {
	const decls = `
prefix = "isl_"

[[function]]
name = "isl_set_is_equal"
returns = "isl_bool"
param = [
  { name = "set1", type = "isl_set *" },
  { name = "set2", type = "isl_set *" },
]

[[class]]
name = "isl_set"
equality = "isl_set_is_equal"
`
	_, err := resolveString(t, decls)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidModel)
	assert.Contains(t, err.Error(), `equality "isl_set_is_equal" is not one of the class methods`)

	d, err := resolveString(t, decls+`
[class.methods]
is_equal = ["isl_set_is_equal"]
`)
	require.NoError(t, err)
	assert.Same(t, d.Function("isl_set_is_equal"), d.Class("isl_set").Equality)
}

func TestResolveSubclassRules(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			"parent without type tag",
			`
prefix = "isl_"
[[class]]
name = "isl_node"
[[class]]
name = "isl_node_leaf"
parent = "isl_node"
tag_value = "isl_node_leaf"
`,
			`parent "isl_node" has no type_tag function`,
		},
		{
			"missing tag value",
			`
prefix = "isl_"
[[class]]
name = "isl_node"
[[class]]
name = "isl_node_leaf"
parent = "isl_node"
`,
			`without tag_value`,
		},
		{
			"unknown parent",
			`
prefix = "isl_"
[[class]]
name = "isl_node_leaf"
parent = "isl_node"
tag_value = "isl_node_leaf"
`,
			`unknown parent "isl_node"`,
		},
		{
			"tag value without parent",
			`
prefix = "isl_"
[[class]]
name = "isl_node"
tag_value = "isl_node_leaf"
`,
			`without parent`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolveString(t, tt.src)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidModel)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestResolveDuplicates(t *testing.T) {
	_, err := resolveString(t, `
prefix = "isl_"
[[class]]
name = "isl_set"
[[class]]
name = "isl_set"
`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate class")
}

func TestDecodeTOMLRejectsUnknownKeys(t *testing.T) {
	_, err := DecodeTOML([]byte("prefix = \"isl_\"\nsuffix = \"x\"\n"), "extra.toml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown keys: suffix")

	_, err = DecodeTOML([]byte("prefix = \n"), "broken.toml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.toml")
}

func TestParamNamesDefault(t *testing.T) {
	d, err := resolveString(t, `
prefix = "isl_"
[[function]]
name = "isl_set_free"
returns = "isl_set *"
param = [{ type = "isl_set *", ownership = "take" }]
[[class]]
name = "isl_set"
`)
	require.NoError(t, err)
	assert.Equal(t, "arg0", d.Function("isl_set_free").Params[0].Name)
}

func TestSnapshotRoundTrip(t *testing.T) {
	doc, err := ReadDocument(fixturePath("isl.toml"))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "isl.cbor")
	require.NoError(t, WriteSnapshot(path, doc))

	again, err := ReadDocument(path)
	require.NoError(t, err)
	assert.Equal(t, path, again.Source)
	again.Source = doc.Source
	assert.Empty(t, again.Positions)
	again.Positions = doc.Positions
	assert.Equal(t, doc, again)

	// Canonical encoding: the same document yields the same bytes.
	first, err := os.ReadFile(path)
	require.NoError(t, err)
	second, err := MarshalSnapshot(again)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	_, err = Load(path)
	require.NoError(t, err)
}

func TestUnmarshalSnapshotGarbage(t *testing.T) {
	_, err := UnmarshalSnapshot([]byte{0xff, 0x00}, "junk.cbor")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "junk.cbor")
}

func TestIsSubtype(t *testing.T) {
	d, err := Load(fixturePath("isl.toml"))
	require.NoError(t, err)

	bset := d.Class("isl_basic_set")
	set := d.Class("isl_set")
	uset := d.Class("isl_union_set")
	node := d.Class("isl_schedule_node")
	band := d.Class("isl_schedule_node_band")

	assert.True(t, IsSubtype(bset, set))
	assert.True(t, IsSubtype(bset, uset))
	assert.True(t, IsSubtype(band, node))
	assert.False(t, IsSubtype(set, bset))
	assert.False(t, IsSubtype(set, set))
	assert.False(t, IsSubtype(node, band))
}

func TestOwnership(t *testing.T) {
	for in, want := range map[string]Ownership{"": Borrowed, "keep": Borrowed, "take": Transferred, "callback": Callback} {
		got, ok := ParseOwnership(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseOwnership("give")
	assert.False(t, ok)
	assert.Equal(t, "take", Transferred.String())
}
