package bindgen

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rubiojr/cppbind/api"
)

func fixturePath(name string) string {
	_, f, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(f), "..", "testdata", name)
}

// loadISL resolves the shared isl fixture.
func loadISL(t *testing.T) *api.Description {
	t.Helper()
	d, err := api.Load(fixturePath("isl.toml"))
	require.NoError(t, err)
	return d
}

// describe resolves an inline TOML description.
func describe(t *testing.T, src string) *api.Description {
	t.Helper()
	doc, err := api.DecodeTOML([]byte(src), "inline.toml")
	require.NoError(t, err)
	d, err := api.Resolve(doc)
	require.NoError(t, err)
	return d
}

func render(t *testing.T, d *api.Description, mode Mode) string {
	t.Helper()
	out, err := Render(d, Options{Mode: mode})
	require.NoError(t, err)
	return out
}

func method(t *testing.T, d *api.Description, class, name string) *api.Function {
	t.Helper()
	c := d.Class(class)
	require.NotNil(t, c, "class %s", class)
	fns := c.Methods[name]
	require.Len(t, fns, 1, "%s.%s", class, name)
	return fns[0]
}
