package bindgen

import (
	"fmt"
	"io"

	"github.com/rubiojr/cppbind/api"
)

// Generate renders the bindings of d in opts.Mode and writes them to w.
// Nothing is written when the description cannot be mapped.
func Generate(w io.Writer, d *api.Description, opts Options) error {
	text, err := Render(d, opts)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, text)
	return err
}

// Render returns the bindings of d in opts.Mode as a string.
func Render(d *api.Description, opts Options) (string, error) {
	opts, err := opts.withDefaults(d.Prefix)
	if err != nil {
		return "", err
	}
	e := newEmitter(d, opts)
	if err := e.plan(); err != nil {
		return "", err
	}
	log.Infof("generating %d classes in %s mode", len(e.plans), opts.Mode)

	w := e.w
	if opts.Preamble {
		e.emitHeaderTop()
	}
	w.Blank()
	w.Line("namespace %s {", opts.Namespace)
	w.Blank()
	if opts.Mode == ModeStatusCodes {
		w.Line("inline namespace %s {", opts.InlineNamespace)
		w.Blank()
	}
	if opts.Preamble {
		e.emitSupportTypes()
	}

	e.emitForwardDecls()
	w.Blank()
	e.emitDeclarations()
	w.Blank()
	if err := e.emitImplementations(); err != nil {
		return "", err
	}

	if opts.Mode == ModeStatusCodes {
		w.Line("} // namespace %s", opts.InlineNamespace)
	}
	w.Line("} // namespace %s", opts.Namespace)
	if opts.Preamble {
		e.emitHeaderBottom()
	}
	return w.String(), nil
}

// Output is the rendering of one mode.
type Output struct {
	Mode Mode
	Text string
}

// GenerateAll renders d once per emission mode, exceptions first. Each
// run receives its own copy of opts with the mode set. A caller-supplied
// header guard gets a per-mode suffix so both headers can be included in
// one translation unit.
func GenerateAll(d *api.Description, opts Options) ([]Output, error) {
	var outs []Output
	for _, mode := range []Mode{ModeExceptions, ModeStatusCodes} {
		o := opts
		o.Mode = mode
		if o.HeaderGuard != "" && mode == ModeStatusCodes {
			o.HeaderGuard += "_NOEXCEPTIONS"
		}
		text, err := Render(d, o)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", mode, err)
		}
		outs = append(outs, Output{Mode: mode, Text: text})
	}
	return outs, nil
}
