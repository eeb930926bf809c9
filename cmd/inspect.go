package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/rubiojr/cppbind/api"
	"github.com/rubiojr/cppbind/bindgen"
)

const (
	colorCtor   = "\033[32m"
	colorStatic = "\033[33m"
	colorMember = "\033[36m"
	colorReset  = "\033[0m"
)

// printClassification lists every class of d with the kind of each of
// its functions, the way the generator will treat them.
func printClassification(w io.Writer, d *api.Description, color bool) error {
	counts := map[bindgen.MethodKind]int{}
	var classes []string
	for _, c := range d.Classes {
		var sb strings.Builder
		header := c.Name
		if c.IsSubclass() {
			header += fmt.Sprintf(" : %s [%s]", c.Parent.Name, c.TagValue)
		}
		if c.TypeTag != nil {
			header += " (type tag " + c.TypeTag.Name + ")"
		}
		fmt.Fprintf(&sb, "%s\n", header)

		for _, m := range bindgen.ClassifyClass(c) {
			counts[m.Kind]++
			marker, col := "✓", colorMember
			switch m.Kind {
			case bindgen.KindConstructor:
				marker, col = "+", colorCtor
			case bindgen.KindStatic:
				marker, col = "~", colorStatic
			}
			if !color {
				col = ""
			}
			reset := ""
			if col != "" {
				reset = colorReset
			}
			line := fmt.Sprintf("  %s %-28s → %-30s %s[%s]%s", marker, m.Func.Name, m.Name, col, m.Kind, reset)
			var notes []string
			if m.Kind == bindgen.KindConstructor {
				if m.Implicit {
					notes = append(notes, "implicit")
				} else {
					notes = append(notes, "explicit")
				}
			}
			if m.Narrowed {
				notes = append(notes, "returns "+c.Name)
			}
			if len(m.Func.CallbackParams()) > 0 {
				notes = append(notes, "callback")
			}
			if len(notes) > 0 {
				line += "  // " + strings.Join(notes, ", ")
			}
			fmt.Fprintln(&sb, line)
		}
		classes = append(classes, sb.String())
	}

	if _, err := fmt.Fprintf(w, "Prefix: %s\n", d.Prefix); err != nil {
		return err
	}
	fmt.Fprintf(w, "Total: %d classes, %d enums\n", len(d.Classes), len(d.Enums))
	fmt.Fprintf(w, "  constructors: %d\n", counts[bindgen.KindConstructor])
	fmt.Fprintf(w, "  static:       %d\n", counts[bindgen.KindStatic])
	fmt.Fprintf(w, "  member:       %d\n\n", counts[bindgen.KindMember])
	_, err := io.WriteString(w, strings.Join(classes, "\n"))
	return err
}
