// Package api holds the description of a foreign C API as produced by an
// extractor: opaque classes, free functions, enums and callback types.
//
// A Description is built once by Resolve and is read-only afterwards.
package api

import "sort"

// Ownership describes how a function treats an object argument.
type Ownership int

const (
	Borrowed    Ownership = iota // callee reads, never retains or frees
	Transferred                  // callee takes ownership and frees eventually
	Callback                     // function pointer plus opaque context pair
)

func (o Ownership) String() string {
	switch o {
	case Borrowed:
		return "keep"
	case Transferred:
		return "take"
	case Callback:
		return "callback"
	default:
		return "unknown"
	}
}

// ParseOwnership converts the serialized ownership tag to an Ownership.
// An empty tag means borrowed.
func ParseOwnership(s string) (Ownership, bool) {
	switch s {
	case "", "keep":
		return Borrowed, true
	case "take":
		return Transferred, true
	case "callback":
		return Callback, true
	default:
		return Borrowed, false
	}
}

// Param is one parameter of a foreign function.
type Param struct {
	Name      string
	Type      Type
	Ownership Ownership
}

// Keeps reports whether the callee only borrows the argument.
func (p *Param) Keeps() bool { return p.Ownership == Borrowed }

// Function is one foreign callable.
type Function struct {
	Name   string
	Return Type
	// Gives is set when the result is handed to the caller, who must free it.
	Gives  bool
	Params []*Param
}

// CallbackParams returns the index of every callback parameter.
func (f *Function) CallbackParams() []int {
	var idx []int
	for i, p := range f.Params {
		if p.Type.Kind == KindCallback {
			idx = append(idx, i)
		}
	}
	return idx
}

// Enum is a foreign enumeration.
type Enum struct {
	Name   string
	Values []EnumValue
}

// EnumValue is a single enumerator and its discriminant.
type EnumValue struct {
	Name  string
	Value int64
}

// Class is one opaque foreign object type.
type Class struct {
	Name string

	// Methods maps the logical method name to its overloads.
	Methods      map[string][]*Function
	Constructors []*Function

	// TypeTag returns the discriminator of an instance. Only set on
	// classes that have type-tag subclasses.
	TypeTag *Function

	// Parent and TagValue are only set on type-tag subclasses.
	Parent   *Class
	TagValue string

	// Supertypes are the declared (non tag based) superclasses.
	Supertypes []*Class

	Equality  *Function
	Stringify *Function

	Copy       string
	Free       string
	GetContext string
}

// IsSubclass reports whether c is a type-tag subclass sharing its
// parent's storage.
func (c *Class) IsSubclass() bool { return c.Parent != nil }

// Storage returns the root class whose pointer field holds instances of c.
func (c *Class) Storage() *Class {
	for c.Parent != nil {
		c = c.Parent
	}
	return c
}

// MethodNames returns the logical method names in sorted order.
func (c *Class) MethodNames() []string {
	names := make([]string, 0, len(c.Methods))
	for name := range c.Methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Description is the complete, resolved foreign API.
type Description struct {
	// Prefix is the foreign namespace prefix, e.g. "isl_".
	Prefix string

	// Classes are sorted by name, with every type-tag parent placed
	// before its subclasses.
	Classes   []*Class
	Enums     []*Enum
	Functions []*Function

	classes map[string]*Class
	enums   map[string]*Enum
	funcs   map[string]*Function
}

// Class looks up a class by foreign name.
func (d *Description) Class(name string) *Class { return d.classes[name] }

// Enum looks up an enum by foreign name.
func (d *Description) Enum(name string) *Enum { return d.enums[name] }

// Function looks up a function by foreign name.
func (d *Description) Function(name string) *Function { return d.funcs[name] }

// Subclasses returns the type-tag subclasses of c in description order.
func (d *Description) Subclasses(c *Class) []*Class {
	var subs []*Class
	for _, cl := range d.Classes {
		if cl.Parent == c {
			subs = append(subs, cl)
		}
	}
	return subs
}

// IsSubtype reports whether sub is a transitive subtype of super through
// declared supertypes or type-tag parents. A class is not its own subtype.
func IsSubtype(sub, super *Class) bool {
	seen := map[*Class]bool{sub: true}
	work := parentsOf(sub)
	for len(work) > 0 {
		cand := work[len(work)-1]
		work = work[:len(work)-1]
		if cand == super {
			return true
		}
		if seen[cand] {
			continue
		}
		seen[cand] = true
		work = append(work, parentsOf(cand)...)
	}
	return false
}

func parentsOf(c *Class) []*Class {
	parents := append([]*Class(nil), c.Supertypes...)
	if c.Parent != nil {
		parents = append(parents, c.Parent)
	}
	return parents
}
