package bindgen

import (
	"github.com/rubiojr/cppbind/api"
)

// MethodKind classifies the role a foreign function plays in a class.
type MethodKind int

const (
	KindConstructor MethodKind = iota // builds a new instance
	KindStatic                        // all parameters exposed
	KindMember                        // parameter 0 comes from the receiver
)

func (k MethodKind) String() string {
	switch k {
	case KindConstructor:
		return "constructor"
	case KindStatic:
		return "static"
	case KindMember:
		return "member"
	default:
		return "unknown"
	}
}

// Classify determines the kind of fn within class c.
func Classify(c *api.Class, fn *api.Function) MethodKind {
	for _, cons := range c.Constructors {
		if cons == fn {
			return KindConstructor
		}
	}
	if IsMember(c, fn) {
		return KindMember
	}
	return KindStatic
}

// IsMember reports whether fn takes an instance of c's storage type as
// its first parameter.
func IsMember(c *api.Class, fn *api.Function) bool {
	if len(fn.Params) == 0 {
		return false
	}
	first := fn.Params[0].Type
	return first.Kind == api.KindObject && first.Class.Storage() == c.Storage()
}

// IsImplicitConversion reports whether the constructor cons of c may be
// used for implicit conversion: it takes exactly one parameter and that
// parameter wraps a transitive subtype of c.
func IsImplicitConversion(c *api.Class, cons *api.Function) bool {
	if len(cons.Params) != 1 {
		return false
	}
	t := cons.Params[0].Type
	if t.Kind != api.KindObject {
		return false
	}
	return api.IsSubtype(t.Class, c)
}

// ClassifiedMethod holds the classification of one function of a class.
type ClassifiedMethod struct {
	Class    *api.Class
	Name     string
	Func     *api.Function
	Kind     MethodKind
	Implicit bool // constructors only
	Narrowed bool // return type narrowed to the subclass
}

// ClassifyClass classifies the constructors and then every method of c,
// in emission order.
func ClassifyClass(c *api.Class) []ClassifiedMethod {
	var out []ClassifiedMethod
	for _, cons := range c.Constructors {
		out = append(out, ClassifiedMethod{
			Class:    c,
			Name:     c.Name,
			Func:     cons,
			Kind:     KindConstructor,
			Implicit: IsImplicitConversion(c, cons),
		})
	}
	for _, name := range c.MethodNames() {
		for _, fn := range c.Methods[name] {
			kind := Classify(c, fn)
			out = append(out, ClassifiedMethod{
				Class:    c,
				Name:     name,
				Func:     fn,
				Kind:     kind,
				Narrowed: narrows(c, fn.Return),
			})
		}
	}
	return out
}

// narrows reports whether a function of subclass c returning ret has its
// return type replaced by c. Identity of the parent class is compared.
func narrows(c *api.Class, ret api.Type) bool {
	return c.IsSubclass() && ret.Kind == api.KindObject && ret.Class == c.Parent
}
