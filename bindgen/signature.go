package bindgen

import (
	"fmt"
	"strings"

	"github.com/rubiojr/cppbind/api"
)

// SigParam is one exposed parameter of a synthesized signature.
type SigParam struct {
	Name  string
	Type  TargetType
	ByRef bool // passed as const reference
	Param *api.Param
}

func (p SigParam) String() string {
	if p.ByRef {
		return "const " + p.Type.Name + " &" + p.Name
	}
	return p.Type.Name + " " + p.Name
}

// Signature is the C++ header of a generated constructor or method.
type Signature struct {
	Class    string // unqualified class name
	Name     string // method name, or the class name for constructors
	Kind     MethodKind
	Return   TargetType
	Params   []SigParam
	Implicit bool
	Narrowed bool
	Func     *api.Function
}

// Const reports whether the method leaves the receiver untouched.
func (s Signature) Const() bool { return s.Kind == KindMember }

func (s Signature) paramList() string {
	parts := make([]string, len(s.Params))
	for i, p := range s.Params {
		parts[i] = p.String()
	}
	return strings.Join(parts, ", ")
}

// RenderDecl renders the in-class declaration, without indentation.
func (s Signature) RenderDecl() string {
	var sb strings.Builder
	if s.Kind == KindStatic {
		sb.WriteString("static ")
	}
	sb.WriteString("inline ")
	if s.Kind == KindConstructor {
		if s.Implicit {
			sb.WriteString("/* implicit */ ")
		} else {
			sb.WriteString("explicit ")
		}
		sb.WriteString(s.Class)
	} else {
		sb.WriteString(s.Return.Name + " " + s.Name)
	}
	sb.WriteString("(" + s.paramList() + ")")
	if s.Const() {
		sb.WriteString(" const")
	}
	sb.WriteString(";")
	return sb.String()
}

// RenderDef renders the out-of-class definition header.
func (s Signature) RenderDef() string {
	var sb strings.Builder
	if s.Kind == KindConstructor {
		sb.WriteString(s.Class + "::" + s.Class)
	} else {
		sb.WriteString(s.Return.Name + " " + s.Class + "::" + s.Name)
	}
	sb.WriteString("(" + s.paramList() + ")")
	if s.Const() {
		sb.WriteString(" const")
	}
	return sb.String()
}

// Synthesizer builds signatures for one emission mode.
type Synthesizer struct {
	Mapper  TypeMapper
	Mode    Mode
	Renames map[string]string
}

// Synthesize builds the signature of fn, registered under the logical
// name in class c with the given kind.
func (s Synthesizer) Synthesize(c *api.Class, name string, fn *api.Function, kind MethodKind) (Signature, error) {
	sig := Signature{
		Class: s.Mapper.ClassName(c),
		Name:  MethodName(name, s.Renames),
		Kind:  kind,
		Func:  fn,
	}
	if kind == KindConstructor {
		sig.Name = sig.Class
		sig.Implicit = IsImplicitConversion(c, fn)
	}

	ret, err := s.Mapper.MapType(fn.Return, s.Mode)
	if err != nil {
		return Signature{}, fmt.Errorf("%s: return: %w", fn.Name, err)
	}
	if narrows(c, fn.Return) {
		ret = TargetType{Kind: api.KindObject, Name: s.Mapper.QualifiedClass(c), Class: c}
		sig.Narrowed = true
		log.Debugf("%s: return narrowed to %s", fn.Name, ret.Name)
	}
	sig.Return = ret

	params := fn.Params
	if kind == KindMember {
		params = params[1:]
	}
	for _, p := range params {
		tt, err := s.Mapper.MapType(p.Type, s.Mode)
		if err != nil {
			return Signature{}, fmt.Errorf("%s: parameter %s: %w", fn.Name, p.Name, err)
		}
		sig.Params = append(sig.Params, SigParam{
			Name:  p.Name,
			Type:  tt,
			ByRef: passedByRef(p),
			Param: p,
		})
	}
	log.Debugf("%s: %s %s", fn.Name, kind, sig.RenderDecl())
	return sig, nil
}

// passedByRef reports whether p is passed as a const reference: borrowed
// objects, strings and callbacks are; transferred objects and plain
// values are passed by value.
func passedByRef(p *api.Param) bool {
	switch p.Type.Kind {
	case api.KindString, api.KindCallback:
		return true
	case api.KindObject:
		return p.Ownership == api.Borrowed
	default:
		return false
	}
}
