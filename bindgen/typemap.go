package bindgen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rubiojr/cppbind/api"
)

// ErrUnmappableType is returned for foreign types outside every mapping
// rule. It means the extractor produced something the generator cannot
// represent and aborts generation.
var ErrUnmappableType = errors.New("cannot convert type to C++ type")

// TargetType is the C++ rendering of a foreign type.
type TargetType struct {
	Kind api.Kind
	Name string
	// Class is the wrapped class for object types. Covariant narrowing
	// compares this identity, never the rendered name.
	Class *api.Class
}

func (t TargetType) String() string { return t.Name }

// TypeMapper converts foreign types to C++ types.
type TypeMapper struct {
	Prefix    string
	Namespace string
}

// ClassName returns the unqualified C++ name of a class, e.g. "set" for
// isl_set or "schedule_node_band" for a type-tag subclass.
func (m TypeMapper) ClassName(c *api.Class) string {
	return StripPrefix(c.Name, m.Prefix)
}

// QualifiedClass returns the namespace-qualified C++ class name.
func (m TypeMapper) QualifiedClass(c *api.Class) string {
	return Qualify(m.Namespace, m.ClassName(c))
}

// BoolType is the C++ counterpart of the tri-state foreign boolean.
func (m TypeMapper) BoolType(mode Mode) string {
	if mode == ModeStatusCodes {
		return Qualify(m.Namespace, "boolean")
	}
	return "bool"
}

// StatType is the C++ counterpart of the foreign status type.
func (m TypeMapper) StatType(mode Mode) string {
	if mode == ModeStatusCodes {
		return Qualify(m.Namespace, "stat")
	}
	return "void"
}

// EnumName returns the qualified C++ enum name for a foreign enum.
func (m TypeMapper) EnumName(e *api.Enum) string {
	return Qualify(m.Namespace, StripPrefix(e.Name, m.Prefix))
}

// MapType converts t for the given mode. The rules are checked in a
// fixed priority order; a type matching none of them yields
// ErrUnmappableType.
func (m TypeMapper) MapType(t api.Type, mode Mode) (TargetType, error) {
	tt := TargetType{Kind: t.Kind}
	switch t.Kind {
	case api.KindObject:
		tt.Class = t.Class
		tt.Name = m.QualifiedClass(t.Class)
	case api.KindBool:
		tt.Name = m.BoolType(mode)
	case api.KindStat:
		tt.Name = m.StatType(mode)
	case api.KindEnum:
		tt.Name = m.EnumName(t.Enum)
	case api.KindContext:
		tt.Name = Qualify(m.Namespace, "ctx")
	case api.KindInteger:
		tt.Name = t.Name
	case api.KindString:
		tt.Name = "std::string"
	case api.KindCallback:
		name, err := m.ClosureType(t.Callback, mode)
		if err != nil {
			return TargetType{}, err
		}
		tt.Name = name
	case api.KindVoid:
		tt.Name = "void"
	default:
		return TargetType{}, fmt.Errorf("%w: %q (%s)", ErrUnmappableType, t.Spelling, t.Kind)
	}
	return tt, nil
}

// ClosureType renders the closure signature of a callback, e.g.
// "std::function<isl::stat(isl::map)>". The context parameter is not
// part of the signature.
func (m TypeMapper) ClosureType(cb *api.CallbackType, mode Mode) (string, error) {
	ret, err := m.MapType(cb.Return, mode)
	if err != nil {
		return "", fmt.Errorf("callback return: %w", err)
	}
	args, err := m.closureArgs(cb, mode)
	if err != nil {
		return "", err
	}
	return "std::function<" + ret.Name + "(" + strings.Join(args, ", ") + ")>", nil
}

func (m TypeMapper) closureArgs(cb *api.CallbackType, mode Mode) ([]string, error) {
	args := make([]string, 0, len(cb.Params))
	for i, p := range cb.Params {
		tt, err := m.MapType(p, mode)
		if err != nil {
			return nil, fmt.Errorf("callback argument %d: %w", i, err)
		}
		args = append(args, tt.Name)
	}
	return args, nil
}

// enumStem returns the common "prefix_stem_" shared by all enumerators of e.
func (m TypeMapper) enumStem(e *api.Enum) string {
	if len(e.Values) < 2 {
		return m.Prefix
	}
	stem := e.Values[0].Name
	for _, v := range e.Values[1:] {
		for !strings.HasPrefix(v.Name, stem) {
			stem = stem[:len(stem)-1]
		}
	}
	// Cut back to an underscore boundary so "isl_dim_in"/"isl_dim_inout"
	// do not eat into the enumerator name.
	if i := strings.LastIndex(stem, "_"); i >= 0 {
		stem = stem[:i+1]
	} else {
		stem = ""
	}
	if len(stem) < len(m.Prefix) {
		return m.Prefix
	}
	return stem
}

// EnumeratorName returns the unqualified C++ enumerator for a foreign
// enumerator of e, e.g. "param" for isl_dim_param.
func (m TypeMapper) EnumeratorName(e *api.Enum, value string) string {
	name := StripPrefix(value, m.enumStem(e))
	if name == "" || (name[0] >= '0' && name[0] <= '9') {
		name = "_" + name
	}
	return MethodName(name, nil)
}

// MapEnumValue returns the qualified C++ enumerator and discriminant of
// a foreign enumerator.
func (m TypeMapper) MapEnumValue(e *api.Enum, value string) (string, int64, bool) {
	for _, v := range e.Values {
		if v.Name == value {
			return m.EnumName(e) + "::" + m.EnumeratorName(e, v.Name), v.Value, true
		}
	}
	return "", 0, false
}

// UnmapEnumValue is the inverse of MapEnumValue: it finds the foreign
// enumerator for a qualified C++ enumerator.
func (m TypeMapper) UnmapEnumValue(e *api.Enum, target string) (string, int64, bool) {
	for _, v := range e.Values {
		if name, _, _ := m.MapEnumValue(e, v.Name); name == target {
			return v.Name, v.Value, true
		}
	}
	return "", 0, false
}
