package api

import (
	"fmt"
	"strings"
)

// Kind is the category of a foreign type.
type Kind int

const (
	KindVoid Kind = iota
	KindObject
	KindBool
	KindStat
	KindEnum
	KindContext
	KindInteger
	KindString
	KindCallback
	KindPointer // untyped void *, only meaningful as a callback context
)

func (k Kind) String() string {
	switch k {
	case KindVoid:
		return "void"
	case KindObject:
		return "object"
	case KindBool:
		return "bool"
	case KindStat:
		return "stat"
	case KindEnum:
		return "enum"
	case KindContext:
		return "context"
	case KindInteger:
		return "integer"
	case KindString:
		return "string"
	case KindCallback:
		return "callback"
	case KindPointer:
		return "pointer"
	default:
		return "unknown"
	}
}

// Type is a resolved foreign type.
type Type struct {
	Kind Kind
	// Name is the base spelling without qualifiers or pointer stars,
	// e.g. "isl_set", "unsigned int", "isl_dim_type".
	Name string
	// Spelling is the type as written by the extractor.
	Spelling string

	Class    *Class
	Enum     *Enum
	Callback *CallbackType
}

// CallbackType is a foreign function-pointer type whose trailing opaque
// context parameter has been removed.
type CallbackType struct {
	Params []Type
	Return Type
	// TakesArguments is set when the callee receives ownership of the
	// object arguments.
	TakesArguments bool
}

// integerTypes are the native integer spellings passed through unchanged.
var integerTypes = map[string]bool{
	"int": true, "unsigned": true, "unsigned int": true, "signed": true, "signed int": true,
	"long": true, "long int": true, "unsigned long": true, "unsigned long int": true,
	"long long": true, "unsigned long long": true, "short": true, "unsigned short": true,
	"size_t": true, "int8_t": true, "int16_t": true, "int32_t": true, "int64_t": true,
	"uint8_t": true, "uint16_t": true, "uint32_t": true, "uint64_t": true,
}

// typeParser turns C type spellings into Types against a partially built
// description. Classes and enums must be registered before parsing.
type typeParser struct {
	prefix  string
	classes map[string]*Class
	enums   map[string]*Enum
}

// annotation is an ownership macro written in a type spelling.
type annotation int

const (
	annotNone annotation = iota
	annotKeep            // __<prefix>keep
	annotTake            // __<prefix>take
	annotGive            // __<prefix>give
)

// parse resolves a spelling, dropping any ownership annotation.
func (p *typeParser) parse(spelling string) (Type, error) {
	t, _, err := p.parseAnnotated(spelling)
	return t, err
}

// parseAnnotated resolves a spelling and reports the ownership macro
// (__isl_keep, __isl_take, __isl_give) it carried, if any.
func (p *typeParser) parseAnnotated(spelling string) (t Type, ann annotation, err error) {
	s := strings.TrimSpace(spelling)
	if s == "" {
		return Type{}, annotNone, fmt.Errorf("empty type")
	}
	if strings.Contains(s, "(*") {
		cb, err := p.parseCallback(s)
		if err != nil {
			return Type{}, annotNone, err
		}
		return Type{Kind: KindCallback, Name: "callback", Spelling: spelling, Callback: cb}, annotNone, nil
	}

	var words []string
	for _, w := range strings.Fields(strings.ReplaceAll(s, "*", " * ")) {
		switch {
		case w == "const":
		case strings.HasPrefix(w, "__"):
			switch {
			case strings.HasSuffix(w, "_take"):
				ann = annotTake
			case strings.HasSuffix(w, "_give"):
				ann = annotGive
			case strings.HasSuffix(w, "_keep"):
				ann = annotKeep
			}
		default:
			words = append(words, w)
		}
	}
	stars := 0
	for len(words) > 0 && words[len(words)-1] == "*" {
		stars++
		words = words[:len(words)-1]
	}
	if len(words) > 0 && words[0] == "enum" {
		words = words[1:]
	}
	base := strings.Join(words, " ")
	t = Type{Name: base, Spelling: spelling}

	switch stars {
	case 0:
		switch {
		case base == "void":
			t.Kind = KindVoid
		case base == p.prefix+"bool":
			t.Kind = KindBool
		case base == p.prefix+"stat":
			t.Kind = KindStat
		case p.enums[base] != nil:
			t.Kind = KindEnum
			t.Enum = p.enums[base]
		case integerTypes[base] || base == p.prefix+"size":
			t.Kind = KindInteger
		default:
			return Type{}, annotNone, fmt.Errorf("unrecognized type %q", spelling)
		}
	case 1:
		switch {
		case base == "char":
			t.Kind = KindString
		case base == "void":
			t.Kind = KindPointer
		case base == p.prefix+"ctx":
			t.Kind = KindContext
		case p.classes[base] != nil:
			t.Kind = KindObject
			t.Class = p.classes[base]
		default:
			return Type{}, annotNone, fmt.Errorf("unrecognized type %q", spelling)
		}
	default:
		return Type{}, annotNone, fmt.Errorf("unsupported indirection in %q", spelling)
	}
	return t, ann, nil
}

// parseCallback parses "ret (*name)(args...)". The final argument must be
// the opaque void * context.
func (p *typeParser) parseCallback(s string) (*CallbackType, error) {
	open := strings.Index(s, "(*")
	closeName := strings.Index(s[open:], ")")
	if closeName < 0 {
		return nil, fmt.Errorf("malformed callback type %q", s)
	}
	rest := strings.TrimSpace(s[open+closeName+1:])
	if !strings.HasPrefix(rest, "(") || !strings.HasSuffix(rest, ")") {
		return nil, fmt.Errorf("malformed callback type %q", s)
	}
	inner := rest[1 : len(rest)-1]
	if strings.Contains(inner, "(") {
		return nil, fmt.Errorf("nested function pointers are not supported in %q", s)
	}

	ret, _, err := p.parseAnnotated(s[:open])
	if err != nil {
		return nil, fmt.Errorf("callback return: %w", err)
	}
	if ret.Kind == KindCallback || ret.Kind == KindPointer {
		return nil, fmt.Errorf("callback %q cannot return %s", s, ret.Kind)
	}

	args := strings.Split(inner, ",")
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return nil, fmt.Errorf("callback %q has no context parameter", s)
	}
	cb := &CallbackType{Return: ret}
	for i, a := range args {
		a = stripParamName(strings.TrimSpace(a))
		t, ann, err := p.parseAnnotated(a)
		if err != nil {
			return nil, fmt.Errorf("callback argument %d: %w", i, err)
		}
		if i == len(args)-1 {
			if t.Kind != KindPointer {
				return nil, fmt.Errorf("callback %q must end with a void * context", s)
			}
			break
		}
		if t.Kind == KindCallback || t.Kind == KindPointer || t.Kind == KindVoid {
			return nil, fmt.Errorf("callback argument %d: unsupported %s", i, t.Kind)
		}
		if ann == annotTake {
			cb.TakesArguments = true
		}
		cb.Params = append(cb.Params, t)
	}
	return cb, nil
}

// stripParamName drops a trailing identifier from a parameter declaration
// such as "isl_map *map" or "void *user".
func stripParamName(decl string) string {
	if i := strings.LastIndex(decl, "*"); i >= 0 {
		return decl[:i+1]
	}
	fields := strings.Fields(decl)
	if len(fields) < 2 {
		return decl
	}
	last := fields[len(fields)-1]
	joined := strings.Join(fields, " ")
	if integerTypes[joined] || strings.HasPrefix(last, "__") {
		return decl
	}
	// "int n", "enum isl_dim_type type": keep the type words only
	// when the remainder is still a known spelling.
	head := strings.Join(fields[:len(fields)-1], " ")
	if head == "enum" || head == "const" {
		return decl
	}
	return head
}
