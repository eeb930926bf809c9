package api

import (
	"errors"
	"fmt"
	"go/token"
	"sort"
	"strings"

	"github.com/tliron/commonlog"
	"modernc.org/scanner"
)

// ErrInvalidModel marks a description the extractor produced incorrectly.
// Generation must not proceed on such a model.
var ErrInvalidModel = errors.New("invalid API description")

var log = commonlog.GetLogger("cppbind.api")

// ModelError wraps the list of problems found while resolving a document.
type ModelError struct {
	List scanner.ErrList
}

func (e *ModelError) Error() string {
	msgs := make([]string, len(e.List))
	for i, err := range e.List {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%v: %s", ErrInvalidModel, strings.Join(msgs, "; "))
}

func (e *ModelError) Unwrap() error { return ErrInvalidModel }

// resolver accumulates errors while building a Description.
type resolver struct {
	doc    *Document
	desc   *Description
	parser *typeParser
	errs   scanner.ErrList
}

// declRef names the declaration an error is reported against.
type declRef struct {
	kind  string
	index int
	name  string
}

func (d declRef) String() string {
	key := positionKey(d.kind, d.index)
	if d.name == "" {
		return key
	}
	return key + " " + d.name
}

func (r *resolver) errorf(at declRef, format string, args ...interface{}) {
	pos := token.Position{Filename: r.doc.Source}
	if line := r.doc.Positions[positionKey(at.kind, at.index)]; line > 0 {
		pos.Line = line
		pos.Column = 1
	}
	r.errs = append(r.errs, scanner.ErrWithPosition{
		Pos: pos,
		Err: fmt.Errorf("%s: %s", at, fmt.Sprintf(format, args...)),
	})
}

// Resolve builds a read-only Description from a decoded document. Every
// dangling reference or unrecognized type is reported; the returned error
// is a *ModelError wrapping ErrInvalidModel.
func Resolve(doc *Document) (*Description, error) {
	d := &Description{
		Prefix:  doc.Prefix,
		classes: map[string]*Class{},
		enums:   map[string]*Enum{},
		funcs:   map[string]*Function{},
	}
	r := &resolver{
		doc:  doc,
		desc: d,
		parser: &typeParser{
			prefix:  doc.Prefix,
			classes: d.classes,
			enums:   d.enums,
		},
	}

	if doc.Prefix == "" {
		r.errorf(declRef{kind: "prefix", index: -1}, "missing prefix")
	}
	r.declareEnums()
	r.declareClasses()
	r.resolveFunctions()
	r.resolveClasses()
	if len(r.errs) == 0 {
		r.orderClasses()
	}

	if len(r.errs) > 0 {
		return nil, &ModelError{List: r.errs}
	}
	log.Debugf("resolved %d classes, %d functions, %d enums", len(d.Classes), len(d.Functions), len(d.Enums))
	return d, nil
}

func (r *resolver) declareEnums() {
	for i, ed := range r.doc.Enums {
		where := declRef{"enum", i, ed.Name}
		if ed.Name == "" {
			r.errorf(where, "missing name")
			continue
		}
		if r.desc.enums[ed.Name] != nil {
			r.errorf(where, "duplicate enum")
			continue
		}
		e := &Enum{Name: ed.Name}
		for _, v := range ed.Values {
			e.Values = append(e.Values, EnumValue{Name: v.Name, Value: v.Value})
		}
		r.desc.enums[e.Name] = e
		r.desc.Enums = append(r.desc.Enums, e)
	}
}

func (r *resolver) declareClasses() {
	for i, cd := range r.doc.Classes {
		where := declRef{"class", i, cd.Name}
		if cd.Name == "" {
			r.errorf(where, "missing name")
			continue
		}
		if r.desc.classes[cd.Name] != nil {
			r.errorf(where, "duplicate class")
			continue
		}
		c := &Class{
			Name:       cd.Name,
			Methods:    map[string][]*Function{},
			Copy:       orDefault(cd.Copy, cd.Name+"_copy"),
			Free:       orDefault(cd.Free, cd.Name+"_free"),
			GetContext: orDefault(cd.GetContext, cd.Name+"_get_ctx"),
		}
		r.desc.classes[c.Name] = c
		r.desc.Classes = append(r.desc.Classes, c)
	}
}

func (r *resolver) resolveFunctions() {
	for i, fd := range r.doc.Functions {
		where := declRef{"function", i, fd.Name}
		if fd.Name == "" {
			r.errorf(where, "missing name")
			continue
		}
		if r.desc.funcs[fd.Name] != nil {
			r.errorf(where, "duplicate function")
			continue
		}
		fn := &Function{Name: fd.Name, Gives: fd.Gives}
		ret, ann, err := r.parser.parseAnnotated(orDefault(fd.Returns, "void"))
		if err != nil {
			r.errorf(where, "return: %v", err)
		}
		if ann == annotGive {
			fn.Gives = true
		}
		fn.Return = ret

		for j, pd := range fd.Params {
			own, ok := ParseOwnership(pd.Ownership)
			if !ok {
				r.errorf(where, "param %d: unknown ownership %q", j, pd.Ownership)
			}
			t, ann, err := r.parser.parseAnnotated(pd.Type)
			if err != nil {
				r.errorf(where, "param %d: %v", j, err)
				continue
			}
			explicit := pd.Ownership != "" && ok
			switch ann {
			case annotTake:
				if !explicit {
					own = Transferred
				} else if own != Transferred {
					r.errorf(where, "param %d: ownership %q contradicts take annotation in %q", j, pd.Ownership, pd.Type)
				}
			case annotKeep:
				if explicit && own == Transferred {
					r.errorf(where, "param %d: ownership %q contradicts keep annotation in %q", j, pd.Ownership, pd.Type)
				}
			}
			if t.Kind == KindCallback {
				own = Callback
			} else if own == Callback {
				r.errorf(where, "param %d: ownership callback on non-callback type %q", j, pd.Type)
			}
			name := pd.Name
			if name == "" {
				name = fmt.Sprintf("arg%d", j)
			}
			fn.Params = append(fn.Params, &Param{Name: name, Type: t, Ownership: own})
		}
		r.desc.funcs[fn.Name] = fn
		r.desc.Functions = append(r.desc.Functions, fn)
	}
}

func (r *resolver) lookupFunc(where declRef, role, name string) *Function {
	if name == "" {
		return nil
	}
	fn := r.desc.funcs[name]
	if fn == nil {
		r.errorf(where, "%s refers to unknown function %q", role, name)
	}
	return fn
}

func (r *resolver) resolveClasses() {
	for i, cd := range r.doc.Classes {
		c := r.desc.classes[cd.Name]
		if c == nil {
			continue
		}
		where := declRef{"class", i, cd.Name}

		for _, name := range cd.Constructors {
			if fn := r.lookupFunc(where, "constructor", name); fn != nil {
				c.Constructors = append(c.Constructors, fn)
			}
		}
		methods := make([]string, 0, len(cd.Methods))
		for method := range cd.Methods {
			methods = append(methods, method)
		}
		sort.Strings(methods)
		for _, method := range methods {
			for _, name := range cd.Methods[method] {
				if fn := r.lookupFunc(where, "method "+method, name); fn != nil {
					c.Methods[method] = append(c.Methods[method], fn)
				}
			}
		}
		c.TypeTag = r.lookupFunc(where, "type_tag", cd.TypeTag)
		c.Equality = r.lookupFunc(where, "equality", cd.Equality)
		if c.Equality != nil && !hasMethod(c, c.Equality) {
			r.errorf(where, "equality %q is not one of the class methods", cd.Equality)
		}
		c.Stringify = r.lookupFunc(where, "stringify", cd.Stringify)

		for _, name := range cd.Supertypes {
			super := r.desc.classes[name]
			if super == nil {
				r.errorf(where, "unknown supertype %q", name)
				continue
			}
			c.Supertypes = append(c.Supertypes, super)
		}

		if cd.Parent != "" {
			parent := r.desc.classes[cd.Parent]
			switch {
			case parent == nil:
				r.errorf(where, "unknown parent %q", cd.Parent)
			case cd.TagValue == "":
				r.errorf(where, "subclass of %q without tag_value", cd.Parent)
			default:
				c.Parent = parent
				c.TagValue = cd.TagValue
			}
		} else if cd.TagValue != "" {
			r.errorf(where, "tag_value %q without parent", cd.TagValue)
		}
	}

	for i, c := range r.desc.Classes {
		if c.Parent == nil {
			continue
		}
		where := declRef{"class", i, c.Name}
		if c.Parent.TypeTag == nil {
			r.errorf(where, "parent %q has no type_tag function", c.Parent.Name)
		}
		if c.Parent.Parent != nil {
			r.errorf(where, "parent %q is itself a type-tag subclass", c.Parent.Name)
		}
		if c.TypeTag != nil {
			r.errorf(where, "type-tag subclass cannot declare its own type_tag")
		}
	}
}

// orderClasses sorts classes by name and moves every subclass after its
// parent, so that base classes are declared before they are derived from.
func (r *resolver) orderClasses() {
	classes := r.desc.Classes
	sort.SliceStable(classes, func(i, j int) bool {
		return classes[i].Name < classes[j].Name
	})
	ordered := make([]*Class, 0, len(classes))
	for _, c := range classes {
		if c.Parent != nil {
			continue
		}
		ordered = append(ordered, c)
		for _, sub := range classes {
			if sub.Parent == c {
				ordered = append(ordered, sub)
			}
		}
	}
	r.desc.Classes = ordered
}

func hasMethod(c *Class, fn *Function) bool {
	for _, overloads := range c.Methods {
		for _, m := range overloads {
			if m == fn {
				return true
			}
		}
	}
	return false
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
