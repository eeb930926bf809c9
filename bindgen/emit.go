package bindgen

import (
	"fmt"

	"github.com/rubiojr/cppbind/api"
)

// emitter renders one description in one mode.
type emitter struct {
	w     *cppWriter
	d     *api.Description
	opts  Options
	tm    TypeMapper
	syn   Synthesizer
	plans []*classPlan
}

// classPlan holds the synthesized signatures of one class.
type classPlan struct {
	class   *api.Class
	ctors   []Signature
	methods []Signature
}

func newEmitter(d *api.Description, opts Options) *emitter {
	tm := TypeMapper{Prefix: d.Prefix, Namespace: opts.Namespace}
	return &emitter{
		w:    &cppWriter{},
		d:    d,
		opts: opts,
		tm:   tm,
		syn:  Synthesizer{Mapper: tm, Mode: opts.Mode, Renames: opts.Renames},
	}
}

// plan classifies every function and synthesizes its signature. Any type
// outside the mapping rules aborts here, before text is produced.
func (e *emitter) plan() error {
	for _, c := range e.d.Classes {
		if c.IsSubclass() && c.Parent.TypeTag == nil {
			return fmt.Errorf("%w: %s: parent %s has no type_tag function", api.ErrInvalidModel, c.Name, c.Parent.Name)
		}
		p := &classPlan{class: c}
		for _, m := range ClassifyClass(c) {
			sig, err := e.syn.Synthesize(c, m.Name, m.Func, m.Kind)
			if err != nil {
				return fmt.Errorf("class %s: %w", c.Name, err)
			}
			for _, param := range m.Func.Params {
				if param.Type.Kind != api.KindCallback {
					continue
				}
				if _, err := NewCallbackPlan(e.tm, param, e.opts.Mode); err != nil {
					return fmt.Errorf("class %s: %s: %w", c.Name, m.Func.Name, err)
				}
			}
			if m.Kind == KindConstructor {
				p.ctors = append(p.ctors, sig)
			} else {
				p.methods = append(p.methods, sig)
			}
		}
		e.plans = append(e.plans, p)
	}
	return nil
}

func (e *emitter) cname(c *api.Class) string { return e.tm.ClassName(c) }

func (e *emitter) qname(c *api.Class) string { return e.tm.QualifiedClass(c) }

// annot spells an ownership annotation macro, e.g. "__isl_take".
func (e *emitter) annot(kind string) string { return "__" + e.d.Prefix + kind }

func (e *emitter) throwNullInput() {
	e.w.Line("  throw %s::create(%serror_invalid, \"NULL input\", __FILE__, __LINE__);",
		Qualify(e.opts.Namespace, "exception"), e.d.Prefix)
}

// sections renders each part into a scratch buffer and writes the
// non-empty ones separated by blank lines.
func (e *emitter) sections(parts ...func() error) error {
	first := true
	for _, part := range parts {
		text, err := e.w.Capture(part)
		if err != nil {
			return err
		}
		if text == "" {
			continue
		}
		if !first {
			e.w.Blank()
		}
		first = false
		e.w.Raw(text)
	}
	return nil
}

func (e *emitter) emitForwardDecls() {
	e.w.Line("// forward declarations")
	for _, p := range e.plans {
		e.w.Line("class %s;", e.cname(p.class))
	}
}

func (e *emitter) emitDeclarations() {
	for i, p := range e.plans {
		if i > 0 {
			e.w.Blank()
		}
		e.emitClassDecl(p)
	}
}

func (e *emitter) emitImplementations() error {
	for i, p := range e.plans {
		if i > 0 {
			e.w.Blank()
		}
		if err := e.emitClassImpl(p); err != nil {
			return err
		}
	}
	return nil
}

// boolType is the result type of isa<T>().
func (e *emitter) boolType() string { return e.tm.BoolType(e.opts.Mode) }

func (e *emitter) emitFactoryDecls(c *api.Class, prefix string) {
	if c.IsSubclass() {
		return
	}
	e.w.Line("%sinline %s manage(%s %s *ptr);", prefix, e.qname(c), e.annot("take"), c.Name)
	e.w.Line("%sinline %s manage_copy(%s %s *ptr);", prefix, e.qname(c), e.annot("keep"), c.Name)
}

func (e *emitter) emitClassDecl(p *classPlan) {
	w := e.w
	c := p.class
	name := e.cname(c)
	storage := c.Storage().Name

	w.Line("// declarations for %s", e.qname(c))
	e.emitFactoryDecls(c, "")
	w.Blank()
	if c.IsSubclass() {
		w.Line("class %s : public %s {", name, e.cname(c.Parent))
	} else {
		w.Line("class %s {", name)
	}
	w.Indent()
	if c.IsSubclass() {
		parent := e.cname(c.Parent)
		w.Line("friend %s %s::isa<%s>();", e.boolType(), parent, name)
		w.Line("friend %s %s::as<%s>();", name, parent, name)
		w.Line("static const auto type = %s;", c.TagValue)
	}
	e.emitFactoryDecls(c, "friend ")
	w.Dedent()
	w.Blank()

	w.Line("protected:")
	w.Indent()
	if !c.IsSubclass() {
		w.Line("%s *ptr = nullptr;", storage)
		w.Blank()
	}
	w.Line("inline explicit %s(%s %s *ptr);", name, e.annot("take"), storage)
	w.Dedent()
	w.Blank()

	w.Line("public:")
	w.Indent()
	w.Line("inline /* implicit */ %s();", name)
	w.Line("inline /* implicit */ %s(const %s &obj);", name, e.qname(c))
	for _, sig := range p.ctors {
		w.Line("%s", sig.RenderDecl())
	}
	w.Line("inline %s &operator=(%s obj);", e.qname(c), e.qname(c))
	if !c.IsSubclass() {
		w.Line("inline ~%s();", name)
		w.Line("inline %s %s *copy() const &;", e.annot("give"), storage)
		w.Line("inline %s %s *copy() && = delete;", e.annot("give"), storage)
		w.Line("inline %s %s *get() const;", e.annot("keep"), storage)
		w.Line("inline %s %s *release();", e.annot("give"), storage)
		w.Line("inline bool is_null() const;")
		w.Line("inline explicit operator bool() const;")
	}
	if c.TypeTag != nil {
		w.Line("template <class T> inline %s isa();", e.boolType())
		w.Line("template <class T> inline T as();")
	}
	w.Line("inline %s get_ctx() const;", Qualify(e.opts.Namespace, "ctx"))
	if c.Stringify != nil {
		w.Line("inline std::string to_str() const;")
	}
	w.Blank()
	for _, sig := range p.methods {
		w.Line("%s", sig.RenderDecl())
	}
	w.Line("typedef %s* %sptr_t;", storage, e.d.Prefix)
	w.Dedent()
	w.Line("};")
}

func (e *emitter) emitClassImpl(p *classPlan) error {
	c := p.class
	e.w.Line("// implementations for %s", e.qname(c))
	return e.sections(
		func() error { e.emitFactoryImpl(c); return nil },
		func() error { e.emitPublicCtorsImpl(c); return nil },
		func() error { e.emitProtectedCtorImpl(c); return nil },
		func() error { return e.emitMethodGroup(p.ctors) },
		func() error { e.emitCopyAssignmentImpl(c); return nil },
		func() error { e.emitDestructorImpl(c); return nil },
		func() error { e.emitPtrImpl(c); return nil },
		func() error { return e.emitOperatorsImpl(p) },
		func() error { e.emitStrImpl(c); return nil },
		func() error { e.emitDowncastImpl(c); return nil },
		func() error { e.emitGetCtxImpl(c); return nil },
		func() error { return e.emitMethodGroup(p.methods) },
	)
}

func (e *emitter) emitMethodGroup(sigs []Signature) error {
	for i, sig := range sigs {
		if i > 0 {
			e.w.Blank()
		}
		if err := e.emitMethodImpl(sig); err != nil {
			return err
		}
	}
	return nil
}

func (e *emitter) emitFactoryImpl(c *api.Class) {
	if c.IsSubclass() {
		return
	}
	w := e.w
	exc := e.opts.Mode == ModeExceptions
	name := e.cname(c)

	w.Line("%s manage(%s %s *ptr) {", e.qname(c), e.annot("take"), c.Name)
	w.Indent()
	if exc {
		w.Line("if (!ptr)")
		e.throwNullInput()
	}
	w.Line("return %s(ptr);", name)
	w.Dedent()
	w.Line("}")

	w.Line("%s manage_copy(%s %s *ptr) {", e.qname(c), e.annot("keep"), c.Name)
	w.Indent()
	if exc {
		w.Line("if (!ptr)")
		e.throwNullInput()
		w.Line("auto ctx = %s(ptr);", c.GetContext)
	}
	w.Line("ptr = %s(ptr);", c.Copy)
	if exc {
		w.Line("if (!ptr)")
		w.Line("  throw exception::create_from_last_error(ctx);")
	}
	w.Line("return %s(ptr);", name)
	w.Dedent()
	w.Line("}")
}

func (e *emitter) emitPublicCtorsImpl(c *api.Class) {
	w := e.w
	name := e.cname(c)
	w.Line("%s::%s()", name, name)
	if c.IsSubclass() {
		w.Line("    : %s() {}", e.cname(c.Parent))
	} else {
		w.Line("    : ptr(nullptr) {}")
	}
	w.Blank()
	w.Line("%s::%s(const %s &obj)", name, name, e.qname(c))
	if c.IsSubclass() {
		w.Line("    : %s(obj)", e.cname(c.Parent))
	} else {
		w.Line("    : ptr(obj.copy())")
	}
	w.Line("{")
	if e.opts.Mode == ModeExceptions && !c.IsSubclass() {
		w.Line("  if (obj.ptr && !ptr)")
		w.Line("    throw exception::create_from_last_error(%s(obj.ptr));", c.GetContext)
	}
	w.Line("}")
}

func (e *emitter) emitProtectedCtorImpl(c *api.Class) {
	name := e.cname(c)
	e.w.Line("%s::%s(%s %s *ptr)", name, name, e.annot("take"), c.Storage().Name)
	if c.IsSubclass() {
		e.w.Line("    : %s(ptr) {}", e.cname(c.Parent))
	} else {
		e.w.Line("    : ptr(ptr) {}")
	}
}

func (e *emitter) emitCopyAssignmentImpl(c *api.Class) {
	name := e.cname(c)
	e.w.Line("%s &%s::operator=(%s obj) {", name, name, e.qname(c))
	e.w.Line("  std::swap(this->ptr, obj.ptr);")
	e.w.Line("  return *this;")
	e.w.Line("}")
}

func (e *emitter) emitDestructorImpl(c *api.Class) {
	if c.IsSubclass() {
		return
	}
	name := e.cname(c)
	e.w.Line("%s::~%s() {", name, name)
	e.w.Line("  if (ptr)")
	e.w.Line("    %s(ptr);", c.Free)
	e.w.Line("}")
}

// emitPtrImpl writes the handle accessors. release() hands the handle out
// and leaves the wrapper empty, so a second release() returns nullptr.
func (e *emitter) emitPtrImpl(c *api.Class) {
	if c.IsSubclass() {
		return
	}
	w := e.w
	name := e.cname(c)
	w.Line("%s %s *%s::copy() const & {", e.annot("give"), c.Name, name)
	w.Line("  return %s(ptr);", c.Copy)
	w.Line("}")
	w.Blank()
	w.Line("%s %s *%s::get() const {", e.annot("keep"), c.Name, name)
	w.Line("  return ptr;")
	w.Line("}")
	w.Blank()
	w.Line("%s %s *%s::release() {", e.annot("give"), c.Name, name)
	w.Line("  %s *tmp = ptr;", c.Name)
	w.Line("  ptr = nullptr;")
	w.Line("  return tmp;")
	w.Line("}")
	w.Blank()
	w.Line("bool %s::is_null() const {", name)
	w.Line("  return ptr == nullptr;")
	w.Line("}")
	w.Blank()
	w.Line("%s::operator bool() const {", name)
	w.Line("  return !is_null();")
	w.Line("}")
}

func (e *emitter) emitOperatorsImpl(p *classPlan) error {
	c := p.class
	name := e.cname(c)
	if c.Stringify != nil {
		e.w.Line("inline std::ostream &operator<<(std::ostream &os, const %s &obj) {", name)
		e.w.Line("  os << obj.to_str();")
		e.w.Line("  return os;")
		e.w.Line("}")
	}
	if c.Equality == nil {
		return nil
	}
	ret, err := e.tm.MapType(c.Equality.Return, e.opts.Mode)
	if err != nil {
		return fmt.Errorf("class %s: equality: %w", c.Name, err)
	}
	method, ok := e.methodNameOf(p, c.Equality)
	if !ok {
		return fmt.Errorf("%w: class %s: equality %s is not a method of the class", api.ErrInvalidModel, c.Name, c.Equality.Name)
	}
	if c.Stringify != nil {
		e.w.Blank()
	}
	e.w.Line("inline %s operator==(const %s &lhs, const %s &rhs) {", ret.Name, name, name)
	e.w.Line("  return lhs.%s(rhs);", method)
	e.w.Line("}")
	return nil
}

// methodNameOf returns the generated name of the member method wrapping fn.
func (e *emitter) methodNameOf(p *classPlan, fn *api.Function) (string, bool) {
	for _, sig := range p.methods {
		if sig.Func == fn && sig.Kind == KindMember {
			return sig.Name, true
		}
	}
	return "", false
}

func (e *emitter) emitStrImpl(c *api.Class) {
	if c.Stringify == nil {
		return
	}
	w := e.w
	w.Line("std::string %s::to_str() const {", e.cname(c))
	w.Line("  char *str = %s(get());", c.Stringify.Name)
	w.Line("  if (!str)")
	w.Line("    return \"\";")
	w.Line("  std::string tmp(str);")
	w.Line("  free(str);")
	w.Line("  return tmp;")
	w.Line("}")
}

// emitDowncastImpl writes isa<T>() and as<T>(). isa compares the type
// tag of the instance with T::type.
func (e *emitter) emitDowncastImpl(c *api.Class) {
	if c.TypeTag == nil {
		return
	}
	w := e.w
	name := e.cname(c)
	status := e.opts.Mode == ModeStatusCodes

	w.Line("template <class T>")
	w.Line("%s %s::isa()", e.boolType(), name)
	w.Line("{")
	w.Indent()
	w.Line("if (is_null())")
	if status {
		w.Line("  return %s();", e.boolType())
	} else {
		e.throwNullInput()
	}
	w.Line("return %s(get()) == T::type;", c.TypeTag.Name)
	w.Dedent()
	w.Line("}")

	w.Line("template <class T>")
	w.Line("T %s::as()", name)
	w.Line("{")
	if status {
		w.Line("  if (is_null())")
		w.Line("    return T();")
	}
	w.Line("  return isa<T>() ? T(copy()) : T();")
	w.Line("}")
}

func (e *emitter) emitGetCtxImpl(c *api.Class) {
	ctx := Qualify(e.opts.Namespace, "ctx")
	e.w.Line("%s %s::get_ctx() const {", ctx, e.cname(c))
	e.w.Line("  return %s(%s(ptr));", ctx, c.Storage().GetContext)
	e.w.Line("}")
}
