package bindgen

import "strings"

// standardIncludes are needed by every generated header.
var standardIncludes = []string{
	"<cstdlib>",
	"<functional>",
	"<memory>",
	"<ostream>",
	"<stdexcept>",
	"<string>",
}

// emitHeaderTop writes the guard and include lines.
func (e *emitter) emitHeaderTop() {
	w := e.w
	w.Line("/// Generated by cppbind (%s). Do not edit.", e.opts.Mode)
	w.Line("#ifndef %s", e.opts.HeaderGuard)
	w.Line("#define %s", e.opts.HeaderGuard)
	w.Blank()
	for _, inc := range e.opts.Includes {
		if !strings.HasPrefix(inc, "<") && !strings.HasPrefix(inc, "\"") {
			inc = "<" + inc + ">"
		}
		w.Line("#include %s", inc)
	}
	for _, inc := range standardIncludes {
		w.Line("#include %s", inc)
	}
}

func (e *emitter) emitHeaderBottom() {
	e.w.Blank()
	e.w.Line("#endif /* %s */", e.opts.HeaderGuard)
}

// emitSupportTypes writes the types generated classes depend on. They
// live inside the output namespace.
func (e *emitter) emitSupportTypes() {
	e.w.Line("// support types")
	if e.opts.Mode == ModeStatusCodes {
		e.emitBoolean()
		e.w.Blank()
		e.emitStat()
		e.w.Blank()
	}
	e.emitCtx()
	if e.opts.Mode == ModeExceptions {
		e.w.Blank()
		e.emitException()
		e.w.Blank()
		e.emitScopedOnError()
	}
	for _, en := range e.d.Enums {
		e.w.Blank()
		e.w.Line("enum class %s {", StripPrefix(en.Name, e.d.Prefix))
		e.w.Indent()
		for _, v := range en.Values {
			e.w.Line("%s = %s,", e.tm.EnumeratorName(en, v.Name), v.Name)
		}
		e.w.Dedent()
		e.w.Line("};")
	}
	e.w.Blank()
}

// emitBoolean writes the tri-state boolean of status-code mode.
func (e *emitter) emitBoolean() {
	lines := []string{
		"class boolean {",
		"private:",
		"  {P}bool val;",
		"",
		"  friend boolean manage({P}bool val);",
		"  boolean({P}bool val) : val(val) {}",
		"",
		"public:",
		"  boolean() : val({P}bool_error) {}",
		"  /* implicit */ boolean(bool val) : val(val ? {P}bool_true : {P}bool_false) {}",
		"",
		"  {P}bool release() {",
		"    auto tmp = val;",
		"    val = {P}bool_error;",
		"    return tmp;",
		"  }",
		"  bool is_error() const { return val == {P}bool_error; }",
		"  bool is_false() const { return val == {P}bool_false; }",
		"  bool is_true() const { return val == {P}bool_true; }",
		"  explicit operator bool() const { return val == {P}bool_true; }",
		"  boolean operator!() const {",
		"    if (is_error())",
		"      return *this;",
		"    return !is_true();",
		"  }",
		"};",
		"",
		"inline boolean manage({P}bool val) {",
		"  return boolean(val);",
		"}",
	}
	e.lines(lines)
}

func (e *emitter) emitStat() {
	e.w.Line("enum class stat {")
	e.w.Line("  ok = %sstat_ok,", e.d.Prefix)
	e.w.Line("  error = %sstat_error", e.d.Prefix)
	e.w.Line("};")
}

func (e *emitter) emitCtx() {
	lines := []string{
		"class ctx {",
		"  {P}ctx *ptr;",
		"",
		"public:",
		"  /* implicit */ ctx({P}ctx *ptr) : ptr(ptr) {}",
		"  {P}ctx *release() {",
		"    auto tmp = ptr;",
		"    ptr = nullptr;",
		"    return tmp;",
		"  }",
		"  {P}ctx *get() const { return ptr; }",
		"};",
	}
	e.lines(lines)
}

// emitException writes the exception type thrown by exceptions-mode
// bindings. create_from_last_error drains the last error of a context.
func (e *emitter) emitException() {
	lines := []string{
		"class exception : public std::exception {",
		"  std::shared_ptr<std::string> what_str;",
		"",
		"public:",
		"  exception() {}",
		"  explicit exception(const std::string &what)",
		"      : what_str(std::make_shared<std::string>(what)) {}",
		"  const char *what() const noexcept override {",
		"    return what_str ? what_str->c_str() : \"\";",
		"  }",
		"",
		"  static inline exception create(enum {P}error error, const char *msg,",
		"      const char *file, int line);",
		"  static inline exception create_from_last_error(ctx ctx);",
		"};",
		"",
		"exception exception::create(enum {P}error error, const char *msg,",
		"    const char *file, int line) {",
		"  std::string what = std::string(file ? file : \"\") + \":\" +",
		"      std::to_string(line) + \": \" + (msg ? msg : \"unknown error\");",
		"  return exception(what);",
		"}",
		"",
		"exception exception::create_from_last_error(ctx ctx) {",
		"  enum {P}error error = {P}ctx_last_error(ctx.get());",
		"  const char *msg = {P}ctx_last_error_msg(ctx.get());",
		"  const char *file = {P}ctx_last_error_file(ctx.get());",
		"  int line = {P}ctx_last_error_line(ctx.get());",
		"  exception e = create(error, msg, file, line);",
		"  {P}ctx_reset_error(ctx.get());",
		"  return e;",
		"}",
	}
	e.lines(lines)
}

// emitScopedOnError writes the guard that silences the library's own
// error printing while a generated method runs.
func (e *emitter) emitScopedOnError() {
	lines := []string{
		"class options_scoped_set_on_error {",
		"  {P}ctx *handle;",
		"  int saved_on_error;",
		"",
		"public:",
		"  options_scoped_set_on_error(ctx c, int on_error) : handle(c.get()) {",
		"    saved_on_error = {P}options_get_on_error(handle);",
		"    {P}options_set_on_error(handle, on_error);",
		"  }",
		"  ~options_scoped_set_on_error() {",
		"    {P}options_set_on_error(handle, saved_on_error);",
		"  }",
		"};",
	}
	e.lines(lines)
}

// lines writes template lines, replacing {P} with the foreign prefix.
func (e *emitter) lines(lines []string) {
	for _, l := range lines {
		e.w.Line("%s", strings.ReplaceAll(l, "{P}", e.d.Prefix))
	}
}
