package bindgen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rubiojr/cppbind/api"
)

// CallbackPlan describes the locals generated for one callback parameter:
// a context record holding a pointer to the closure (and, with
// exceptions, a slot for a captured exception) and a capture-less lambda
// matching the foreign function-pointer ABI.
//
// For a parameter fn of type isl_stat (*)(__isl_take isl_map *, void *)
// the exceptions-mode locals are:
//
//	struct fn_data {
//	  const std::function<void(isl::map)> *func;
//	  std::exception_ptr eptr;
//	} fn_data = { &fn };
//	auto fn_lambda = [](isl_map *arg_0, void *arg_1) -> isl_stat {
//	  auto *data = static_cast<struct fn_data *>(arg_1);
//	  try {
//	    (*data->func)(isl::manage(arg_0));
//	    return isl_stat_ok;
//	  } catch (...) {
//	    data->eptr = std::current_exception();
//	    return isl_stat_error;
//	  }
//	};
type CallbackPlan struct {
	Name     string
	Closure  string
	Callback *api.CallbackType

	mapper TypeMapper
	mode   Mode
}

// NewCallbackPlan prepares the marshalling of callback parameter p.
func NewCallbackPlan(m TypeMapper, p *api.Param, mode Mode) (*CallbackPlan, error) {
	if p.Type.Kind != api.KindCallback || p.Type.Callback == nil {
		return nil, fmt.Errorf("parameter %s is not a callback", p.Name)
	}
	cb := p.Type.Callback
	switch cb.Return.Kind {
	case api.KindVoid, api.KindStat, api.KindBool, api.KindObject, api.KindInteger, api.KindEnum:
	default:
		return nil, fmt.Errorf("%w: callback %s returns %s", ErrUnmappableType, p.Name, cb.Return.Kind)
	}
	for i, t := range cb.Params {
		if t.Kind == api.KindStat {
			return nil, fmt.Errorf("%w: callback %s argument %d is a status", ErrUnmappableType, p.Name, i)
		}
	}
	closure, err := m.ClosureType(cb, mode)
	if err != nil {
		return nil, fmt.Errorf("callback %s: %w", p.Name, err)
	}
	return &CallbackPlan{Name: p.Name, Closure: closure, Callback: cb, mapper: m, mode: mode}, nil
}

// ArgumentUse is the pair of foreign arguments replacing the closure.
func (cp *CallbackPlan) ArgumentUse() string {
	return cp.Name + "_lambda, &" + cp.Name + "_data"
}

// Emit writes the context record and the trampoline lambda.
func (cp *CallbackPlan) Emit(w *cppWriter) {
	w.Line("struct %s_data {", cp.Name)
	w.Indent()
	w.Line("const %s *func;", cp.Closure)
	if cp.mode == ModeExceptions {
		w.Line("std::exception_ptr eptr;")
	}
	w.Dedent()
	w.Line("} %s_data = { &%s };", cp.Name, cp.Name)

	w.Line("auto %s_lambda = [](%s) -> %s {", cp.Name, cp.lambdaParams(), cSpelling(cp.Callback.Return))
	w.Indent()
	w.Line("auto *data = static_cast<struct %s_data *>(arg_%d);", cp.Name, len(cp.Callback.Params))
	if cp.mode == ModeExceptions {
		cp.emitGuardedCall(w)
	} else {
		cp.emitDirectCall(w)
	}
	w.Dedent()
	w.Line("};")
}

// EmitRethrow writes the check that re-raises an exception captured by
// the trampoline. It only applies to exceptions mode.
func (cp *CallbackPlan) EmitRethrow(w *cppWriter) {
	if cp.mode != ModeExceptions {
		return
	}
	w.Line("if (%s_data.eptr)", cp.Name)
	w.Line("  std::rethrow_exception(%s_data.eptr);", cp.Name)
}

func (cp *CallbackPlan) lambdaParams() string {
	parts := make([]string, 0, len(cp.Callback.Params)+1)
	for i, t := range cp.Callback.Params {
		parts = append(parts, cDecl(cSpelling(t), "arg_"+strconv.Itoa(i)))
	}
	parts = append(parts, "void *arg_"+strconv.Itoa(len(cp.Callback.Params)))
	return strings.Join(parts, ", ")
}

func (cp *CallbackPlan) call() string {
	args := make([]string, len(cp.Callback.Params))
	for i, t := range cp.Callback.Params {
		args[i] = cp.wrapArg(t, "arg_"+strconv.Itoa(i))
	}
	return "(*data->func)(" + strings.Join(args, ", ") + ")"
}

// wrapArg converts a foreign callback argument to its closure type.
// Objects are adopted when the callback owns them and duplicated
// otherwise.
func (cp *CallbackPlan) wrapArg(t api.Type, arg string) string {
	ns := cp.mapper.Namespace
	switch t.Kind {
	case api.KindObject:
		if cp.Callback.TakesArguments {
			return Qualify(ns, "manage") + "(" + arg + ")"
		}
		return Qualify(ns, "manage_copy") + "(" + arg + ")"
	case api.KindBool:
		if cp.mode == ModeStatusCodes {
			return Qualify(ns, "manage") + "(" + arg + ")"
		}
		return arg
	case api.KindEnum:
		return "static_cast<" + cp.mapper.EnumName(t.Enum) + ">(" + arg + ")"
	case api.KindContext:
		return Qualify(ns, "ctx") + "(" + arg + ")"
	default:
		return arg
	}
}

func (cp *CallbackPlan) emitGuardedCall(w *cppWriter) {
	prefix := cp.mapper.Prefix
	ret := cp.Callback.Return
	w.Line("try {")
	w.Indent()
	switch ret.Kind {
	case api.KindVoid:
		w.Line("%s;", cp.call())
		w.Line("return;")
	case api.KindStat:
		w.Line("%s;", cp.call())
		w.Line("return %sstat_ok;", prefix)
	case api.KindBool:
		w.Line("auto ret = %s;", cp.call())
		w.Line("return ret ? %sbool_true : %sbool_false;", prefix, prefix)
	case api.KindObject:
		w.Line("auto ret = %s;", cp.call())
		w.Line("return ret.release();")
	case api.KindEnum:
		w.Line("auto ret = %s;", cp.call())
		w.Line("return static_cast<%s>(ret);", cSpelling(ret))
	default:
		w.Line("return %s;", cp.call())
	}
	w.Dedent()
	w.Line("} catch (...) {")
	w.Indent()
	w.Line("data->eptr = std::current_exception();")
	if s := cp.sentinel(); s != "" {
		w.Line("return %s;", s)
	} else {
		w.Line("return;")
	}
	w.Dedent()
	w.Line("}")
}

// sentinel is the failure value a trampoline returns after capturing an
// exception.
func (cp *CallbackPlan) sentinel() string {
	prefix := cp.mapper.Prefix
	ret := cp.Callback.Return
	switch ret.Kind {
	case api.KindStat:
		return prefix + "stat_error"
	case api.KindBool:
		return prefix + "bool_error"
	case api.KindObject:
		return "NULL"
	case api.KindEnum:
		return "static_cast<" + cSpelling(ret) + ">(-1)"
	case api.KindVoid:
		return ""
	default:
		return "-1"
	}
}

func (cp *CallbackPlan) emitDirectCall(w *cppWriter) {
	ret := cp.Callback.Return
	switch ret.Kind {
	case api.KindVoid:
		w.Line("%s;", cp.call())
	case api.KindStat:
		w.Line("auto ret = %s;", cp.call())
		w.Line("return static_cast<%s>(ret);", cSpelling(ret))
	case api.KindBool, api.KindObject:
		w.Line("auto ret = %s;", cp.call())
		w.Line("return ret.release();")
	case api.KindEnum:
		w.Line("auto ret = %s;", cp.call())
		w.Line("return static_cast<%s>(ret);", cSpelling(ret))
	default:
		w.Line("return %s;", cp.call())
	}
}

// cSpelling returns the C spelling of t with ownership annotations
// removed, e.g. "isl_map *" for "__isl_take isl_map *".
func cSpelling(t api.Type) string {
	var words []string
	for _, f := range strings.Fields(t.Spelling) {
		if strings.HasPrefix(f, "__") {
			continue
		}
		words = append(words, f)
	}
	if len(words) == 0 {
		return t.Name
	}
	return strings.Join(words, " ")
}

// cDecl joins a C type and a variable name: "isl_map *" + "m" gives
// "isl_map *m", "int" + "n" gives "int n".
func cDecl(ctype, name string) string {
	if strings.HasSuffix(ctype, "*") {
		return ctype + name
	}
	return ctype + " " + name
}
