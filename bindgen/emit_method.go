package bindgen

import (
	"strings"

	"github.com/rubiojr/cppbind/api"
)

// ctxSource describes where a method body obtains its context.
type ctxSource struct {
	expr string // expression used for error handling, empty when none
	save string // object parameter whose context is saved up front
}

// methodCtx picks the context of a method: the receiver for members, a
// leading context parameter, or else the first object parameter.
func methodCtx(sig Signature) ctxSource {
	params := sig.Func.Params
	if sig.Kind == KindMember {
		return ctxSource{expr: "get_ctx()"}
	}
	if len(params) > 0 && params[0].Type.Kind == api.KindContext {
		return ctxSource{expr: params[0].Name}
	}
	for _, p := range params {
		if p.Type.Kind == api.KindObject {
			return ctxSource{expr: "ctx", save: p.Name}
		}
	}
	return ctxSource{}
}

// emitMethodImpl writes the body of a constructor or method:
//
//  1. null checks on object arguments (exceptions only)
//  2. saved context and scoped on-error handling (exceptions only)
//  3. callback locals
//  4. the foreign call
//  5. failure checks (exceptions only)
//  6. conversion of the result
func (e *emitter) emitMethodImpl(sig Signature) error {
	w := e.w
	fn := sig.Func
	exc := e.opts.Mode == ModeExceptions

	plans := map[*api.Param]*CallbackPlan{}
	var ordered []*CallbackPlan
	for _, p := range fn.Params {
		if p.Type.Kind != api.KindCallback {
			continue
		}
		cp, err := NewCallbackPlan(e.tm, p, e.opts.Mode)
		if err != nil {
			return err
		}
		plans[p] = cp
		ordered = append(ordered, cp)
	}

	w.Line("%s", sig.RenderDef())
	w.Line("{")
	w.Indent()

	ctx := methodCtx(sig)
	if exc {
		e.emitValidityCheck(sig)
		if ctx.save != "" {
			w.Line("auto ctx = %s.get_ctx();", ctx.save)
		}
		if ctx.expr != "" {
			w.Line("options_scoped_set_on_error saved_on_error(%s, %sON_ERROR_CONTINUE);",
				ctx.expr, strings.ToUpper(e.d.Prefix))
		}
	}
	for _, cp := range ordered {
		cp.Emit(w)
	}

	args := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		if cp := plans[p]; cp != nil {
			args[i] = cp.ArgumentUse()
			continue
		}
		args[i] = e.argumentUse(p, i == 0 && sig.Kind == KindMember)
	}
	call := fn.Name + "(" + strings.Join(args, ", ") + ")"
	if fn.Return.Kind == api.KindVoid {
		w.Line("%s;", call)
	} else {
		w.Line("auto res = %s;", call)
	}

	if exc {
		for _, cp := range ordered {
			cp.EmitRethrow(w)
		}
		e.emitFailureCheck(fn.Return, ctx)
	}
	e.emitReturn(sig, len(ordered) > 0)

	w.Dedent()
	w.Line("}")
	return nil
}

// emitValidityCheck rejects null object arguments before the call.
func (e *emitter) emitValidityCheck(sig Signature) {
	var conds []string
	for i, p := range sig.Func.Params {
		switch {
		case i == 0 && sig.Kind == KindMember:
			conds = append(conds, "!ptr")
		case p.Type.Kind == api.KindObject:
			conds = append(conds, p.Name+".is_null()")
		}
	}
	if len(conds) == 0 {
		return
	}
	e.w.Line("if (%s)", strings.Join(conds, " || "))
	e.throwNullInput()
}

// argumentUse renders how parameter p is handed to the foreign function.
// The receiver is copied unless the callee only borrows it; other
// objects are borrowed with get() or consumed with release().
func (e *emitter) argumentUse(p *api.Param, receiver bool) string {
	if receiver {
		if p.Keeps() {
			return "get()"
		}
		return "copy()"
	}
	switch p.Type.Kind {
	case api.KindEnum:
		return "static_cast<" + cSpelling(p.Type) + ">(" + p.Name + ")"
	case api.KindString:
		return p.Name + ".c_str()"
	case api.KindContext:
		return p.Name + ".get()"
	case api.KindBool:
		if e.opts.Mode == ModeStatusCodes {
			return p.Name + ".release()"
		}
		return "(" + p.Name + " ? " + e.d.Prefix + "bool_true : " + e.d.Prefix + "bool_false)"
	case api.KindObject:
		if p.Keeps() {
			return p.Name + ".get()"
		}
		return p.Name + ".release()"
	default:
		return p.Name
	}
}

// emitFailureCheck throws when the foreign call reported failure through
// a negative status or a null result.
func (e *emitter) emitFailureCheck(ret api.Type, ctx ctxSource) {
	switch ret.Kind {
	case api.KindStat, api.KindBool:
		e.w.Line("if (res < 0)")
	case api.KindObject:
		e.w.Line("if (!res)")
	default:
		return
	}
	if ctx.expr == "" {
		e.w.Line("  throw %s::create(%serror_unknown, \"operation failed\", __FILE__, __LINE__);",
			Qualify(e.opts.Namespace, "exception"), e.d.Prefix)
		return
	}
	e.w.Line("  throw exception::create_from_last_error(%s);", ctx.expr)
}

func (e *emitter) emitReturn(sig Signature, hasCallback bool) {
	w := e.w
	fn := sig.Func
	status := e.opts.Mode == ModeStatusCodes
	switch {
	case sig.Kind == KindConstructor:
		w.Line("ptr = res;")
	case fn.Return.Kind == api.KindObject || (status && fn.Return.Kind == api.KindBool):
		if sig.Narrowed {
			w.Line("return manage(res).as<%s>();", sig.Return.Name)
		} else {
			w.Line("return manage(res);")
		}
	case fn.Return.Kind == api.KindStat:
		if status {
			w.Line("return static_cast<%s>(res);", sig.Return.Name)
		}
	case fn.Return.Kind == api.KindVoid:
	case hasCallback:
		w.Line("return %s(res);", sig.Return.Name)
	case fn.Return.Kind == api.KindString:
		w.Line("std::string tmp(res);")
		if fn.Gives {
			w.Line("free(res);")
		}
		w.Line("return tmp;")
	case fn.Return.Kind == api.KindEnum:
		w.Line("return static_cast<%s>(res);", sig.Return.Name)
	default:
		w.Line("return res;")
	}
}
