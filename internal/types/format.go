package types

import (
	"fmt"
	"strings"
)

// String renders id the way it would be written in source. Unbound
// inference variables print as `_`, `{integer}` or `{float}`.
func (in *Interner) String(id TypeID) string {
	var b strings.Builder
	in.write(&b, id)
	return b.String()
}

func (in *Interner) write(b *strings.Builder, id TypeID) {
	id = in.Resolve(id)
	tt, ok := in.Lookup(id)
	if !ok {
		b.WriteString("<invalid>")
		return
	}
	switch tt.Kind {
	case KindError:
		b.WriteString("<error>")
	case KindUnit:
		b.WriteString("()")
	case KindNever:
		b.WriteString("!")
	case KindBool, KindChar, KindStr:
		b.WriteString(tt.Kind.String())
	case KindInt, KindUint, KindFloat:
		b.WriteString(numericName(tt))
	case KindRef:
		b.WriteByte('&')
		if tt.Mutable {
			b.WriteString("mut ")
		}
		in.write(b, tt.Elem)
	case KindArray:
		b.WriteByte('[')
		in.write(b, tt.Elem)
		fmt.Fprintf(b, "; %d]", tt.Count)
	case KindTuple:
		info, _ := in.TupleInfo(id)
		b.WriteByte('(')
		in.writeList(b, info.Elems)
		if len(info.Elems) == 1 {
			b.WriteByte(',')
		}
		b.WriteByte(')')
	case KindFn:
		info, _ := in.FnInfo(id)
		b.WriteString("fn(")
		in.writeList(b, info.Params)
		b.WriteByte(')')
		if r := in.Resolve(info.Result); r != in.builtins.Unit && r != NoTypeID {
			b.WriteString(" -> ")
			in.write(b, r)
		}
	case KindAdt:
		info, _ := in.AdtInfo(id)
		b.WriteString(info.Name)
		args := in.argsOrParams(info.Args, info.Params)
		if len(args) > 0 {
			b.WriteByte('<')
			in.writeList(b, args)
			b.WriteByte('>')
		}
	case KindParam:
		info, _ := in.ParamInfo(id)
		b.WriteString(info.Name)
	case KindInfer:
		switch tt.Infer {
		case InferInt:
			b.WriteString("{integer}")
		case InferFloat:
			b.WriteString("{float}")
		default:
			b.WriteByte('_')
		}
	default:
		b.WriteString(tt.Kind.String())
	}
}

func (in *Interner) writeList(b *strings.Builder, list []TypeID) {
	for i, t := range list {
		if i > 0 {
			b.WriteString(", ")
		}
		in.write(b, t)
	}
}

func numericName(tt Type) string {
	prefix := "i"
	switch tt.Kind {
	case KindUint:
		prefix = "u"
	case KindFloat:
		prefix = "f"
	}
	if tt.Width == WidthSize {
		return prefix + "size"
	}
	return fmt.Sprintf("%s%d", prefix, tt.Width)
}
