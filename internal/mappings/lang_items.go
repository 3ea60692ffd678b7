package mappings

// LangItem names a definition the compiler itself needs to know about.
type LangItem uint8

const (
	LangNone LangItem = iota
	LangAdd
	LangSub
	LangMul
	LangDiv
	LangRem
	LangNeg
	LangNot
	LangEq
	LangPartialOrd
	LangUnit
)

var langItemNames = map[LangItem]string{
	LangAdd:        "add",
	LangSub:        "sub",
	LangMul:        "mul",
	LangDiv:        "div",
	LangRem:        "rem",
	LangNeg:        "neg",
	LangNot:        "not",
	LangEq:         "eq",
	LangPartialOrd: "partial_ord",
	LangUnit:       "unit",
}

// LangItemFromString parses the value of a #[lang = "..."] attribute.
func LangItemFromString(s string) (LangItem, bool) {
	for item, name := range langItemNames {
		if name == s {
			return item, true
		}
	}
	return LangNone, false
}

func (l LangItem) String() string {
	if name, ok := langItemNames[l]; ok {
		return name
	}
	return "none"
}

// MethodName is the trait method an operator lang item dispatches to.
func (l LangItem) MethodName() string {
	switch l {
	case LangEq:
		return "eq"
	case LangPartialOrd:
		return "partial_cmp"
	case LangNone, LangUnit:
		return ""
	}
	return l.String()
}
