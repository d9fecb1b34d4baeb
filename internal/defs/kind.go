package defs

// Kind is the declaration kind of a Definition.
type Kind int

const (
	KindOther Kind = iota
	KindModule
	KindStruct
	KindEnum
	KindTrait
	KindFunction
	KindTypeAlias
	KindStatic
	KindConst
	KindField
	KindTuple
	KindLocal
)

var kindNames = map[Kind]string{
	KindOther:     "other",
	KindModule:    "module",
	KindStruct:    "struct",
	KindEnum:      "enum",
	KindTrait:     "trait",
	KindFunction:  "function",
	KindTypeAlias: "type",
	KindStatic:    "static",
	KindConst:     "const",
	KindField:     "field",
	KindTuple:     "tuple",
	KindLocal:     "local",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "other"
}

// ParseKind maps a kind name to a Kind. Unknown names map to KindOther.
func ParseKind(s string) Kind {
	switch s {
	case "module", "mod":
		return KindModule
	case "struct":
		return KindStruct
	case "enum":
		return KindEnum
	case "trait":
		return KindTrait
	case "function", "fn":
		return KindFunction
	case "type", "type_alias":
		return KindTypeAlias
	case "static":
		return KindStatic
	case "const":
		return KindConst
	case "field":
		return KindField
	case "tuple", "variant":
		return KindTuple
	case "local":
		return KindLocal
	default:
		return KindOther
	}
}

// Documentable reports whether definitions of this kind get their own page.
func (k Kind) Documentable() bool {
	switch k {
	case KindModule, KindStruct, KindEnum, KindTrait, KindFunction, KindTypeAlias, KindStatic, KindConst:
		return true
	default:
		return false
	}
}
