package model

// Kind is the closed set of render strategies for view entries.
type Kind int

const (
	KindMessage Kind = iota
	KindGroupStart
	KindGroupEnd
	KindCommand
	KindDiracCommand
	KindDiracMarkup
	KindResult
)

func (k Kind) String() string {
	switch k {
	case KindMessage:
		return "message"
	case KindGroupStart:
		return "groupStart"
	case KindGroupEnd:
		return "groupEnd"
	case KindCommand:
		return "command"
	case KindDiracCommand:
		return "diracCommand"
	case KindDiracMarkup:
		return "diracMarkup"
	case KindResult:
		return "result"
	}
	return "unknown"
}

// kindByType must have an entry for every Type.
var kindByType = map[Type]Kind{
	TypeLog:                 KindMessage,
	TypeDir:                 KindMessage,
	TypeDirXML:              KindMessage,
	TypeTable:               KindMessage,
	TypeTrace:               KindMessage,
	TypeClear:               KindMessage,
	TypeAssert:              KindMessage,
	TypeProfile:             KindMessage,
	TypeProfileEnd:          KindMessage,
	TypeStartGroup:          KindGroupStart,
	TypeStartGroupCollapsed: KindGroupStart,
	TypeEndGroup:            KindGroupEnd,
	TypeResult:              KindResult,
	TypeCommand:             KindCommand,
	TypeDiracCommand:        KindDiracCommand,
	TypeDiracMarkup:         KindDiracMarkup,
}

// KindOf returns the render kind for a message type.
func KindOf(t Type) Kind {
	k, ok := kindByType[t]
	if !ok {
		panic("model: no kind registered for " + t.String())
	}
	return k
}
