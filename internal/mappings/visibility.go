package mappings

import (
	"fmt"

	"oxbow/internal/ids"
)

type VisKind uint8

const (
	VisPrivate VisKind = iota
	VisPublic
	// VisRestricted limits access to the module in Visibility.Module.
	VisRestricted
)

type Visibility struct {
	Kind   VisKind
	Module ids.NodeID
}

func (v Visibility) String() string {
	switch v.Kind {
	case VisPublic:
		return "pub"
	case VisRestricted:
		return fmt.Sprintf("pub(in %d)", v.Module)
	}
	return "priv"
}
