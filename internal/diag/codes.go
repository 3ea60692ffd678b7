package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Name and path resolution, type checking
	SemaInfo                     Code = 3000
	SemaUnresolvedName           Code = 3001
	SemaDuplicateDefinition      Code = 3002
	SemaDuplicateBinding         Code = 3003
	SemaExpectedValueFoundModule Code = 3004
	SemaExpectedTypeFoundValue   Code = 3005
	SemaAmbiguousCandidates      Code = 3006
	SemaSubstMismatch            Code = 3007
	SemaSubstNotSupported        Code = 3008
	SemaWrongGenericCount        Code = 3009
	SemaTraitBoundViolation      Code = 3010
	SemaNotATrait                Code = 3011
	SemaUnknownAssociatedItem    Code = 3012
	SemaTypeMismatch             Code = 3013
	SemaUnknownField             Code = 3014
	SemaMissingFields            Code = 3015
	SemaNotCallable              Code = 3016
	SemaArgCount                 Code = 3017
	SemaInvalidBinaryOperands    Code = 3018
	SemaInvalidUnaryOperand      Code = 3019
	SemaAssignImmutable          Code = 3020
	SemaBreakOutsideLoop         Code = 3021
	SemaUnresolvedLabel          Code = 3022
	SemaSelfOutsideImpl          Code = 3023
	SemaSuperAtRoot              Code = 3024
	SemaTraitGenericsUnsupported Code = 3025
	SemaMissingTraitItem         Code = 3026
	SemaDuplicateLangItem        Code = 3027
	SemaUnknownLangItem          Code = 3028
	SemaCannotInfer              Code = 3029
	SemaUnusedBinding            Code = 3030 // warning
	SemaAssignedNeverRead        Code = 3031 // warning
	SemaExpectedValueFoundType   Code = 3032
	SemaRecursiveType            Code = 3033
	SemaCaptureInFnItem          Code = 3034
	SemaNonConstant              Code = 3035
	SemaDiscriminantOverflow     Code = 3036

	// I/O
	IOLoadFileError Code = 4001

	// Project and crate descriptions
	ProjInfo             Code = 5000
	ProjManifestInvalid  Code = 5001
	ProjCrateDescInvalid Code = 5002
	ProjDuplicateCrate   Code = 5003

	// Internal compiler errors surfaced to the user
	ObsInternalError Code = 6001
	ObsTimings       Code = 6002
)

var codeDescription = map[Code]string{
	UnknownCode:                  "Unknown error",
	SemaInfo:                     "Semantic information",
	SemaUnresolvedName:           "Unresolved name",
	SemaDuplicateDefinition:      "Duplicate definition",
	SemaDuplicateBinding:         "Identifier bound more than once in the same pattern",
	SemaExpectedValueFoundModule: "Expected value, found module",
	SemaExpectedTypeFoundValue:   "Expected type, found value",
	SemaAmbiguousCandidates:      "Multiple applicable items in scope",
	SemaSubstMismatch:            "Generic arguments mismatch",
	SemaSubstNotSupported:        "Substitutions not supported",
	SemaWrongGenericCount:        "Wrong number of generic arguments",
	SemaTraitBoundViolation:      "Trait bound not satisfied",
	SemaNotATrait:                "Expected trait",
	SemaUnknownAssociatedItem:    "No associated item with this name",
	SemaTypeMismatch:             "Mismatched types",
	SemaUnknownField:             "No such field",
	SemaMissingFields:            "Missing fields in struct literal",
	SemaNotCallable:              "Expected function",
	SemaArgCount:                 "Wrong number of arguments",
	SemaInvalidBinaryOperands:    "Invalid operands for binary operator",
	SemaInvalidUnaryOperand:      "Invalid operand for unary operator",
	SemaAssignImmutable:          "Cannot assign twice to immutable variable",
	SemaBreakOutsideLoop:         "Break or continue outside of a loop",
	SemaUnresolvedLabel:          "Use of undeclared label",
	SemaSelfOutsideImpl:          "Self used outside of an impl or trait",
	SemaSuperAtRoot:              "There are too many leading super keywords",
	SemaTraitGenericsUnsupported: "Generic parameters on traits are not supported",
	SemaMissingTraitItem:         "Missing trait item in impl",
	SemaDuplicateLangItem:        "Duplicate lang item",
	SemaUnknownLangItem:          "Unknown lang item",
	SemaCannotInfer:              "Type annotations needed",
	SemaUnusedBinding:            "Unused variable",
	SemaAssignedNeverRead:        "Value assigned is never read",
	SemaExpectedValueFoundType:   "Expected value, found type",
	SemaRecursiveType:            "Recursive type alias or impl header",
	SemaCaptureInFnItem:          "Cannot capture dynamic environment in a fn item",
	SemaNonConstant:              "Expression is not a constant",
	SemaDiscriminantOverflow:     "Enum discriminant overflowed",
	IOLoadFileError:              "Failed to load file",
	ProjInfo:                     "Project information",
	ProjManifestInvalid:          "Invalid project manifest",
	ProjCrateDescInvalid:         "Invalid crate description",
	ProjDuplicateCrate:           "Duplicate crate name",
	ObsInternalError:             "Internal compiler error",
	ObsTimings:                   "Pipeline timings",
}

func (c Code) ID() string {
	ic := int(c)
	switch {
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
