package resolve

import (
	"fmt"
	"strings"

	"oxbow/internal/diag"
)

// checkBindings reports unused local bindings and mutable bindings that are
// written but never read.
func (r *Resolver) checkBindings() {
	for _, b := range r.bindings {
		if b.kind == bindingSelf || strings.HasPrefix(b.name, "_") {
			continue
		}
		if b.rib.HaveReferencesForNode(b.node) {
			continue
		}
		if r.NumAssignmentsToDecl(b.node) > 0 {
			diag.ReportWarning(r.reporter, diag.SemaAssignedNeverRead, b.span,
				fmt.Sprintf("value assigned to `%s` is never read", b.name)).Emit()
			continue
		}
		diag.ReportWarning(r.reporter, diag.SemaUnusedBinding, b.span, fmt.Sprintf("unused variable: `%s`", b.name)).
			WithFix("prefix it with an underscore", diag.FixEdit{Span: b.span, NewText: "_" + b.name}).
			Emit()
	}
}
