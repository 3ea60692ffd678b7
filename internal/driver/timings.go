package driver

import (
	"encoding/json"
	"fmt"

	"oxbow/internal/diag"
	"oxbow/internal/observ"
	"oxbow/internal/source"
)

type timingPayload struct {
	Kind    string               `json:"kind"`
	Crate   string               `json:"crate,omitempty"`
	TotalMS float64              `json:"total_ms"`
	Phases  []observ.PhaseReport `json:"phases"`
}

// appendTimingDiagnostic records the payload as an info diagnostic whose
// note carries the JSON form. The bag limit never drops it.
func appendTimingDiagnostic(bag *diag.Bag, payload timingPayload) {
	if bag == nil {
		return
	}
	if payload.Kind == "" {
		payload.Kind = "crate"
	}
	msg := fmt.Sprintf("timings (%s): total %.2f ms", payload.Kind, payload.TotalMS)
	if payload.Crate != "" {
		msg = fmt.Sprintf("%s for `%s`", msg, payload.Crate)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	entry := diag.Diagnostic{
		Severity: diag.SevInfo,
		Code:     diag.ObsTimings,
		Message:  msg,
		Notes:    []diag.Note{{Span: source.Span{}, Msg: string(data)}},
	}
	if bag.Add(entry) {
		return
	}
	overflow := diag.NewBag(1)
	overflow.Add(entry)
	bag.Merge(overflow)
}
