package hcl

import (
	"encoding/json"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// ctyToGo converts an evaluated value into plain Go data (string, float64,
// bool, []any, map[string]any) suitable for option decoding.
func ctyToGo(val cty.Value) (any, error) {
	if val.IsNull() {
		return nil, nil
	}
	if !val.IsWhollyKnown() {
		return nil, fmt.Errorf("value is not known at load time")
	}

	raw, err := ctyjson.Marshal(val, val.Type())
	if err != nil {
		return nil, fmt.Errorf("encoding value: %w", err)
	}

	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decoding value: %w", err)
	}
	return out, nil
}

// stringList converts a string or a list/tuple of strings into a Go slice.
func stringList(val cty.Value, subject *hcl.Range, what string) ([]string, hcl.Diagnostics) {
	invalid := hcl.Diagnostics{&hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  "Invalid " + what,
		Detail:   "Expected a string or a list of strings.",
		Subject:  subject,
	}}

	if val.IsNull() || !val.IsWhollyKnown() {
		return nil, invalid
	}
	if val.Type() == cty.String {
		return []string{val.AsString()}, nil
	}
	if !val.CanIterateElements() || val.Type().IsMapType() || val.Type().IsObjectType() {
		return nil, invalid
	}

	var out []string
	for it := val.ElementIterator(); it.Next(); {
		_, elem := it.Element()
		if elem.IsNull() || elem.Type() != cty.String {
			return nil, invalid
		}
		out = append(out, elem.AsString())
	}
	return out, nil
}

// bodyOptions evaluates every attribute of a block body into Go data.
func bodyOptions(body hcl.Body, evalCtx *hcl.EvalContext) (map[string]any, hcl.Diagnostics) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}

	options := make(map[string]any, len(attrs))
	for name, attr := range attrs {
		val, valDiags := attr.Expr.Value(evalCtx)
		diags = append(diags, valDiags...)
		if valDiags.HasErrors() {
			continue
		}
		goVal, err := ctyToGo(val)
		if err != nil {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid stage option",
				Detail:   fmt.Sprintf("Option %q: %v.", name, err),
				Subject:  attr.Expr.Range().Ptr(),
			})
			continue
		}
		options[name] = goVal
	}
	return options, diags
}
