package hcl

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// pathsVariable is the root name of path role references.
const pathsVariable = "paths"

// pathRoles extracts the role names of an expression that is either a single
// `paths.<role>` reference or a list of them.
func pathRoles(expr hcl.Expression) ([]string, hcl.Diagnostics) {
	if items, listDiags := hcl.ExprList(expr); !listDiags.HasErrors() {
		var roles []string
		var diags hcl.Diagnostics
		for _, item := range items {
			role, d := pathRole(item)
			diags = append(diags, d...)
			if role != "" {
				roles = append(roles, role)
			}
		}
		return roles, diags
	}

	role, diags := pathRole(expr)
	if role == "" {
		return nil, diags
	}
	return []string{role}, diags
}

// pathRole extracts the role name of a single `paths.<role>` reference.
func pathRole(expr hcl.Expression) (string, hcl.Diagnostics) {
	invalid := hcl.Diagnostics{&hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  "Invalid path reference",
		Detail:   "Expected a reference of the form paths.<role>, for example paths.src_styles.",
		Subject:  expr.Range().Ptr(),
	}}

	traversal, diags := hcl.AbsTraversalForExpr(expr)
	if diags.HasErrors() || len(traversal) != 2 || traversal.RootName() != pathsVariable {
		return "", invalid
	}

	switch step := traversal[1].(type) {
	case hcl.TraverseAttr:
		return step.Name, nil
	case hcl.TraverseIndex:
		if step.Key.Type() == cty.String && step.Key.IsKnown() && !step.Key.IsNull() {
			return step.Key.AsString(), nil
		}
	}
	return "", invalid
}

// pathsValue builds the `paths` object exposed to stage option expressions.
func pathsValue(paths map[string][]string) cty.Value {
	attrs := make(map[string]cty.Value, len(paths))
	for role, values := range paths {
		if len(values) == 1 {
			attrs[role] = cty.StringVal(values[0])
			continue
		}
		elems := make([]cty.Value, 0, len(values))
		for _, v := range values {
			elems = append(elems, cty.StringVal(v))
		}
		if len(elems) == 0 {
			attrs[role] = cty.EmptyTupleVal
			continue
		}
		attrs[role] = cty.TupleVal(elems)
	}
	if len(attrs) == 0 {
		return cty.EmptyObjectVal
	}
	return cty.ObjectVal(attrs)
}
