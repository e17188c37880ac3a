// Package documents implements offer letters and sales agreements:
// template rendering, the document state machines, and signed-file
// replacement.
package documents

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/google/cel-go/cel"

	"estateops/internal/core/apperror"
)

// varPattern matches plain substitution tokens: {{ buyer_name }}.
var varPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_]*)\s*\}\}`)

// condPattern matches one conditional block with an optional else branch.
// Blocks do not nest.
var condPattern = regexp.MustCompile(`(?s)\{\{#if\s+(.+?)\}\}(.*?)(?:\{\{else\}\}(.*?))?\{\{/if\}\}`)

// ExtractVars returns the sorted set of substitution variable names used
// in a template body. Conditional expressions are not included; their
// variables only matter at evaluation time.
func ExtractVars(body string) []string {
	withoutConds := condPattern.ReplaceAllStringFunc(body, func(block string) string {
		m := condPattern.FindStringSubmatch(block)
		// Keep the branch bodies so their variables are still counted.
		return m[2] + m[3]
	})
	seen := make(map[string]bool)
	for _, m := range varPattern.FindAllStringSubmatch(withoutConds, -1) {
		seen[m[1]] = true
	}
	vars := make([]string, 0, len(seen))
	for v := range seen {
		vars = append(vars, v)
	}
	sort.Strings(vars)
	return vars
}

// Render substitutes facts into the body. Conditional blocks are
// evaluated first, then plain tokens are replaced; tokens without a fact
// render empty. Rendering is pure: no I/O, no clock, no globals.
func Render(body string, facts map[string]any) (string, error) {
	var condErr error
	rendered := condPattern.ReplaceAllStringFunc(body, func(block string) string {
		m := condPattern.FindStringSubmatch(block)
		ok, err := evalCondition(m[1], facts)
		if err != nil {
			condErr = err
			return ""
		}
		if ok {
			return m[2]
		}
		return m[3]
	})
	if condErr != nil {
		return "", condErr
	}

	rendered = varPattern.ReplaceAllStringFunc(rendered, func(token string) string {
		name := varPattern.FindStringSubmatch(token)[1]
		v, ok := facts[name]
		if !ok {
			return ""
		}
		return fmt.Sprint(v)
	})
	return rendered, nil
}

// evalCondition compiles and evaluates one conditional expression against
// the fact map. Every fact is declared as a dynamic variable.
func evalCondition(expr string, facts map[string]any) (bool, error) {
	expr = strings.TrimSpace(expr)
	opts := make([]cel.EnvOption, 0, len(facts))
	for name := range facts {
		opts = append(opts, cel.Variable(name, cel.DynType))
	}
	env, err := cel.NewEnv(opts...)
	if err != nil {
		return false, apperror.NewInternal(err)
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return false, apperror.NewValidation("invalid template condition").
			WithDetail("condition", expr).
			WithDetail("error", iss.Err().Error())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return false, apperror.NewInternal(err)
	}
	out, _, err := prg.Eval(facts)
	if err != nil {
		return false, apperror.NewValidation("template condition failed to evaluate").
			WithDetail("condition", expr).
			WithDetail("error", err.Error())
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, apperror.NewValidation("template condition is not boolean").
			WithDetail("condition", expr)
	}
	return b, nil
}

// FilterFacts retains only the facts a template actually uses, so the
// renderer never sees unrelated context.
func FilterFacts(body string, facts map[string]any) map[string]any {
	used := make(map[string]bool)
	for _, v := range ExtractVars(body) {
		used[v] = true
	}
	// Conditions may reference facts that never appear as plain tokens.
	for _, m := range condPattern.FindAllStringSubmatch(body, -1) {
		for _, t := range varPattern.FindAllStringSubmatch(m[1], -1) {
			used[t[1]] = true
		}
		for name := range facts {
			if strings.Contains(m[1], name) {
				used[name] = true
			}
		}
	}
	out := make(map[string]any, len(used))
	for name, v := range facts {
		if used[name] {
			out[name] = v
		}
	}
	return out
}
