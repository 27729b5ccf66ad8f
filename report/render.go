/*
render.go - Placeholder substitution

Rendering is pure and total given a populated context: every occurrence of
{{name}} whose name exists in the context map is replaced. The renderer never
invents values - a placeholder the context does not define is left verbatim,
which only happens if a template references a name outside the closed set.
*/
package report

import "strings"

// Render substitutes the context's placeholders into the template body.
func Render(tpl Template, ctx Context) string {
	values := ctx.Map()
	pairs := make([]string, 0, len(values)*2)
	for name, value := range values {
		pairs = append(pairs, "{{"+name+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(tpl.Body)
}
