package model

import "slices"

// RestAction is one endpoint of the REST shorthand.
type RestAction struct {
	Name   string
	Method Method
	Suffix string
}

var restActions = []RestAction{
	{Name: "list", Method: MethodGet},
	{Name: "get", Method: MethodGet, Suffix: "/:id"},
	{Name: "create", Method: MethodPost},
	{Name: "update", Method: MethodPut, Suffix: "/:id"},
	{Name: "patch", Method: MethodPatch, Suffix: "/:id"},
	{Name: "remove", Method: MethodDelete, Suffix: "/:id"},
}

// RestActions returns the REST shorthand table filtered by an allow list and a
// deny list. An empty allow list allows everything.
func RestActions(only, except []string) []RestAction {
	var out []RestAction
	for _, a := range restActions {
		if len(only) > 0 && !slices.Contains(only, a.Name) {
			continue
		}
		if slices.Contains(except, a.Name) {
			continue
		}
		out = append(out, a)
	}
	return out
}
