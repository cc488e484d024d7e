package workspace

import (
	"net/url"
	"strings"
)

type View string

const (
	ViewLogin     View = "login"
	ViewDashboard View = "dashboard"
	ViewMaterial  View = "material"
)

// Request is the navigational context a route is resolved from.
type Request struct {
	Authenticated bool
	MaterialID    string
}

type Route struct {
	View       View   `json:"view"`
	MaterialID string `json:"material_id,omitempty"`
	// Redirect is set when the requested view could not be shown and View is the fallback.
	Redirect bool `json:"redirect"`
}

func (r Route) Path() string {
	switch r.View {
	case ViewLogin:
		return "/login"
	case ViewMaterial:
		return "/materials/" + url.PathEscape(r.MaterialID)
	default:
		return "/dashboard"
	}
}

// Resolve maps a request to a view. Signed-out requests always land on the login view and a
// request without a material lands on the material list.
func Resolve(req Request) Route {
	id := strings.TrimSpace(req.MaterialID)
	if !req.Authenticated {
		return Route{View: ViewLogin, Redirect: true}
	}
	if id == "" {
		return Route{View: ViewDashboard, Redirect: true}
	}
	return Route{View: ViewMaterial, MaterialID: id}
}

// MaterialIDFromPath extracts the material identifier from a /materials/{id} path.
func MaterialIDFromPath(path string) string {
	rest, ok := strings.CutPrefix(strings.Trim(path, "/"), "materials/")
	if !ok {
		return ""
	}
	rest, _, _ = strings.Cut(rest, "/")
	id, err := url.PathUnescape(rest)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(id)
}
