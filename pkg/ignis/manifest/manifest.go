// Package manifest builds an immutable route manifest from a set of
// declarative route definitions: handler_id assignment, ALL pseudo-method
// expansion, group-prefix concatenation, and has_params/has_wildcard
// detection, then hands the compiled list to a router.Router in order
// (spec.md §4.5).
//
// Ground: bolt/core/app.go's addRoute/ChainLink registration flow, split out
// of the App type into a standalone builder so manifest compilation and
// server wiring are separate concerns, as spec.md §4.5 describes the
// manifest as its own component.
package manifest

import (
	"strings"

	"github.com/ignishttp/ignis/pkg/ignis/core"
	"github.com/ignishttp/ignis/pkg/ignis/router"
	"github.com/ignishttp/ignis/pkg/ignis/wire"
)

// MethodALL is the pseudo-method expanded into the seven canonical methods
// (excludes CONNECT/TRACE, which aren't meaningful route targets), per
// spec.md §4.5 item 2.
const MethodALL uint8 = 0xFF

var allMethods = [...]uint8{
	wire.MethodGET, wire.MethodPOST, wire.MethodPUT, wire.MethodDELETE,
	wire.MethodPATCH, wire.MethodHEAD, wire.MethodOPTIONS,
}

// definition is one declared route before handler_id assignment.
type definition struct {
	method  uint8
	pattern string
	handler core.Handler
}

// Route is the compiled, ordered manifest entry — spec.md §3's Route entry.
type Route struct {
	Method      uint8
	Pattern     string
	HandlerID   uint32
	HasParams   bool
	HasWildcard bool
}

// Builder accumulates route definitions in source order. Not safe for
// concurrent registration; intended to be built up once at startup and then
// compiled via Build.
type Builder struct {
	defs []definition
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Handle registers method (or MethodALL) against pattern.
func (b *Builder) Handle(method uint8, pattern string, h core.Handler) {
	b.defs = append(b.defs, definition{method: method, pattern: pattern, handler: h})
}

func (b *Builder) Get(pattern string, h core.Handler) { b.Handle(wire.MethodGET, pattern, h) }
func (b *Builder) Post(pattern string, h core.Handler) { b.Handle(wire.MethodPOST, pattern, h) }
func (b *Builder) Put(pattern string, h core.Handler) { b.Handle(wire.MethodPUT, pattern, h) }
func (b *Builder) Delete(pattern string, h core.Handler) { b.Handle(wire.MethodDELETE, pattern, h) }
func (b *Builder) Patch(pattern string, h core.Handler) { b.Handle(wire.MethodPATCH, pattern, h) }
func (b *Builder) Head(pattern string, h core.Handler) { b.Handle(wire.MethodHEAD, pattern, h) }
func (b *Builder) Options(pattern string, h core.Handler) { b.Handle(wire.MethodOPTIONS, pattern, h) }
func (b *Builder) All(pattern string, h core.Handler) { b.Handle(MethodALL, pattern, h) }

// Group returns a view over b that prefixes every pattern it registers,
// string-concatenating nested group prefixes — spec.md §4.5 item 3
// ("already handled at construction time").
func (b *Builder) Group(prefix string) *Group {
	return &Group{b: b, prefix: strings.TrimSuffix(prefix, "/")}
}

// Group is a prefixed view over a Builder, returned by Builder.Group.
type Group struct {
	b      *Builder
	prefix string
}

func (g *Group) Handle(method uint8, pattern string, h core.Handler) {
	g.b.Handle(method, g.prefix+normalizeSub(pattern), h)
}
func (g *Group) Get(pattern string, h core.Handler)     { g.Handle(wire.MethodGET, pattern, h) }
func (g *Group) Post(pattern string, h core.Handler)    { g.Handle(wire.MethodPOST, pattern, h) }
func (g *Group) Put(pattern string, h core.Handler)     { g.Handle(wire.MethodPUT, pattern, h) }
func (g *Group) Delete(pattern string, h core.Handler)  { g.Handle(wire.MethodDELETE, pattern, h) }
func (g *Group) Patch(pattern string, h core.Handler)   { g.Handle(wire.MethodPATCH, pattern, h) }
func (g *Group) Head(pattern string, h core.Handler)    { g.Handle(wire.MethodHEAD, pattern, h) }
func (g *Group) Options(pattern string, h core.Handler) { g.Handle(wire.MethodOPTIONS, pattern, h) }
func (g *Group) All(pattern string, h core.Handler)     { g.Handle(MethodALL, pattern, h) }

// Group nests a further prefix under g.
func (g *Group) Group(prefix string) *Group {
	return &Group{b: g.b, prefix: g.prefix + strings.TrimSuffix(prefix, "/")}
}

func normalizeSub(pattern string) string {
	if !strings.HasPrefix(pattern, "/") {
		return "/" + pattern
	}
	return pattern
}

// Manifest is the compiled, immutable output of Build: the ordered route
// list, a dense handler table indexed by handler_id, and the populated
// router ready for Find calls.
type Manifest struct {
	Routes   []Route
	Handlers []core.Handler
	Router   *router.Router
}

// Build assigns handler_ids in source order, expands MethodALL, computes
// has_params/has_wildcard, and inserts every route into a fresh router.Router.
// Returns router.ErrInvalidPattern/ErrDuplicateRoute unchanged on failure —
// both are fatal at server start per spec.md §7.
func (b *Builder) Build() (*Manifest, error) {
	r := router.New()
	var routes []Route
	var handlers []core.Handler

	for _, def := range b.defs {
		id := uint32(len(handlers))
		handlers = append(handlers, def.handler)

		hasParams := strings.Contains(def.pattern, ":")
		hasWildcard := strings.Contains(def.pattern, "*")

		methods := []uint8{def.method}
		if def.method == MethodALL {
			methods = allMethods[:]
		}

		for _, method := range methods {
			if err := r.Insert(method, def.pattern, id); err != nil {
				return nil, err
			}
			routes = append(routes, Route{
				Method:      method,
				Pattern:     def.pattern,
				HandlerID:   id,
				HasParams:   hasParams,
				HasWildcard: hasWildcard,
			})
		}
	}

	return &Manifest{Routes: routes, Handlers: handlers, Router: r}, nil
}
