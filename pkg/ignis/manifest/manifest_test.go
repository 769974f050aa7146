package manifest

import (
	"testing"

	"github.com/ignishttp/ignis/pkg/ignis/core"
	"github.com/ignishttp/ignis/pkg/ignis/router"
	"github.com/ignishttp/ignis/pkg/ignis/wire"
)

func noop(*core.Context) error { return nil }

func TestBuilder_HandlerIDSequential(t *testing.T) {
	b := NewBuilder()
	b.Get("/a", noop)
	b.Post("/b", noop)

	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(m.Handlers) != 2 {
		t.Fatalf("len(Handlers) = %d, want 2", len(m.Handlers))
	}
	if m.Routes[0].HandlerID != 0 || m.Routes[1].HandlerID != 1 {
		t.Errorf("handler ids = %d, %d, want 0, 1", m.Routes[0].HandlerID, m.Routes[1].HandlerID)
	}
}

func TestBuilder_AllExpandsToSevenMethods(t *testing.T) {
	b := NewBuilder()
	b.All("/ping", noop)

	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(m.Routes) != 7 {
		t.Fatalf("len(Routes) = %d, want 7", len(m.Routes))
	}
	for _, route := range m.Routes {
		if route.HandlerID != 0 {
			t.Errorf("route %+v has non-zero handler id, want shared id 0", route)
		}
	}

	match := m.Router.Find(wire.MethodOPTIONS, []byte("/ping"))
	if !match.Found || match.HandlerID != 0 {
		t.Errorf("OPTIONS /ping not routed to shared handler: %+v", match)
	}
}

func TestBuilder_GroupPrefixConcatenation(t *testing.T) {
	b := NewBuilder()
	api := b.Group("/api")
	v1 := api.Group("/v1")
	v1.Get("/users/:id", noop)

	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if m.Routes[0].Pattern != "/api/v1/users/:id" {
		t.Errorf("pattern = %q, want /api/v1/users/:id", m.Routes[0].Pattern)
	}
	if !m.Routes[0].HasParams {
		t.Error("HasParams = false, want true")
	}

	match := m.Router.Find(wire.MethodGET, []byte("/api/v1/users/7"))
	if !match.Found || string(match.Params[0].Value) != "7" {
		t.Errorf("route not matched after group prefixing: %+v", match)
	}
}

func TestBuilder_HasWildcardDetection(t *testing.T) {
	b := NewBuilder()
	b.Get("/files/*path", noop)

	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !m.Routes[0].HasWildcard {
		t.Error("HasWildcard = false, want true")
	}
}

func TestBuilder_DuplicateRouteIsFatal(t *testing.T) {
	b := NewBuilder()
	b.Get("/a", noop)
	b.Get("/a", noop)

	if _, err := b.Build(); err != router.ErrDuplicateRoute {
		t.Errorf("err = %v, want ErrDuplicateRoute", err)
	}
}

func TestBuilder_InvalidPatternIsFatal(t *testing.T) {
	b := NewBuilder()
	b.Get("/a/*rest/b", noop)

	if _, err := b.Build(); err != router.ErrInvalidPattern {
		t.Errorf("err = %v, want ErrInvalidPattern", err)
	}
}
