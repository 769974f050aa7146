// Command ignis runs a standalone server wired from a manifest.Builder and
// core.DefaultConfig, the same shape as bolt/examples/hello/main.go's
// app.Get/app.Run sequence, but built from the split manifest/server
// packages instead of a single monolithic App.
package main

import (
	"log"

	"github.com/ignishttp/ignis/pkg/ignis/core"
	"github.com/ignishttp/ignis/pkg/ignis/manifest"
	"github.com/ignishttp/ignis/pkg/ignis/server"
)

type user struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func main() {
	b := manifest.NewBuilder()

	b.Get("/", func(c *core.Context) error {
		return c.JSON(200, map[string]string{
			"message": "Hello, ignis!",
		})
	})

	b.Get("/health", func(c *core.Context) error {
		return c.JSON(200, map[string]string{"status": "healthy"})
	})

	b.Get("/users/:id", func(c *core.Context) error {
		id := c.Param("id")
		if id == "" {
			return core.ErrBadRequest
		}
		return c.JSON(200, user{ID: 123, Name: "Alice", Email: "alice@example.com"})
	})

	api := b.Group("/api/v1")
	api.Post("/users", func(c *core.Context) error {
		var req struct {
			Name  string `json:"name"`
			Email string `json:"email"`
		}
		if err := c.BindJSON(&req); err != nil {
			return core.ErrBadRequest
		}
		if req.Name == "" || req.Email == "" {
			return core.ErrBadRequest
		}
		return c.JSON(201, user{ID: 456, Name: req.Name, Email: req.Email})
	})

	m, err := b.Build()
	if err != nil {
		log.Fatalf("manifest build: %v", err)
	}

	cfg := core.DefaultConfig()
	srv := server.New(cfg, m)

	log.Printf("ignis listening on %s:%d", cfg.Hostname, cfg.EffectivePort())
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("serve: %v", err)
	}
}
