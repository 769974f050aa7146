package core

import "sync"

// ContextPool reuses Context values across requests, avoiding a per-request
// heap allocation for every connection's hot path.
//
// Ground: bolt/core/context_pool.go's ContextPool, unchanged in shape.
type ContextPool struct {
	pool sync.Pool
}

// NewContextPool creates an empty pool.
func NewContextPool() *ContextPool {
	return &ContextPool{
		pool: sync.Pool{
			New: func() interface{} { return &Context{} },
		},
	}
}

// Acquire retrieves a reset Context from the pool.
func (p *ContextPool) Acquire() *Context {
	return p.pool.Get().(*Context)
}

// Release resets ctx and returns it to the pool. ctx must not be used
// afterward.
func (p *ContextPool) Release(ctx *Context) {
	ctx.Reset()
	p.pool.Put(ctx)
}

// Warmup pre-populates the pool with count Contexts, eliminating cold-start
// allocations under initial burst load.
func (p *ContextPool) Warmup(count int) {
	ctxs := make([]*Context, count)
	for i := range ctxs {
		ctxs[i] = p.Acquire()
	}
	for _, ctx := range ctxs {
		p.Release(ctx)
	}
}
