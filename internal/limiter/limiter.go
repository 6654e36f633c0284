package limiter

import (
    "sync"
)

// Gate caps how many documents render at once. Composition and
// rasterization hold whole documents in memory, so the cap stays small.
type Gate struct {
    maxInflight int
    mu          sync.Mutex
    sem         map[string]chan struct{}
}

type Options struct {
    MaxInflight int
}

func New(opts Options) *Gate {
    if opts.MaxInflight <= 0 { opts.MaxInflight = 2 }
    return &Gate{maxInflight: opts.MaxInflight, sem: map[string]chan struct{}{}}
}

// Allow tries to reserve an in-process slot for the given operation.
// Returns a release function and true if allowed; otherwise nil-op,false.
func (g *Gate) Allow(op string) (func(), bool) {
    g.mu.Lock()
    ch, ok := g.sem[op]
    if !ok {
        ch = make(chan struct{}, g.maxInflight)
        g.sem[op] = ch
    }
    g.mu.Unlock()
    select {
    case ch <- struct{}{}:
        return func() { <-ch }, true
    default:
        return func(){}, false
    }
}
