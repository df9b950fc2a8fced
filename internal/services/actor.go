package services

import "context"

// ActorProvider resolves the identity stamped on audit fields at
// mutation time. Injected so real per-user auditing can be wired later
// without touching the merge logic.
type ActorProvider interface {
	Actor(ctx context.Context) string
}

type staticActorProvider struct {
	name string
}

func NewStaticActorProvider(name string) ActorProvider {
	if name == "" {
		name = "SYSTEM"
	}
	return &staticActorProvider{name: name}
}

func (p *staticActorProvider) Actor(ctx context.Context) string {
	return p.name
}
