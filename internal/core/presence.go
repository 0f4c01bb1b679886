package core

// Publisher rebroadcasts the full online-user set to every connected
// session whenever the registry changes. Always the full set, never a diff;
// receivers treat it as idempotent.
type Publisher struct {
	registry *Registry
}

// NewPublisher builds a presence publisher over the given registry.
func NewPublisher(registry *Registry) *Publisher {
	return &Publisher{registry: registry}
}

// Publish sends the current username set to each connected session.
func (p *Publisher) Publish(sessions map[*Session]struct{}) {
	event := &Event{Kind: EventOnlineUsers, Users: p.registry.Usernames()}
	for s := range sessions {
		s.send(event)
	}
}
