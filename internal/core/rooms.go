package core

// Table tracks which sessions belong to which room. A session belongs to at
// most one room at a time; joining a new room replaces the previous
// membership. Only the hub goroutine touches the table, so each mutation and
// the broadcast it triggers are atomic as a unit.
type Table struct {
	rooms map[string]map[*Session]struct{}
}

// NewTable constructs an empty membership table.
func NewTable() *Table {
	return &Table{rooms: make(map[string]map[*Session]struct{})}
}

// Join adds the session to the room's audience, leaving its previous room
// first, and updates the session's current-room field.
func (t *Table) Join(s *Session, room string) {
	t.Leave(s)

	audience, ok := t.rooms[room]
	if !ok {
		audience = make(map[*Session]struct{})
		t.rooms[room] = audience
	}
	audience[s] = struct{}{}
	s.room = room
}

// Leave removes the session from its current room, if any. Empty rooms are
// deleted.
func (t *Table) Leave(s *Session) {
	if s.room == "" {
		return
	}
	if audience, ok := t.rooms[s.room]; ok {
		delete(audience, s)
		if len(audience) == 0 {
			delete(t.rooms, s.room)
		}
	}
}

// Broadcast sends an event to every session currently in the room.
func (t *Table) Broadcast(room string, event *Event) {
	for s := range t.rooms[room] {
		s.send(event)
	}
}

// BroadcastExcept sends an event to every session in the room other than
// the excluded one.
func (t *Table) BroadcastExcept(room string, event *Event, except *Session) {
	for s := range t.rooms[room] {
		if s == except {
			continue
		}
		s.send(event)
	}
}
