package harness

// Entity is a named external event source observed by tests - the stand-in
// for the rendering collaborator's event surface. The harness makes no
// assumption about when, or whether, a subscribed event fires.
type Entity struct {
	name      string
	listeners map[string][]func()
}

// NewEntity creates an entity with no subscriptions.
func NewEntity(name string) *Entity {
	return &Entity{
		name:      name,
		listeners: make(map[string][]func()),
	}
}

// Name returns the entity's name.
func (e *Entity) Name() string {
	return e.name
}

// On subscribes fn to a named event. Listeners for one event dispatch in
// subscription order (FIFO), matching the scheduler's tie-break rule.
func (e *Entity) On(event string, fn func()) {
	e.listeners[event] = append(e.listeners[event], fn)
}

// Emit fires all listeners for event and returns how many ran.
// The listener list is snapshotted before dispatch: a listener that
// subscribes during dispatch only sees later emits.
func (e *Entity) Emit(event string) int {
	subs := e.listeners[event]
	fns := make([]func(), len(subs))
	copy(fns, subs)

	for _, fn := range fns {
		fn()
	}
	return len(fns)
}
