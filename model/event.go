package model

func init() {
	Register("Event", func() Persistable { return &Event{} })
}

// Event is the archive's root PublicObject: every Origin and Pick in a
// dataset is written and read as a child of exactly one Event.
type Event struct {
	PublicObject

	PreferredOriginID    *string
	PreferredMagnitudeID *string
	Type                 *string

	hasCreationInfo bool
	CreationInfo    CreationInfo
}

// NewEvent constructs an Event with a fresh publicID and registers it with
// the identity-cache eviction mechanism.
func NewEvent(publicID string) *Event {
	e := &Event{}
	InitPublicObject(&e.PublicObject, publicID)
	return e
}

func (e *Event) ClassName() string { return "Event" }

func (e *Event) Serialize(a Archiver) {
	a.OptString("preferredOriginID", &e.PreferredOriginID, NoHints)
	a.OptString("preferredMagnitudeID", &e.PreferredMagnitudeID, NoHints)
	a.OptString("type", &e.Type, NoHints)
	a.OptNested("creationInfo", &e.hasCreationInfo, &e.CreationInfo, NoHints)
}
