package model

func init() {
	Register("Pick", func() Persistable { return &Pick{} })
}

// Pick is a PublicObject child of Event: a single phase arrival-time
// measurement on one waveform stream.
type Pick struct {
	PublicObject

	Time       Time
	WaveformID WaveformStreamID
	PhaseHint  *string

	hasCreationInfo bool
	CreationInfo    CreationInfo
}

// NewPick constructs a Pick with a fresh publicID, linked in-memory to its
// parent Event.
func NewPick(publicID string, parent *Event) *Pick {
	p := &Pick{}
	InitPublicObject(&p.PublicObject, publicID)
	if parent != nil {
		p.SetParent(&parent.PublicObject)
	}
	return p
}

func (p *Pick) ClassName() string { return "Pick" }

func (p *Pick) Serialize(a Archiver) {
	a.Time("time", &p.Time, SplitTime)
	a.Nested("waveformID", &p.WaveformID, NoHints)
	a.OptString("phaseHint", &p.PhaseHint, NoHints)
	a.OptNested("creationInfo", &p.hasCreationInfo, &p.CreationInfo, NoHints)
}
