package model

func init() {
	Register("Origin", func() Persistable { return &Origin{} })
}

// Origin is a PublicObject child of Event: one hypocenter/time solution.
type Origin struct {
	PublicObject

	Time      Time
	Latitude  float64
	Longitude float64
	Depth     *float64

	EvaluationMode *string

	hasCreationInfo bool
	CreationInfo    CreationInfo
}

// NewOrigin constructs an Origin with a fresh publicID, linked in-memory to
// its parent Event.
func NewOrigin(publicID string, parent *Event) *Origin {
	o := &Origin{}
	InitPublicObject(&o.PublicObject, publicID)
	if parent != nil {
		o.SetParent(&parent.PublicObject)
	}
	return o
}

func (o *Origin) ClassName() string { return "Origin" }

func (o *Origin) Serialize(a Archiver) {
	a.Time("time", &o.Time, SplitTime)
	a.Float64("latitude", &o.Latitude, NoHints)
	a.Float64("longitude", &o.Longitude, NoHints)
	a.OptFloat64("depth", &o.Depth, NoHints)
	a.OptString("evaluationMode", &o.EvaluationMode, NoHints)
	a.OptNested("creationInfo", &o.hasCreationInfo, &o.CreationInfo, NoHints)
}
