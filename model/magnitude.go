package model

func init() {
	Register("Magnitude", func() Persistable { return &Magnitude{} })
}

// Magnitude is a PublicObject child of Origin. Its StationContributions
// field is the one DBTable-hinted attribute in this package: each element
// lives in its own stationmagnitudecontribution row linked back by
// a "magnitude_oid" column, instead of being flattened into magnitude's row.
type Magnitude struct {
	PublicObject

	Value         float64
	Type          *string
	StationCount  *int

	hasCreationInfo      bool
	CreationInfo         CreationInfo
	StationContributions []*StationMagnitudeContribution
}

// NewMagnitude constructs a Magnitude with a fresh publicID, linked in-memory
// to its parent Origin.
func NewMagnitude(publicID string, parent *Origin) *Magnitude {
	m := &Magnitude{}
	InitPublicObject(&m.PublicObject, publicID)
	if parent != nil {
		m.SetParent(&parent.PublicObject)
	}
	return m
}

func (m *Magnitude) ClassName() string { return "Magnitude" }

func (m *Magnitude) Serialize(a Archiver) {
	a.Float64("magnitude", &m.Value, NoHints)
	a.OptString("type", &m.Type, NoHints)
	a.OptInt("stationCount", &m.StationCount, NoHints)
	a.OptNested("creationInfo", &m.hasCreationInfo, &m.CreationInfo, NoHints)

	elems := make([]Persistable, len(m.StationContributions))
	for i, c := range m.StationContributions {
		elems[i] = c
	}
	a.Table("stationMagnitudeContribution", DBTable, func() Persistable {
		return NewStationMagnitudeContribution("")
	}, &elems)
	if a.IsReading() {
		m.StationContributions = m.StationContributions[:0]
		for _, e := range elems {
			m.StationContributions = append(m.StationContributions, e.(*StationMagnitudeContribution))
		}
	}
}
