package model

func init() {
	Register("StationMagnitudeContribution", func() Persistable { return &StationMagnitudeContribution{} })
}

// StationMagnitudeContribution is a DBTable child row: it only ever exists
// inside a Magnitude's Contributions slice and is never looked up by its
// own publicID, so it embeds Object rather than PublicObject.
type StationMagnitudeContribution struct {
	Object

	StationMagnitudeID string
	Weight             *float64
	Residual           *float64
}

func NewStationMagnitudeContribution(stationMagnitudeID string) *StationMagnitudeContribution {
	c := &StationMagnitudeContribution{StationMagnitudeID: stationMagnitudeID}
	InitObject(&c.Object)
	return c
}

func (c *StationMagnitudeContribution) ClassName() string { return "StationMagnitudeContribution" }

func (c *StationMagnitudeContribution) Serialize(a Archiver) {
	a.String("stationMagnitudeID", &c.StationMagnitudeID, IndexAttribute)
	a.OptFloat64("weight", &c.Weight, NoHints)
	a.OptFloat64("residual", &c.Residual, NoHints)
}
