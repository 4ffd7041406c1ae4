package model

// WaveformStreamID is a nested value identifying the network/station/
// location/channel a Pick was made on. Like CreationInfo it is flattened
// into its parent's row rather than persisted independently.
type WaveformStreamID struct {
	NetworkCode  string
	StationCode  string
	LocationCode *string
	ChannelCode  string
	ResourceURI  *string
}

func (w *WaveformStreamID) ClassName() string { return "WaveformStreamID" }

func (w *WaveformStreamID) Serialize(a Archiver) {
	a.String("networkCode", &w.NetworkCode, IndexAttribute)
	a.String("stationCode", &w.StationCode, IndexAttribute)
	a.OptString("locationCode", &w.LocationCode, IndexAttribute)
	a.String("channelCode", &w.ChannelCode, IndexAttribute)
	a.OptString("resourceURI", &w.ResourceURI, NoHints)
}
