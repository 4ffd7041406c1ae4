// Package recordstream reads sequences of seismic waveform records from a
// file or stdin, filtering them by stream and time window the way the
// source's RecordStream::File did around a single forward-only input
// cursor.
package recordstream

import "time"

// Record is one decoded waveform data record.
type Record struct {
	NetworkCode  string
	StationCode  string
	LocationCode string
	ChannelCode  string
	StartTime    time.Time
	EndTime      time.Time
	Data         []byte
}

// StreamID returns the net.sta.loc.cha identifier Stream.AddStream keys its
// per-stream filters by.
func (r *Record) StreamID() string {
	return r.NetworkCode + "." + r.StationCode + "." + r.LocationCode + "." + r.ChannelCode
}

type timeWindow struct {
	start, end time.Time
}

func (w timeWindow) validStart() bool { return !w.start.IsZero() }
func (w timeWindow) validEnd() bool   { return !w.end.IsZero() }
