package recordstream

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Stream reads Records from a file (or "-" for stdin), applying per-stream
// and global time-window filters the way the source's RecordStream::File
// did around its FilterMap. Close is cooperative: it marks the stream for
// shutdown and Next observes that flag on its next call, mirroring the
// source's _closeRequested flag rather than tearing down mid-read.
type Stream struct {
	mu sync.Mutex

	name  string
	rc    io.ReadCloser
	codec Codec

	filters   map[string]timeWindow
	startTime time.Time
	endTime   time.Time

	closeRequested bool
}

// NewStream returns an unopened Stream; call SetSource before Next.
func NewStream() *Stream {
	return &Stream{filters: make(map[string]timeWindow)}
}

// SetSource opens name (or stdin, if name is "-") and selects a codec by
// its file extension.
func (s *Stream) SetSource(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rc != nil {
		s.rc.Close()
	}
	s.name = name
	s.closeRequested = false

	// Every Decode call reads through one bufio.Reader kept for the life of
	// the source. It implements io.ByteReader, so XMLCodec's per-call
	// xml.Decoder reads from it directly instead of buffering ahead on its
	// own and dropping that read-ahead when Decode returns.
	type bufferedSource struct {
		*bufio.Reader
		io.Closer
	}

	if name == "-" {
		s.rc = bufferedSource{bufio.NewReader(os.Stdin), io.NopCloser(os.Stdin)}
		s.codec = CodecFor("bin")
		return nil
	}

	f, err := os.Open(name)
	if err != nil {
		return err
	}
	s.rc = bufferedSource{bufio.NewReader(f), f}
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	s.codec = CodecFor(ext)
	return nil
}

// AddStream subscribes to net.sta.loc.cha, optionally narrowed to
// [start, end). Passing zero times subscribes with no per-stream window,
// falling back to the stream-wide SetStartTime/SetEndTime bounds.
func (s *Stream) AddStream(net, sta, loc, cha string, start, end time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := net + "." + sta + "." + loc + "." + cha
	s.filters[id] = timeWindow{start: start, end: end}
}

// SetStartTime sets the inclusive global start bound applied to streams
// with no narrower per-stream window.
func (s *Stream) SetStartTime(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startTime = t
}

// SetEndTime sets the exclusive global end bound applied to streams with
// no narrower per-stream window.
func (s *Stream) SetEndTime(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endTime = t
}

// Close requests a cooperative shutdown: the next Next call releases the
// underlying file and returns (nil, io.EOF) instead of decoding further.
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeRequested = true
}

// Next decodes and returns the next record passing the configured filters,
// or (nil, io.EOF) once the input or a Close request ends the stream.
func (s *Stream) Next() (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closeRequested {
		s.reset()
		return nil, io.EOF
	}
	if s.rc == nil {
		return nil, io.EOF
	}

	for {
		rec, err := s.codec.Decode(s.rc)
		if err != nil {
			s.reset()
			return nil, io.EOF
		}
		if s.passesFilter(rec) {
			return rec, nil
		}
	}
}

func (s *Stream) reset() {
	if s.rc != nil {
		s.rc.Close()
		s.rc = nil
	}
	s.filters = make(map[string]timeWindow)
	s.closeRequested = false
}

func (s *Stream) passesFilter(rec *Record) bool {
	if len(s.filters) > 0 {
		w, subscribed := s.filters[rec.StreamID()]
		if !subscribed {
			return false
		}
		if w.validStart() {
			if rec.EndTime.Before(w.start) {
				return false
			}
		} else if !s.startTime.IsZero() && rec.EndTime.Before(s.startTime) {
			return false
		}
		if w.validEnd() {
			if !rec.StartTime.Before(w.end) {
				return false
			}
		} else if !s.endTime.IsZero() && !rec.StartTime.Before(s.endTime) {
			return false
		}
		return true
	}

	if !s.startTime.IsZero() && rec.EndTime.Before(s.startTime) {
		return false
	}
	if !s.endTime.IsZero() && !rec.StartTime.Before(s.endTime) {
		return false
	}
	return true
}
