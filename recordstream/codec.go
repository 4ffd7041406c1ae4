package recordstream

import (
	"encoding/binary"
	"encoding/xml"
	"fmt"
	"io"
	"time"
)

// Codec decodes one Record at a time from r, returning io.EOF once the
// input is exhausted. There is no ecosystem miniseed/AH decoder in reach
// here, so codecs are built on encoding/binary and encoding/xml directly,
// the same way the source dispatches to a RecordFactory chosen by file
// extension.
type Codec interface {
	Decode(r io.Reader) (*Record, error)
}

var codecs = map[string]Codec{
	"bin": BinaryCodec{},
	"xml": XMLCodec{},
}

// RegisterCodec installs c for file extension ext (without the dot).
func RegisterCodec(ext string, c Codec) {
	codecs[ext] = c
}

// CodecFor returns the codec registered for ext, defaulting to BinaryCodec
// when ext is unrecognized (the source defaulted to "mseed" the same way).
func CodecFor(ext string) Codec {
	if c, ok := codecs[ext]; ok {
		return c
	}
	return BinaryCodec{}
}

// wireHeader is the fixed-width header BinaryCodec reads ahead of each
// record's payload.
type wireHeader struct {
	Network  [2]byte
	Station  [5]byte
	Location [2]byte
	Channel  [3]byte
	StartSec int64
	EndSec   int64
	DataLen  uint32
}

// BinaryCodec decodes seisarchive's own fixed-width binary record framing:
// a wireHeader followed by DataLen bytes of payload.
type BinaryCodec struct{}

func (BinaryCodec) Decode(r io.Reader) (*Record, error) {
	var h wireHeader
	if err := binary.Read(r, binary.BigEndian, &h); err != nil {
		return nil, err
	}
	data := make([]byte, h.DataLen)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("recordstream: short payload: %w", err)
	}
	return &Record{
		NetworkCode:  trimZero(h.Network[:]),
		StationCode:  trimZero(h.Station[:]),
		LocationCode: trimZero(h.Location[:]),
		ChannelCode:  trimZero(h.Channel[:]),
		StartTime:    time.Unix(h.StartSec, 0).UTC(),
		EndTime:      time.Unix(h.EndSec, 0).UTC(),
		Data:         data,
	}, nil
}

func trimZero(b []byte) string {
	n := 0
	for n < len(b) && b[n] != 0 {
		n++
	}
	return string(b[:n])
}

// xmlRecord is the wire shape XMLCodec decodes, one <record> element per
// call to Decode.
type xmlRecord struct {
	XMLName  xml.Name `xml:"record"`
	Network  string   `xml:"network"`
	Station  string   `xml:"station"`
	Location string   `xml:"location"`
	Channel  string   `xml:"channel"`
	Start    string   `xml:"start"`
	End      string   `xml:"end"`
	Data     []byte   `xml:"data"`
}

// XMLCodec decodes a stream of whitespace-separated <record> elements. Each
// Decode call builds a new xml.Decoder, so r must implement io.ByteReader
// (Stream supplies a bufio.Reader); from any other reader the decoder
// buffers ahead and input past the first record is consumed and lost.
type XMLCodec struct{}

func (XMLCodec) Decode(r io.Reader) (*Record, error) {
	dec := xml.NewDecoder(r)
	var xr xmlRecord
	if err := dec.Decode(&xr); err != nil {
		return nil, err
	}
	start, err := time.Parse(time.RFC3339, xr.Start)
	if err != nil {
		return nil, fmt.Errorf("recordstream: bad start time %q: %w", xr.Start, err)
	}
	end, err := time.Parse(time.RFC3339, xr.End)
	if err != nil {
		return nil, fmt.Errorf("recordstream: bad end time %q: %w", xr.End, err)
	}
	return &Record{
		NetworkCode:  xr.Network,
		StationCode:  xr.Station,
		LocationCode: xr.Location,
		ChannelCode:  xr.Channel,
		StartTime:    start,
		EndTime:      end,
		Data:         xr.Data,
	}, nil
}
