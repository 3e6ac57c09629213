// Package fitimport maps decoded FIT device messages onto the canonical
// workout model.
//
// The package never reads raw bytes. A Decoder turns a byte stream into an
// ordered sequence of DecodedMessage values and Import consumes them.
package fitimport

import (
	"github.com/lucasjlepore/fitconvert/diag"
)

// Message kinds consumed by Import.
const (
	KindFileID     = "file_id"
	KindDeviceInfo = "device_info"
	KindSession    = "session"
	KindLap        = "lap"
	KindLength     = "length"
	KindRecord     = "record"
	KindEvent      = "event"
	KindActivity   = "activity"
	KindSport      = "sport"
)

// DecodedMessage is one typed protocol message.
//
// Seq is strictly increasing across a stream; gaps are allowed. Field values
// are int64, float64, string, time.Time or bool, already scaled to SI units,
// except position_lat and position_long which stay raw semicircles.
type DecodedMessage struct {
	Seq    uint64
	Kind   string
	Fields map[string]any
}

// Decoder is the decoding service Import relies on.
type Decoder interface {
	Decode(data []byte) ([]DecodedMessage, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(data []byte) ([]DecodedMessage, error)

// Decode calls f(data).
func (f DecoderFunc) Decode(data []byte) ([]DecodedMessage, error) {
	return f(data)
}

// Decode runs d over data and wraps any failure as a read error.
func Decode(d Decoder, data []byte) ([]DecodedMessage, error) {
	if d == nil {
		return nil, diag.Unsupported("import fit", "no FIT decoder configured")
	}
	msgs, err := d.Decode(data)
	if err != nil {
		return nil, diag.Read("decode fit", err)
	}
	return msgs, nil
}
