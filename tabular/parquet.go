//go:build !js

package tabular

import (
	"math"
	"time"

	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/lucasjlepore/fitconvert/diag"
	"github.com/lucasjlepore/fitconvert/model"
)

const parquetOp = "export parquet"

// The Parquet schema is fixed: every sample column is present and missing
// values are NaN, so column selection does not apply.
type parquetRow struct {
	Timestamp    string  `parquet:"name=timestamp, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	ElapsedS     float64 `parquet:"name=elapsed_s, type=DOUBLE"`
	Segment      int32   `parquet:"name=segment, type=INT32"`
	Sport        string  `parquet:"name=sport, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	HeartRate    float64 `parquet:"name=heart_rate, type=DOUBLE"`
	Power        float64 `parquet:"name=power, type=DOUBLE"`
	Cadence      float64 `parquet:"name=cadence, type=DOUBLE"`
	Latitude     float64 `parquet:"name=latitude, type=DOUBLE"`
	Longitude    float64 `parquet:"name=longitude, type=DOUBLE"`
	AltitudeM    float64 `parquet:"name=altitude_m, type=DOUBLE"`
	SpeedMPS     float64 `parquet:"name=speed_mps, type=DOUBLE"`
	TemperatureC float64 `parquet:"name=temperature_c, type=DOUBLE"`
	DistanceM    float64 `parquet:"name=distance_m, type=DOUBLE"`
}

// WriteParquet renders the samples as a Snappy-compressed Parquet file.
func WriteParquet(w *model.Workout, opts Options, c *diag.Collector) ([]byte, error) {
	rows := Rows(w)
	warnDropped(w, rows, c)
	if len(opts.Columns) > 0 {
		c.Unsupported("columns", "parquet output always carries every column")
	}

	fw := parquetbuffer.NewBufferFile()
	pw, err := writer.NewParquetWriter(fw, new(parquetRow), 4)
	if err != nil {
		return nil, diag.Serialization(parquetOp, err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, r := range rows {
		p := r.Point
		row := parquetRow{
			Timestamp:    r.Time.UTC().Format(time.RFC3339Nano),
			ElapsedS:     r.ElapsedSec,
			Segment:      int32(r.Segment),
			Sport:        string(r.Sport),
			HeartRate:    valueOrNaN(p.HeartRate),
			Power:        valueOrNaN(p.Power),
			Cadence:      valueOrNaN(p.Cadence),
			Latitude:     valueOrNaN(p.Lat),
			Longitude:    valueOrNaN(p.Lon),
			AltitudeM:    valueOrNaN(p.AltitudeM),
			SpeedMPS:     valueOrNaN(p.SpeedMPS),
			TemperatureC: valueOrNaN(p.TemperatureC),
			DistanceM:    valueOrNaN(p.DistanceM),
		}
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			return nil, diag.Serialization(parquetOp, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, diag.Serialization(parquetOp, err)
	}
	if err := fw.Close(); err != nil {
		return nil, diag.Serialization(parquetOp, err)
	}
	return append([]byte(nil), fw.Bytes()...), nil
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
