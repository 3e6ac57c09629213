//go:build js

package tabular

import (
	"github.com/lucasjlepore/fitconvert/diag"
	"github.com/lucasjlepore/fitconvert/model"
)

// WriteParquet is unavailable in the browser build.
func WriteParquet(*model.Workout, Options, *diag.Collector) ([]byte, error) {
	return nil, diag.Unsupported("export parquet", "parquet output is not available in this build")
}
