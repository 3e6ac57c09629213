package convert

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies one external representation.
type Format string

const (
	FormatFIT     Format = "fit"
	FormatTCX     Format = "tcx"
	FormatGPX     Format = "gpx"
	FormatPWF     Format = "pwf"
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

var formatNames = map[string]Format{
	"fit":     FormatFIT,
	"tcx":     FormatTCX,
	"gpx":     FormatGPX,
	"pwf":     FormatPWF,
	"yaml":    FormatPWF,
	"yml":     FormatPWF,
	"csv":     FormatCSV,
	"parquet": FormatParquet,
}

// Formats lists every format in a stable order.
var Formats = []Format{FormatFIT, FormatTCX, FormatGPX, FormatPWF, FormatCSV, FormatParquet}

// ParseFormat accepts a format name or file extension, case-insensitively.
func ParseFormat(s string) (Format, error) {
	key := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")
	if f, ok := formatNames[key]; ok {
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q", s)
}

// FormatFromPath guesses the format from a file extension.
func FormatFromPath(path string) (Format, bool) {
	f, err := ParseFormat(filepath.Ext(path))
	return f, err == nil
}

// CanImport reports whether an importer exists for f.
func (f Format) CanImport() bool {
	switch f {
	case FormatFIT, FormatTCX, FormatGPX, FormatPWF:
		return true
	}
	return false
}

// CanExport reports whether an exporter exists for f. FIT is import-only.
func (f Format) CanExport() bool {
	switch f {
	case FormatTCX, FormatGPX, FormatPWF, FormatCSV, FormatParquet:
		return true
	}
	return false
}

// Extension is the conventional file extension, without the dot.
func (f Format) Extension() string {
	if f == FormatPWF {
		return "yaml"
	}
	return string(f)
}
