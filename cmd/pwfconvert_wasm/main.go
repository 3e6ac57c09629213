//go:build js && wasm

package main

import (
	"syscall/js"

	"github.com/lucasjlepore/fitconvert"
	"github.com/lucasjlepore/fitconvert/convert"
	"github.com/lucasjlepore/fitconvert/diag"
	"github.com/lucasjlepore/fitconvert/tabular"
)

var converter = convert.New(nil)

func main() {
	js.Global().Set("convertActivity", js.FuncOf(convertActivity))
	select {}
}

func convertActivity(_ js.Value, args []js.Value) any {
	if len(args) < 2 {
		return failure("expected arguments: fileBytes(Uint8Array), options(object)")
	}
	fileArg := args[0]
	optsArg := args[1]
	if fileArg.IsUndefined() || fileArg.IsNull() || fileArg.Get("length").Int() == 0 {
		return failure("activity file bytes are required")
	}

	data := make([]byte, fileArg.Get("length").Int())
	if n := js.CopyBytesToGo(data, fileArg); n == 0 {
		return failure("failed to read activity bytes from JS input")
	}

	from, err := convert.ParseFormat(getString(optsArg, "from", "fit"))
	if err != nil {
		return failure(err.Error())
	}
	to, err := convert.ParseFormat(getString(optsArg, "to", "pwf"))
	if err != nil {
		return failure(err.Error())
	}
	cols, err := tabular.ParseColumns(getString(optsArg, "columns", ""))
	if err != nil {
		return failure(err.Error())
	}
	opts := convert.Options{
		From:         from,
		To:           to,
		SummaryOnly:  getBool(optsArg, "summary_only"),
		WorkoutIndex: int(getFloat(optsArg, "workout_index")),
		Validate:     getBool(optsArg, "validate"),
		Analysis: fitconvert.Options{
			Power: fitconvert.PowerOptions{
				FTPWatts:    getFloat(optsArg, "ftp_w"),
				EstimateFTP: getBool(optsArg, "estimate_ftp"),
			},
		},
		Tabular: tabular.Options{Columns: cols, Metadata: getBool(optsArg, "metadata")},
	}

	res, err := converter.Convert(data, opts)
	if err != nil {
		out := failure(err.Error())
		out["error_kind"] = diag.KindOf(err)
		out["warnings"] = warningsToAny(res.Warnings)
		return out
	}

	payload := js.Global().Get("Uint8Array").New(len(res.Payload))
	js.CopyBytesToJS(payload, res.Payload)
	return map[string]any{
		"ok":        true,
		"payload":   payload,
		"extension": to.Extension(),
		"summary":   fitconvert.Describe(res.Workout),
		"warnings":  warningsToAny(res.Warnings),
	}
}

func failure(msg string) map[string]any {
	return map[string]any{
		"ok":    false,
		"error": msg,
	}
}

func getString(v js.Value, key, fallback string) string {
	if v.IsUndefined() || v.IsNull() {
		return fallback
	}
	out := v.Get(key)
	if out.IsUndefined() || out.IsNull() {
		return fallback
	}
	s := out.String()
	if s == "" || s == "undefined" || s == "null" {
		return fallback
	}
	return s
}

func getFloat(v js.Value, key string) float64 {
	if v.IsUndefined() || v.IsNull() {
		return 0
	}
	out := v.Get(key)
	if out.IsUndefined() || out.IsNull() || out.Type() != js.TypeNumber {
		return 0
	}
	return out.Float()
}

func getBool(v js.Value, key string) bool {
	if v.IsUndefined() || v.IsNull() {
		return false
	}
	out := v.Get(key)
	return out.Type() == js.TypeBoolean && out.Bool()
}

func warningsToAny(ws []diag.Warning) []any {
	out := make([]any, len(ws))
	for i, w := range ws {
		out[i] = map[string]any{
			"kind":    string(w.Kind),
			"path":    w.Path,
			"message": w.Message,
		}
	}
	return out
}
