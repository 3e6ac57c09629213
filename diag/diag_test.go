package diag

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorKeepsDuplicates(t *testing.T) {
	c := NewCollector()
	c.Unsupported("record[0].grade", "no destination")
	c.Unsupported("record[1].grade", "no destination")
	c.Unsupported("record[1].grade", "no destination")
	c.Clamped("session[0].pool_length", "fell back to %q", "25 m")

	require.Equal(t, 4, c.Len())
	assert.Equal(t, 3, c.Count(KindUnsupportedFeature))
	assert.Equal(t, 1, c.Count(KindValueClamped))

	ws := c.Warnings()
	assert.Equal(t, `fell back to "25 m"`, ws[3].Message)
	assert.Equal(t, "record[0].grade", ws[0].Path)

	ws[0].Path = "mutated"
	assert.Equal(t, "record[0].grade", c.Warnings()[0].Path)
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	c.MissingField("x", "y")
	c.Append(Warning{Kind: KindDataQuality})
	assert.Equal(t, 0, c.Len())
	assert.Nil(t, c.Warnings())
}

func TestWarningString(t *testing.T) {
	w := Warning{Kind: KindMissingField, Message: "start time absent", Path: "workouts[0]"}
	assert.Equal(t, "[missing-field] workouts[0]: start time absent", w.String())
	w.Path = ""
	assert.Equal(t, "[missing-field] start time absent", w.String())
}

func TestErrorMatchesKindAndCause(t *testing.T) {
	err := Read("decode fit", io.ErrUnexpectedEOF)
	assert.True(t, errors.Is(err, ErrRead))
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.False(t, errors.Is(err, ErrInvalidData))
	assert.Equal(t, "read", KindOf(err))

	inv := Invalid("import fit", "lap[3]", "session index %d does not exist", 4)
	assert.True(t, errors.Is(inv, ErrInvalidData))
	assert.Contains(t, inv.Error(), "lap[3]")
	assert.Contains(t, inv.Error(), "session index 4 does not exist")

	miss := Missing("import gpx", "workout.start_time")
	assert.Equal(t, "missing_required_field", KindOf(miss))
	assert.Equal(t, "import gpx: missing required field at workout.start_time", miss.Error())

	assert.Equal(t, "ok", KindOf(nil))
	assert.Equal(t, "unknown", KindOf(errors.New("boom")))
}
