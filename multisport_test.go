package fitconvert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucasjlepore/fitconvert/model"
)

var transition = SessionSport{Transition: true}

func sessions(sports ...model.Sport) []SessionSport {
	out := make([]SessionSport, 0, len(sports))
	for _, s := range sports {
		if s == "" {
			out = append(out, transition)
			continue
		}
		out = append(out, SessionSport{Sport: s})
	}
	return out
}

func segmentsFor(spans []SegmentSpan) []model.Segment {
	out := make([]model.Segment, len(spans))
	for i, s := range spans {
		out[i] = model.Segment{Sport: s.Sport}
	}
	return out
}

func TestSegmentSessionsTriathlon(t *testing.T) {
	spans := SegmentSessions(sessions(model.SportRunning, "", model.SportCycling, "", model.SportRunning))
	require.Len(t, spans, 3)
	assert.Equal(t, SegmentSpan{First: 0, Last: 0, Sport: model.SportRunning}, spans[0])
	assert.Equal(t, SegmentSpan{First: 2, Last: 2, Sport: model.SportCycling, Gap: true}, spans[1])
	assert.Equal(t, SegmentSpan{First: 4, Last: 4, Sport: model.SportRunning, Gap: true}, spans[2])
	assert.True(t, IsMultiSport(segmentsFor(spans)))
}

func TestSegmentSessionsMergesSameSport(t *testing.T) {
	spans := SegmentSessions(sessions(model.SportRunning, model.SportRunning))
	require.Len(t, spans, 1)
	assert.Equal(t, 0, spans[0].First)
	assert.Equal(t, 1, spans[0].Last)
	assert.False(t, IsMultiSport(segmentsFor(spans)))
}

func TestSegmentSessionsTransitionSplitsSameSport(t *testing.T) {
	spans := SegmentSessions(sessions(model.SportRunning, "", model.SportRunning))
	require.Len(t, spans, 2)
	assert.False(t, IsMultiSport(segmentsFor(spans)))
}

func TestSegmentSessionsEdgeCases(t *testing.T) {
	assert.Empty(t, SegmentSessions(nil))
	assert.Empty(t, SegmentSessions(sessions("", "")))

	spans := SegmentSessions(sessions("", model.SportSwimming, ""))
	require.Len(t, spans, 1)
	assert.False(t, spans[0].Gap, "a leading transition is not a gap between segments")
}

func TestDetectMultiSportIdempotent(t *testing.T) {
	w := &model.Workout{Segments: []model.Segment{
		{Sport: model.SportSwimming}, {Sport: model.SportCycling}, {Sport: model.SportRunning},
	}}
	DetectMultiSport(w)
	assert.True(t, w.MultiSport)
	assert.Equal(t, model.SportMultisport, w.Sport)

	DetectMultiSport(w)
	assert.True(t, w.MultiSport)
	assert.Equal(t, model.SportMultisport, w.Sport)

	single := &model.Workout{Segments: []model.Segment{{Sport: model.SportRowing}}}
	DetectMultiSport(single)
	DetectMultiSport(single)
	assert.False(t, single.MultiSport)
	assert.Equal(t, model.SportRowing, single.Sport)
}
