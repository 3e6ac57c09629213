package fitconvert

import "github.com/lucasjlepore/fitconvert/model"

// SessionSport is one entry of the ordered session list fed to
// SegmentSessions.
type SessionSport struct {
	Sport      model.Sport
	Transition bool
}

// SegmentSpan is a run of sessions, by index into the input, that form one
// Segment. Gap reports whether a transition preceded the span.
type SegmentSpan struct {
	First, Last int
	Sport       model.Sport
	Gap         bool
}

// SegmentSessions groups sessions into segment boundaries. Transition
// sessions never produce a span; they separate the spans around them.
// Adjacent sessions of the same sport with no transition between them merge.
func SegmentSessions(sessions []SessionSport) []SegmentSpan {
	var (
		spans  []SegmentSpan
		sawGap bool
	)
	for i, s := range sessions {
		if s.Transition {
			sawGap = true
			continue
		}
		if n := len(spans); n > 0 && !sawGap && spans[n-1].Sport == s.Sport {
			spans[n-1].Last = i
			continue
		}
		spans = append(spans, SegmentSpan{First: i, Last: i, Sport: s.Sport, Gap: sawGap && len(spans) > 0})
		sawGap = false
	}
	return spans
}

// IsMultiSport reports whether the segments cover at least two distinct
// sports.
func IsMultiSport(segments []model.Segment) bool {
	seen := make(map[model.Sport]struct{}, len(segments))
	for _, s := range segments {
		seen[s.Sport] = struct{}{}
	}
	return len(seen) >= 2
}

// DetectMultiSport sets the workout's multi-sport flag and primary sport
// from its segments. Running it again on the same workout changes nothing.
func DetectMultiSport(w *model.Workout) {
	w.MultiSport = IsMultiSport(w.Segments)
	switch {
	case w.MultiSport:
		w.Sport = model.SportMultisport
	case len(w.Segments) > 0:
		w.Sport = w.Segments[0].Sport
	case w.Sport == "":
		w.Sport = model.SportOther
	}
}
