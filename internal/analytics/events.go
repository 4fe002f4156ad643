package analytics

import "time"

type EventType string

const (
	EventSearch     EventType = "search"
	EventZeroResult EventType = "zero_result"
	EventEmptyQuery EventType = "empty_query"
)

// Surface names where a query came from.
type Surface string

const (
	SurfaceREPL Surface = "repl"
	SurfaceHTTP Surface = "http"
	SurfaceMCP  Surface = "mcp"
)

type QueryEvent struct {
	Type            EventType `json:"type"`
	Surface         Surface   `json:"surface"`
	Query           string    `json:"query"`
	Terms           []string  `json:"terms"`
	OutOfVocabulary []string  `json:"out_of_vocabulary,omitempty"`
	TotalHits       int       `json:"total_hits"`
	Returned        int       `json:"returned"`
	LatencyMs       int64     `json:"latency_ms"`
	CacheHit        bool      `json:"cache_hit"`
	Fingerprint     uint32    `json:"index_fingerprint"`
	Timestamp       time.Time `json:"timestamp"`
	RequestID       string    `json:"request_id,omitempty"`
}

// ClassifyEvent picks the event type from the query outcome.
func ClassifyEvent(terms []string, returned int) EventType {
	switch {
	case len(terms) == 0:
		return EventEmptyQuery
	case returned == 0:
		return EventZeroResult
	default:
		return EventSearch
	}
}

// Tracker receives query events. Implementations must not block.
type Tracker interface {
	Track(event QueryEvent)
}

type tee []Tracker

func (t tee) Track(event QueryEvent) {
	for _, tr := range t {
		tr.Track(event)
	}
}

// Tee fans an event out to every non-nil tracker.
func Tee(trackers ...Tracker) Tracker {
	out := make(tee, 0, len(trackers))
	for _, tr := range trackers {
		if tr != nil {
			out = append(out, tr)
		}
	}
	return out
}
