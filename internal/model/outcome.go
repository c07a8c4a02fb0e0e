package model

import "time"

// OutcomeKind classifies the result of fetching one day from the archive.
type OutcomeKind string

const (
	OutcomeSuccess        OutcomeKind = "SUCCESS"
	OutcomeHTTPError      OutcomeKind = "HTTP_ERROR"
	OutcomeTransportError OutcomeKind = "TRANSPORT_ERROR"
	OutcomeSkipped        OutcomeKind = "SKIPPED"
)

// SkipReasonWeekend is the only skip reason the fetcher produces.
const SkipReasonWeekend = "weekend"

// FetchOutcome is the classified result for a single date. Only the fields
// relevant to Kind are set.
type FetchOutcome struct {
	Kind OutcomeKind
	Date time.Time

	// Success: nil when the tracked index was absent from the day's table.
	Row *ArchiveRow

	// HTTPError
	Status  int
	Payload []byte

	// TransportError
	Err error

	// Skipped
	Reason string
}

// HasRow reports whether the outcome carries a bar to merge.
func (o FetchOutcome) HasRow() bool {
	return o.Kind == OutcomeSuccess && o.Row != nil
}

// Detail renders the kind-specific part of the outcome for logs and run history.
func (o FetchOutcome) Detail() string {
	switch o.Kind {
	case OutcomeHTTPError:
		return string(o.Payload)
	case OutcomeTransportError:
		if o.Err != nil {
			return o.Err.Error()
		}
	case OutcomeSkipped:
		return o.Reason
	case OutcomeSuccess:
		if o.Row == nil {
			return "index not present"
		}
	}
	return ""
}
