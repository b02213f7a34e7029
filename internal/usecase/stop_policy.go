package usecase

import "github.com/user/news-harvester/internal/entity"

// Decision is what the harvester does after assembling a document.
type Decision int

const (
	// Continue keeps traversing.
	Continue Decision = iota
	// StopDuplicate ends the run; the candidate is the last known document and is dropped.
	StopDuplicate
	// StopMaxCount ends the run; the candidate is kept and fills the cap.
	StopMaxCount
)

func (d Decision) String() string {
	switch d {
	case StopDuplicate:
		return "stop-duplicate"
	case StopMaxCount:
		return "stop-maxcount"
	default:
		return "continue"
	}
}

// Outcome maps a stop decision to the run outcome it produces.
func (d Decision) Outcome() entity.Outcome {
	switch d {
	case StopDuplicate:
		return entity.OutcomeStopDuplicate
	case StopMaxCount:
		return entity.OutcomeStopMaxCount
	default:
		return entity.OutcomeExhaustedWindow
	}
}

// StopPolicy decides when a run has reached known content or its cap.
// A zero MaxCount and a nil LastKnown disable the respective check.
type StopPolicy struct {
	MaxCount  int
	LastKnown *entity.Document
}

// Evaluate is called with the number of documents accumulated before candidate.
// The duplicate check runs first and excludes the candidate; the cap check
// counts the candidate as already appended.
func (p StopPolicy) Evaluate(candidate *entity.Document, accumulated int) Decision {
	if p.LastKnown != nil && candidate.SameContent(p.LastKnown) {
		return StopDuplicate
	}
	if p.MaxCount > 0 && accumulated+1 >= p.MaxCount {
		return StopMaxCount
	}
	return Continue
}
