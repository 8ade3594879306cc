package domain

type ElectionStatus string

const (
	StatusCreated   ElectionStatus = "CREATED"
	StatusOngoing   ElectionStatus = "ONGOING"
	StatusCompleted ElectionStatus = "COMPLETED"
	StatusCancelled ElectionStatus = "CANCELLED"
)

const (
	DocTypeElection = "election"
	DocTypeVote     = "vote"
)

func ParseElectionStatus(s string) (ElectionStatus, error) {
	switch st := ElectionStatus(s); st {
	case StatusCreated, StatusOngoing, StatusCompleted, StatusCancelled:
		return st, nil
	}
	return "", NewError(KindInvalidInput, "invalid election status %q", s)
}

// AcceptsVotes reports whether ballots may be cast while in this status.
func (s ElectionStatus) AcceptsVotes() bool {
	return s == StatusCreated || s == StatusOngoing
}

// Election is persisted as canonical JSON; times are epoch milliseconds.
type Election struct {
	ElectionID string         `json:"electionId"`
	StartTime  int64          `json:"startTime"`
	EndTime    int64          `json:"endTime"`
	Candidates []string       `json:"candidates"`
	Status     ElectionStatus `json:"status"`
	DocType    string         `json:"docType"`
}

func (e *Election) HasCandidate(candidateID string) bool {
	for _, c := range e.Candidates {
		if c == candidateID {
			return true
		}
	}
	return false
}

// InWindow reports whether ts lies in [StartTime, EndTime].
func (e *Election) InWindow(ts int64) bool {
	return ts >= e.StartTime && ts <= e.EndTime
}
