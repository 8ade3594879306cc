package domain

type CandidateResult struct {
	CandidateID string `json:"candidateId"`
	VoteCount   int64  `json:"voteCount"`
}

// ElectionAudit compares the tally counters of an election against the vote
// records actually stored for it.
type ElectionAudit struct {
	ElectionID string           `json:"electionId"`
	Votes      int64            `json:"votes"`
	TallyTotal int64            `json:"tallyTotal"`
	Counts     map[string]int64 `json:"counts"`
	Consistent bool             `json:"consistent"`
}
