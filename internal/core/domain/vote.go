package domain

type VoteRecord struct {
	ElectionID  string `json:"electionId"`
	VoterID     string `json:"voterId"`
	CandidateID string `json:"candidateId"`
	Timestamp   int64  `json:"timestamp"`
	DocType     string `json:"docType"`
}
