package model

// CandidateKind tags the origin of a search candidate.
type CandidateKind string

const (
	// CandidateName marks a candidate derived from an organization name.
	CandidateName CandidateKind = "name"
	// CandidateWebsite marks a candidate derived from a website or domain.
	CandidateWebsite CandidateKind = "website"
)

// SearchCandidate is a single string that will be used to build a search
// query term. Candidates are created per query-build pass and consumed once.
type SearchCandidate struct {
	Value string        `json:"value"`
	Kind  CandidateKind `json:"kind"`
}
