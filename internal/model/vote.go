package model

import "time"

// Vote represents an individual vote record. At most one exists per
// (UserID, ProductID).
type Vote struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ProductID string    `json:"productId"`
	CreatedAt time.Time `json:"createdAt"`
}

// VoteResponse is the API response after casting or retracting a vote.
type VoteResponse struct {
	Success    bool  `json:"success"`
	Vote       *Vote `json:"vote,omitempty"`
	TotalVotes int   `json:"totalVotes"`
}

// UserVote is a vote joined to a summary of the voted product.
type UserVote struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	ProductID string         `json:"productId"`
	Product   ProductSummary `json:"product"`
}

// ProductSummary is the subset of product fields shown in vote listings.
type ProductSummary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	TotalVotes  int      `json:"totalVotes"`
	Categories  []string `json:"category"`
}
