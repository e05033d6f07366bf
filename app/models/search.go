package models

// SearchHit is one ranked match returned by a search backend.
type SearchHit struct {
	PostID int
	Rank   float64
}
