package models

// Discovery groups the relationship-derived user buckets shown on the friends page.
type Discovery struct {
	Requested        []UserSummary `json:"requested"`
	Pending          []UserSummary `json:"pending"`
	NotFollowingBack []UserSummary `json:"notFollowingBack"`
	Suggestions      []UserSummary `json:"suggestions"`
}
