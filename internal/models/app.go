// internal/models/app.go
package models

// AppInfo identifies a catalog entry.
type AppInfo struct {
	AppID string `json:"appId"`
	Title string `json:"title"`
}

// Candidate is a search hit considered by the resolver.
type Candidate struct {
	AppInfo
	Installs int64   `json:"installs"`
	Score    float64 `json:"score"`
}

// SearchResult is the raw shape returned by the catalog search collaborator.
// Installs is a human-readable magnitude such as "1,000,000+".
type SearchResult struct {
	AppID    string  `json:"appId"`
	Title    string  `json:"title"`
	Installs string  `json:"installs"`
	Score    float64 `json:"score"`
}
