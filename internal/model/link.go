package model

// Link is a shortened URL owned by a user.
type Link struct {
	ShortCode string `json:"short_code"`
	LongURL   string `json:"long_url"`
	OwnerID   string `json:"owner_id"`
}

// LinkView is the external representation returned in API responses.
type LinkView struct {
	ShortCode string `json:"short_code"`
	ShortURL  string `json:"short_url"`
	LongURL   string `json:"long_url"`
	OwnerID   string `json:"owner_id"`
}
