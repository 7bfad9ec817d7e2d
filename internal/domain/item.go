package domain

type Item struct {
	ID   uint   `json:"id"`
	Type string `json:"type"`
	Cost int    `json:"cost"`
}
