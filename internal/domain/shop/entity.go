package shop

import "time"

// Shop is a read-heavy, write-rare entity served through the cache-aside
// reader. Exported fields: the value is serialized into cache entries.
type Shop struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	AvgPrice  int64     `json:"avgPrice"`
	Score     int32     `json:"score"`
	UpdatedAt time.Time `json:"updatedAt"`
}
