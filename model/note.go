package model

import "time"

// DeltaOp is one rich-text insert operation. A note's content is an ordered
// sequence of these.
type DeltaOp struct {
	Insert     string                 `bson:"insert" json:"insert"`
	Attributes map[string]interface{} `bson:"attributes,omitempty" json:"attributes,omitempty"`
}

type Note struct {
	ID           string    `bson:"_id" json:"id"`
	UserID       string    `bson:"user_id" json:"user_id"`
	Title        string    `bson:"title" json:"title"`
	Content      []DeltaOp `bson:"content" json:"content"`
	IsStarred    bool      `bson:"is_starred" json:"is_starred"`
	Color        string    `bson:"color" json:"color"`
	ThumbnailURL string    `bson:"thumbnail_url" json:"thumbnail_url"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}
