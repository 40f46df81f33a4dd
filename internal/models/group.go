package models

import "time"

// Group is a topic namespace posts can be filed under. Groups are created by
// admin action and are referenced, never owned, by posts: deleting a group
// nulls the group reference on its posts instead of deleting them (SET NULL
// rule declared on Post.Group).
type Group struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:200;index;not null" json:"title"`
	Slug        string    `gorm:"size:250;uniqueIndex;not null" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Group) TableName() string {
	return "groups"
}

func (g Group) String() string {
	return g.Title
}
