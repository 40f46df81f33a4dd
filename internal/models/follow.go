package models

import "time"

// Follow is a directed relation from a follower to a followed author. The
// (follower, author) pair is unique; duplicate inserts are rejected at the
// store level, not by an application-side existence check, so two concurrent
// follow attempts cannot both land. Deleting either user removes the row.
type Follow struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FollowerID uint      `gorm:"not null;uniqueIndex:idx_follows_pair" json:"follower_id"`
	Follower   User      `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE" json:"-"`
	AuthorID   uint      `gorm:"not null;uniqueIndex:idx_follows_pair" json:"author_id"`
	Author     User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (Follow) TableName() string {
	return "follows"
}
