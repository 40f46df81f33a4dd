package models

import "time"

// previewRunes is the length of the short text preview used as a post's
// string representation.
const previewRunes = 15

// Post is an authored entry. CreatedAt is server-assigned on insert and never
// updated afterwards. Default listing order is newest first.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	AuthorID  uint      `gorm:"not null;index" json:"author_id"`
	Author    User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	GroupID   *uint     `gorm:"index" json:"group_id,omitempty"`
	Group     *Group    `gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL" json:"group,omitempty"`
	Image     string    `gorm:"size:255" json:"image,omitempty"`
	CreatedAt time.Time `gorm:"index;<-:create" json:"created_at"`
}

// Preview returns a short prefix of the post text, used wherever a post has
// to be named in one line (logs, admin listings).
func (p Post) Preview() string {
	runes := []rune(p.Text)
	if len(runes) <= previewRunes {
		return p.Text
	}
	return string(runes[:previewRunes])
}

func (p Post) String() string {
	return p.Preview()
}
