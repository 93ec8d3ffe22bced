package models

import "time"

// Follow is a directed edge: UserID follows AuthorID. The pair is unique.
// Self-follow is rejected by the follow service, not the schema.
type Follow struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_follow_user_author;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
	AuthorID  uint      `gorm:"not null;uniqueIndex:idx_follow_user_author;index" json:"author_id"`
	Author    User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Follow) TableName() string {
	return "follows"
}
