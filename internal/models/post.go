package models

import "time"

// ShortTextLen is the number of runes shown by Post and Comment String().
const ShortTextLen = 15

// Group is a named category that posts may belong to.
type Group struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:200;not null" json:"title"`
	Slug        string `gorm:"size:50;uniqueIndex;not null" json:"slug"`
	Description string `gorm:"type:text" json:"description"`
}

// TableName specifies the table name for GORM.
func (Group) TableName() string {
	return "groups"
}

func (g Group) String() string {
	return g.Title
}

// Post is a publication. Deleting its group nulls GroupID and keeps the post.
type Post struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	Text     string    `gorm:"type:text;not null" json:"text"`
	PubDate  time.Time `gorm:"autoCreateTime;index;not null" json:"pub_date"`
	Image    string    `gorm:"size:255" json:"image,omitempty"`
	AuthorID uint      `gorm:"not null;index" json:"author_id"`
	Author   User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	GroupID  *uint     `gorm:"index" json:"group_id,omitempty"`
	Group    *Group    `gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL" json:"group,omitempty"`
	// CommentsCount is not persisted; filled by listing queries
	CommentsCount int `gorm:"->;-:migration" json:"comments_count"`
}

// TableName specifies the table name for GORM.
func (Post) TableName() string {
	return "posts"
}

func (p Post) String() string {
	return truncateRunes(p.Text, ShortTextLen)
}

// Comment is a remark left on a post by an author.
type Comment struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	Text     string    `gorm:"type:text;not null" json:"text"`
	Created  time.Time `gorm:"autoCreateTime;index;not null" json:"created"`
	PostID   uint      `gorm:"not null;index" json:"post_id"`
	Post     *Post     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"post,omitempty"`
	AuthorID uint      `gorm:"not null;index" json:"author_id"`
	Author   User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
}

// TableName specifies the table name for GORM.
func (Comment) TableName() string {
	return "comments"
}

func (c Comment) String() string {
	return truncateRunes(c.Text, ShortTextLen)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
