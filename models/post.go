package models

import (
	"time"

	"github.com/lib/pq"
)

const MaxDescriptionLength = 500

// Post est un élément du feed (collection "posts").
// LikesCount vaut toujours len(Likes); UserID ne change jamais après la création.
type Post struct {
	ID          string         `json:"id" gorm:"primaryKey" bson:"_id"`
	UserID      string         `json:"userId" gorm:"column:user_id;not null;index" bson:"userId"`
	UserName    string         `json:"userName" gorm:"column:user_name" bson:"userName"`
	UserEmail   string         `json:"userEmail,omitempty" gorm:"column:user_email" bson:"userEmail,omitempty"`
	Description string         `json:"description" gorm:"type:text;not null" bson:"description"`
	Location    string         `json:"location,omitempty" bson:"location,omitempty"`
	ImageURL    string         `json:"imageUrl,omitempty" gorm:"column:image_url" bson:"imageUrl,omitempty"`
	ImageData   string         `json:"imageData,omitempty" gorm:"column:image_data;type:text" bson:"imageData,omitempty"`
	Likes       pq.StringArray `json:"likes" gorm:"type:text[];not null" bson:"likes"`
	LikesCount  int            `json:"likesCount" gorm:"column:likes_count;not null" bson:"likesCount"`
	Version     int64          `json:"version" gorm:"not null" bson:"version"`
	CreatedAt   time.Time      `json:"createdAt" gorm:"autoCreateTime:false;index:idx_posts_feed,priority:1,sort:desc" bson:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt" gorm:"autoUpdateTime:false" bson:"updatedAt"`
}

// PostCreate est le corps JSON accepté par POST /posts.
// L'image est soit une URL, soit une image encodée en ligne (base64).
type PostCreate struct {
	Description string `json:"description"`
	Location    string `json:"location"`
	ImageURL    string `json:"imageUrl"`
	ImageData   string `json:"imageData"`
}

func (Post) TableName() string {
	return "posts"
}

func (p *Post) LikedBy(userID string) bool {
	return contains(p.Likes, userID)
}

func (p *Post) Clone() *Post {
	c := *p
	c.Likes = cloneSet(p.Likes)
	return &c
}
