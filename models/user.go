package models

import (
	"time"

	"github.com/lib/pq"
)

// User est le profil public d'un utilisateur (collection "users").
// Followers et Following sont maintenus symétriquement: B ∈ A.Following ⇔ A ∈ B.Followers.
type User struct {
	ID           string         `json:"id" gorm:"primaryKey" bson:"_id"`
	Name         string         `json:"name" gorm:"not null" bson:"name"`
	Email        string         `json:"email" bson:"email"`
	Phone        string         `json:"phone,omitempty" bson:"phone,omitempty"`
	Bio          string         `json:"bio" bson:"bio"`
	ProfileImage string         `json:"profileImage,omitempty" gorm:"column:profile_image" bson:"profileImage,omitempty"`
	Followers    pq.StringArray `json:"followers" gorm:"type:text[];not null" bson:"followers"`
	Following    pq.StringArray `json:"following" gorm:"type:text[];not null" bson:"following"`
	PostsCount   int            `json:"postsCount" gorm:"column:posts_count;not null" bson:"postsCount"`
	Version      int64          `json:"version" gorm:"not null" bson:"version"`
	CreatedAt    time.Time      `json:"createdAt" gorm:"autoCreateTime:false" bson:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt" gorm:"autoUpdateTime:false" bson:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

// UserSummary est la vue réduite utilisée dans les listes followers/following
type UserSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ProfileImage string `json:"profileImage,omitempty"`
}

type UserCreate struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// UserUpdate ne contient que des pointeurs: un champ absent n'est pas modifié
type UserUpdate struct {
	Name         *string `json:"name"`
	Phone        *string `json:"phone"`
	Bio          *string `json:"bio"`
	ProfileImage *string `json:"profileImage"`
}

func (u *User) IsFollowing(userID string) bool {
	return contains(u.Following, userID)
}

func (u *User) IsFollowedBy(userID string) bool {
	return contains(u.Followers, userID)
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, ProfileImage: u.ProfileImage}
}

func (u *User) Clone() *User {
	c := *u
	c.Followers = cloneSet(u.Followers)
	c.Following = cloneSet(u.Following)
	return &c
}
