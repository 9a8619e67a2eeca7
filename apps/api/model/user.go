package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleSeller   = "SELLER"
	RoleConsumer = "CONSUMER"
	RoleAdmin    = "ADMIN"
)

type User struct {
	ID             int64  `gorm:"primaryKey" json:"id"`
	Username       string `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	Email          string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password       string `gorm:"type:varchar(255);not null" json:"-"`
	Role           string `gorm:"type:varchar(20);not null;default:'CONSUMER'" json:"role"`
	FirstName      string `gorm:"type:varchar(100)" json:"first_name"`
	LastName       string `gorm:"type:varchar(100)" json:"last_name"`
	StoreName      string `gorm:"type:varchar(255)" json:"store_name,omitempty"`
	Phone          string `gorm:"type:varchar(20)" json:"phone,omitempty"`
	Address        string `gorm:"type:text" json:"address,omitempty"`
	ProfilePicture string `gorm:"type:varchar(255)" json:"profile_picture,omitempty"`
	EmailVerified  bool   `gorm:"default:false" json:"email_verified"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsSeller() bool {
	return u.Role == RoleSeller
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
