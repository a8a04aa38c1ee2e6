package users

import "time"

// User mirrors the users table the load harness provisions. Passwords
// are compared in plain text by contract with the harness; the hash
// column exists but is not consulted.
type User struct {
	UserID        int64      `json:"user_id" gorm:"primaryKey;column:user_id"`
	Email         string     `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash  string     `json:"-" gorm:"column:password_hash"`
	PasswordPlain *string    `json:"-" gorm:"column:password_plain"`
	FirstName     string     `json:"first_name"`
	Surname       string     `json:"surname"`
	Birthday      *time.Time `json:"birthday,omitempty"`
	RegisteredAt  time.Time  `json:"registered_at" gorm:"autoCreateTime"`
	IsActive      bool       `json:"is_active" gorm:"default:true"`
	LastLoggedIn  time.Time  `json:"last_logged_in"`
}

func (User) TableName() string {
	return "users"
}

// VerifyPassword compares the supplied password with the plain-text
// column. Returns false when the column is unset.
func (u *User) VerifyPassword(password string) bool {
	if u.PasswordPlain == nil {
		return false
	}
	return *u.PasswordPlain == password
}
