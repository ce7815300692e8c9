package domain

import "strings"

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

// ParseRole accepts exactly "buyer" or "seller".
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleBuyer, RoleSeller:
		return Role(s), true
	}
	return "", false
}

// LandingPath is where a freshly signed-in user of this role goes.
func (r Role) LandingPath() string {
	if r == RoleSeller {
		return "/seller/"
	}
	return "/buyer/"
}

type User struct {
	ID               int64  `db:"id"`
	Email            string `db:"email"`
	Hash             string `db:"password_hash"`
	Role             Role   `db:"role"`
	FullName         string `db:"full_name"`
	MobileNo         string `db:"mobile_no"`
	Photo            string `db:"photo"`
	Answer1Hash      string `db:"security_answer_1"`
	Answer2Hash      string `db:"security_answer_2"`
	SocialLink       string `db:"social_link"`
	ProfileCompleted bool   `db:"profile_completed"`
	IsStaff          bool   `db:"is_staff"`
	CreatedAt        string `db:"created_at"`
	UpdatedAt        string `db:"updated_at"`
}

func (u *User) IsSeller() bool { return u != nil && u.Role == RoleSeller }

// HasAnswers reports whether both security answers are on file.
func (u *User) HasAnswers() bool {
	return strings.TrimSpace(u.Answer1Hash) != "" && strings.TrimSpace(u.Answer2Hash) != ""
}

// Actor is the identity behind a single request. The zero value is an
// anonymous visitor.
type Actor struct {
	SID  string
	User *User
}

func (a Actor) Authenticated() bool { return a.User != nil }

func (a Actor) UserID() int64 {
	if a.User == nil {
		return 0
	}
	return a.User.ID
}

func (a Actor) IsSeller() bool { return a.User.IsSeller() }

func (a Actor) IsStaff() bool { return a.User != nil && a.User.IsStaff }
