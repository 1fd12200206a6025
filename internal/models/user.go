package models

import "strings"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleTeacher UserRole = "teacher"
	RoleStudent UserRole = "student"
)

// ParseRole normalises legacy casing ("Teacher", "STUDENT") to a known role.
func ParseRole(raw string) (UserRole, bool) {
	role := UserRole(strings.ToLower(strings.TrimSpace(raw)))
	switch role {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return role, true
	}
	return "", false
}

// Equal compares roles case-insensitively.
func (r UserRole) Equal(other UserRole) bool {
	return strings.EqualFold(strings.TrimSpace(string(r)), strings.TrimSpace(string(other)))
}

// User is a platform account. Username is the unique key.
type User struct {
	Username      string   `json:"username"`
	DisplayName   string   `json:"displayName"`
	Email         string   `json:"email"`
	Role          UserRole `json:"role"`
	ActiveCourses []string `json:"activeCourses"`
	// Password holds a bcrypt hash. Records written before hashing may still
	// carry plaintext until the next successful login.
	Password string `json:"password"`
	// Extra carries stored members this type does not declare.
	Extra Extras `json:"-"`
}

func (u User) EntityID() string { return u.Username }

// InCourse reports whether course is one of the user's active courses.
func (u User) InCourse(course string) bool {
	for _, c := range u.ActiveCourses {
		if c == course {
			return true
		}
	}
	return false
}

type userRecord User

// UnmarshalJSON decodes a stored user. Undeclared members are kept in
// Extra.
func (u *User) UnmarshalJSON(data []byte) error {
	extras, err := decodeRecord(data, (*userRecord)(u), nil)
	if err != nil {
		return err
	}
	u.Extra = extras
	return nil
}

// MarshalJSON writes the declared fields followed by Extra.
func (u User) MarshalJSON() ([]byte, error) {
	return encodeRecord(userRecord(u), u.Extra)
}
