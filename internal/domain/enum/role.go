package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Role is the access level of a system user.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func (r Role) String() string {
	return string(r)
}

func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// ParseRole accepts the stored spellings, including the legacy "administrador".
func ParseRole(s string) (Role, error) {
	switch s {
	case "admin", "administrador":
		return RoleAdmin, nil
	case "user", "usuario":
		return RoleUser, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(r))
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseRole(str)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

func (r Role) Value() (driver.Value, error) {
	return string(r), nil
}

func (r *Role) Scan(value interface{}) error {
	if value == nil {
		*r = RoleUser
		return nil
	}
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cannot scan %T into Role", value)
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
