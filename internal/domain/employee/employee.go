package employee

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound        = errors.New("employee not found")
	ErrAlreadyResigned = errors.New("employee is already resigned")
	ErrInvalidStatus   = errors.New("invalid status value")
)

// Canonical lifecycle states. Stored and compared in lowercase; legacy
// rows with mixed-case values are normalized on the way in.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

func IsValidStatus(s string) bool {
	return s == StatusActive || s == StatusInactive
}

func NormalizeStatus(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// DateOnly is a calendar date on the wire ("2006-01-02") and a DATE
// column in the store.
type DateOnly struct {
	time.Time
}

const dateLayout = "2006-01-02"

func NewDateOnly(t time.Time) DateOnly {
	return DateOnly{Time: t.Truncate(24 * time.Hour)}
}

func ParseDateOnly(s string) (DateOnly, error) {
	t, err := time.Parse(dateLayout, s)

	if err != nil {
		return DateOnly{}, err
	}

	return DateOnly{Time: t}, nil
}

func (d DateOnly) String() string {
	return d.Format(dateLayout)
}

func (d DateOnly) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`null`), nil
	}

	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *DateOnly) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)

	if s == "" || s == "null" {
		*d = DateOnly{}
		return nil
	}

	parsed, err := ParseDateOnly(s)

	if err != nil {
		return err
	}

	*d = parsed
	return nil
}

func (d *DateOnly) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = DateOnly{}
		return nil
	case time.Time:
		*d = DateOnly{Time: v}
		return nil
	case string:
		parsed, err := ParseDateOnly(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	default:
		return fmt.Errorf("cannot scan %T into DateOnly", src)
	}
}

func (d DateOnly) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}

	return d.Time, nil
}

type Employee struct {
	ID              int64     `json:"id"`
	LastName        string    `json:"last_name"`
	FirstName       string    `json:"first_name"`
	MiddleName      string    `json:"middle_name,omitempty"`
	Suffix          string    `json:"suffix,omitempty"`
	Designation     string    `json:"designation,omitempty"`
	Office          string    `json:"office,omitempty"`
	Sex             string    `json:"sex"`
	DateOfBirth     DateOnly  `json:"date_of_birth"`
	FullName        string    `json:"full_name"`
	Age             int       `json:"age"`
	Status          string    `json:"status"`
	ResignationDate *DateOnly `json:"resignation_date"`
}

type CreateEmployeeRequest struct {
	LastName    string   `json:"last_name" binding:"required"`
	FirstName   string   `json:"first_name" binding:"required"`
	MiddleName  string   `json:"middle_name" binding:"omitempty,max=80"`
	Suffix      string   `json:"suffix" binding:"omitempty,max=20"`
	Designation string   `json:"designation" binding:"omitempty,max=120"`
	Office      string   `json:"office" binding:"omitempty,max=120"`
	Sex         string   `json:"sex" binding:"required"`
	DateOfBirth DateOnly `json:"date_of_birth" binding:"required"`
	Status      string   `json:"status" binding:"omitempty,oneof=active inactive"`
}

// filter for GET /api/employees; nil means no status restriction.
type ListEmployeesFilter struct {
	Status *string
}

// FullName joins the name parts with single spaces, dropping empty
// parts: "Juan" + "Dela" + "Cruz" -> "Juan Dela Cruz".
func FullName(first, middle, last, suffix string) string {
	parts := make([]string, 0, 4)

	for _, p := range []string{first, middle, last, suffix} {
		p = strings.TrimSpace(p)

		if p != "" {
			parts = append(parts, p)
		}
	}

	return strings.Join(parts, " ")
}

// AgeAt is the number of full years between the date of birth and now.
func AgeAt(dob time.Time, now time.Time) int {
	years := now.Year() - dob.Year()

	// birthday not reached yet this year
	if now.Month() < dob.Month() ||
		(now.Month() == dob.Month() && now.Day() < dob.Day()) {
		years--
	}

	if years < 0 {
		return 0
	}

	return years
}
