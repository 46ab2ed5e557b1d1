package employee

import "time"

// NewFromCreateRequest builds the record to persist. The store assigns
// the id; full name and age are computed here so callers get the same
// derivation the list query uses.
func NewFromCreateRequest(req CreateEmployeeRequest) Employee {
	status := NormalizeStatus(req.Status)

	if status == "" {
		status = StatusActive
	}

	return Employee{
		LastName:    req.LastName,
		FirstName:   req.FirstName,
		MiddleName:  req.MiddleName,
		Suffix:      req.Suffix,
		Designation: req.Designation,
		Office:      req.Office,
		Sex:         req.Sex,
		DateOfBirth: req.DateOfBirth,
		FullName:    FullName(req.FirstName, req.MiddleName, req.LastName, req.Suffix),
		Age:         AgeAt(req.DateOfBirth.Time, time.Now().UTC()),
		Status:      status,
	}
}
