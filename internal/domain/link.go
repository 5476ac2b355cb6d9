package domain

import (
	"crypto/sha256"
	"fmt"
)

// Link is the undirected edge between a business and a department.
// It is stored once; both endpoints read it.
type Link struct {
	ID           string `json:"id" yaml:"id"`
	BusinessID   string `json:"business_id" yaml:"business_id"`
	DepartmentID string `json:"department_id" yaml:"department_id"`
}

// NewLink creates a link with a generated ID
func NewLink(businessID, departmentID string) Link {
	link := Link{BusinessID: businessID, DepartmentID: departmentID}
	link.ID = link.GenerateID()
	return link
}

// GenerateID creates a deterministic ID for the link based on its endpoints
func (l Link) GenerateID() string {
	key := fmt.Sprintf("%s-%s", l.BusinessID, l.DepartmentID)
	hash := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", hash[:8])
}

// Other returns the endpoint opposite id, or "" if id is not an endpoint
func (l Link) Other(id string) string {
	switch id {
	case l.BusinessID:
		return l.DepartmentID
	case l.DepartmentID:
		return l.BusinessID
	}
	return ""
}
