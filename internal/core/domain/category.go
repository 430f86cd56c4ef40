package domain

// Category is an owner-scoped label attached to transactions ("Groceries", "Salary").
type Category struct {
	CategoryID string `json:"categoryID"` // Primary Key (UUID)
	OwnerID    string `json:"ownerID"`    // FK -> user identity (Not Null)
	Name       string `json:"name"`
	AuditFields
}

// IsOwnedBy reports whether the category belongs to ownerID.
func (c Category) IsOwnedBy(ownerID string) bool {
	return c.OwnerID == ownerID
}
