package models

// Category is a row of the categories table.
type Category struct {
	CategoryID string `db:"category_id"`
	OwnerID    string `db:"owner_id"`
	Name       string `db:"name"`
	AuditFields
}
