package model

// Technician is one member of the service roster.
type Technician struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}
