package models

import "time"

// Wire format of the workspace blob. Key names are part of the stored
// data contract and must not change.

type Access struct {
	SystemName string    `json:"systemName"`
	Profile    string    `json:"profile"`
	ImportedAt time.Time `json:"importedAt"`
}

type User struct {
	Email    string   `json:"email"`
	Name     string   `json:"name"`
	Company  string   `json:"company,omitempty"`
	Accesses []Access `json:"accesses"`
}

type System struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	UserCount  int       `json:"userCount"`
	LastImport time.Time `json:"lastImport"`
}

type Workspace struct {
	Users   []User   `json:"users"`
	Systems []System `json:"systems"`
}
