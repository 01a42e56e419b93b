// Package model defines the records stored by the notes portal.
package model

import "github.com/jacentio/dojo/store"

// Table names and key attributes. These are fixed for the life of a deployment.
const (
	UsersTable    = "users"
	StudentsTable = "students"
	ImportedTable = "imported"
	SessionsTable = "sessions"

	UserKeyAttribute     = "primary_key"
	StudentKeyAttribute  = "id"
	ImportedKeyAttribute = "name"
	SessionKeyAttribute  = "token"
)

var (
	_ store.Record = User{}
	_ store.Record = Session{}
	_ store.Record = Student{}
	_ store.Record = StudentImportedInfo{}
)
