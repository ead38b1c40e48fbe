package tables

import "github.com/JonMunkholm/tableview/internal/core"

func init() {
	registerUsers()
}

// UserStatuses are the values accepted by the users.status filter.
var UserStatuses = []string{"active", "invited", "suspended"}

func registerUsers() {
	core.Register(core.TableDefinition{
		Info: core.TableInfo{
			Key:   "users",
			Group: "Accounts",
			Label: "Users",
		},
		FieldSpecs: []core.FieldSpec{
			{Name: "id", Type: core.FieldInt},
			{Name: "name", Type: core.FieldText},
			{Name: "email", Type: core.FieldText},
			{Name: "status", Type: core.FieldEnum, EnumValues: UserStatuses},
			{Name: "admin", DBColumn: "is_admin", Type: core.FieldBool},
			{Name: "joined", DBColumn: "joined_on", Type: core.FieldDate},
		},
	})
}
