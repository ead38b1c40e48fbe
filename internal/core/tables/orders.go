package tables

import "github.com/JonMunkholm/tableview/internal/core"

func init() {
	registerOrders()
}

// OrderStatuses are the values accepted by the orders.status filter.
var OrderStatuses = []string{"pending", "paid", "shipped", "refunded"}

func registerOrders() {
	core.Register(core.TableDefinition{
		Info: core.TableInfo{
			Key:   "orders",
			Group: "Sales",
			Label: "Orders",
		},
		FieldSpecs: []core.FieldSpec{
			{Name: "id", Type: core.FieldInt},
			{Name: "user_id", Type: core.FieldInt},
			{Name: "customer", Type: core.FieldText},
			{Name: "status", Type: core.FieldEnum, EnumValues: OrderStatuses},
			{Name: "amount", Type: core.FieldNumeric},
			{Name: "ordered", DBColumn: "ordered_on", Type: core.FieldDate},
		},
	})
}
