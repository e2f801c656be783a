package shared

// Subject codes recognised by the capability engine. `all` is handled by the
// engine itself; these are the concrete form/entity codes grants and
// overrides refer to.
const (
	SubjectAuth       = "Auth"
	SubjectSales      = "Sales"
	SubjectInventory  = "Inventory"
	SubjectInvoices   = "Invoices"
	SubjectAccounting = "Accounting"
	SubjectReports    = "Reports"
	SubjectUsers      = "Users"
	SubjectRoles      = "Roles"
)

// FormSubjects lists the subjects a per-user privilege override may target.
func FormSubjects() []string {
	return []string{
		SubjectSales,
		SubjectInventory,
		SubjectInvoices,
		SubjectAccounting,
		SubjectReports,
		SubjectUsers,
		SubjectRoles,
	}
}
