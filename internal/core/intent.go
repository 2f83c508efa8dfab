package core

// Intent is a parsed command, produced per incoming message and
// consumed immediately by the dispatcher.
type Intent interface {
	intent()
}

// AddTransaction records a purchase dated today.
type AddTransaction struct {
	Category Category
	Cost     Money
	Name     string
	Quantity int64
}

// BackdatedAdd records a purchase on an explicit past date.
type BackdatedAdd struct {
	Date     Date
	Category Category
	Cost     Money
	Name     string
	Quantity int64
}

// UpdateField changes one column of an existing record. RawValue is
// coerced by CoerceField before any write is issued.
type UpdateField struct {
	ID       int64
	Field    string
	RawValue string
}

// DeleteByID removes an existing record.
type DeleteByID struct {
	ID int64
}

// TimeWindowQuery lists transactions in a fixed window.
type TimeWindowQuery struct {
	Window WindowKind
}

// SummaryQuery aggregates a month. Period is empty for the current
// month to date, otherwise an MMYY token.
type SummaryQuery struct {
	Period string
}

// RawSelect runs a validated SELECT statement against the store.
type RawSelect struct {
	Query string
}

func (AddTransaction) intent()  {}
func (BackdatedAdd) intent()    {}
func (UpdateField) intent()     {}
func (DeleteByID) intent()      {}
func (TimeWindowQuery) intent() {}
func (SummaryQuery) intent()    {}
func (RawSelect) intent()       {}
