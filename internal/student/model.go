package student

// Record is a student row keyed by attribute name: the four fixed
// attributes plus whatever dynamic columns are registered. Dynamic values
// are nullable.
type Record map[string]interface{}

// UpsertResult reports whether an upsert inserted a new record or updated
// an existing one.
type UpsertResult string

const (
	ResultCreated UpsertResult = "created"
	ResultUpdated UpsertResult = "updated"
)
