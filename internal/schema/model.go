package schema

import (
	"regexp"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// BaseAttributes are the four fixed student attributes. They are permanently
// excluded from the registry and can never be added or removed through it.
var BaseAttributes = []string{"studentId", "name", "class", "section"}

// baseAttributeColumns maps the fixed attribute names to their database
// columns. Dynamic attributes use their registered name as the column name.
var baseAttributeColumns = map[string]string{
	"studentId": "student_id",
	"name":      "name",
	"class":     "class",
	"section":   "section",
}

func IsBaseAttribute(name string) bool {
	for _, base := range BaseAttributes {
		if strings.EqualFold(name, base) {
			return true
		}
	}
	// The underlying column spelling counts as the same attribute.
	return strings.EqualFold(name, "student_id")
}

// BaseColumn returns the database column for a fixed attribute.
func BaseColumn(attr string) (string, bool) {
	col, ok := baseAttributeColumns[attr]
	return col, ok
}

// Postgres identifiers are limited to 63 bytes.
var columnNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

func ValidColumnName(name string) bool {
	return columnNameRe.MatchString(name)
}

type ColumnDefinition struct {
	bun.BaseModel `bun:"table:column_registry,alias:cr"`

	ID         int       `bun:"id,pk,autoincrement" json:"id"`
	ColumnName string    `bun:"column_name,unique,notnull" json:"columnName"`
	DataType   string    `bun:"data_type,notnull,default:'TEXT'" json:"dataType"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
}

type AddColumnRequest struct {
	ColumnName string `json:"columnName" validate:"required"`
}
