package models

import (
	"bytes"
	"database/sql/driver"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// documentColumnTypes maps dialect names to the column type of a stored
// configurator document. MSSQL has no json type.
var documentColumnTypes = map[string]string{
	"mysql":     "JSON",
	"postgres":  "JSONB",
	"sqlite":    "JSON",
	"sqlserver": "NVARCHAR(MAX)",
	"mssql":     "NVARCHAR(MAX)",
}

// DocumentJSON is a configurator document as stored in a row
type DocumentJSON struct {
	datatypes.JSON
}

// NewDocumentJSON wraps an encoded document
func NewDocumentJSON(payload []byte) DocumentJSON {
	return DocumentJSON{JSON: datatypes.JSON(payload)}
}

// Bytes is the encoded document
func (d DocumentJSON) Bytes() []byte {
	return []byte(d.JSON)
}

// Same reports whether payload is byte-identical to the stored document
func (d DocumentJSON) Same(payload []byte) bool {
	return bytes.Equal(d.JSON, payload)
}

// Value promotes the embedded JSON's Value method
func (d DocumentJSON) Value() (driver.Value, error) {
	return d.JSON.Value()
}

// Scan promotes the embedded JSON's Scan method
func (d *DocumentJSON) Scan(value interface{}) error {
	return d.JSON.Scan(value)
}

// GormDBDataType picks the document column type for the connected dialect
func (DocumentJSON) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if t, ok := documentColumnTypes[db.Dialector.Name()]; ok {
		return t
	}
	return "TEXT"
}
