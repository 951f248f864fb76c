package models

// Record is the gorm model backing the postgres record store. Optional
// fields are nullable columns; the column set mirrors the wire contract.
type Record struct {
	ID          string  `gorm:"primaryKey;type:text"`
	Date        string  `gorm:"type:text;not null;index"`
	Name        string  `gorm:"type:text;not null"`
	ImageBase64 *string `gorm:"type:text"`
	Price       *string `gorm:"type:text"`
	SugarIce    *string `gorm:"type:text"`
	Rating      *int    `gorm:"type:integer"`
	Shop        *string `gorm:"type:text"`
	MoodNote    *string `gorm:"type:text"`
	IconID      string  `gorm:"type:text;not null"`
	CreatedAt   string  `gorm:"type:text;not null;index"`
	Brand       *string `gorm:"type:text"`
	Ingredients *string `gorm:"type:text"`
	Calories    *int    `gorm:"type:integer"`
}
