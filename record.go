package milkyway

import (
	"fmt"
	"time"
)

// IconID selects the calendar marker drawn for a record.
type IconID string

const (
	IconPearl  IconID = "pearl"
	IconFruit  IconID = "fruit"
	IconCoffee IconID = "coffee"
	IconMilk   IconID = "milk"
	IconMatcha IconID = "matcha"
)

// DefaultIconID is substituted for unknown or missing icon ids.
const DefaultIconID = IconPearl

// CreatedAtLayout is the fixed-width timestamp form for createdAt: nine
// fraction digits, UTC. Every ordering of records compares createdAt as a
// string, which only matches timestamp order when the width never varies.
const CreatedAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

func (id IconID) Valid() bool {
	switch id {
	case IconPearl, IconFruit, IconCoffee, IconMilk, IconMatcha:
		return true
	}
	return false
}

// NormalizeIconID maps anything outside the enumeration to DefaultIconID.
func NormalizeIconID(id IconID) IconID {
	if id.Valid() {
		return id
	}
	return DefaultIconID
}

// Record is one logged beverage-consumption event.
//
// Optional fields are pointers and marshal as null when absent; the wire
// representation matches the persisted one field-for-field.
type Record struct {
	ID          string  `json:"id"`
	Date        string  `json:"date"` // YYYY-MM-DD
	Name        string  `json:"name"`
	ImageBase64 *string `json:"imageBase64"`
	Price       *string `json:"price"`
	SugarIce    *string `json:"sugarIce"`
	Rating      *int    `json:"rating"` // 1-5
	Shop        *string `json:"shop"`
	MoodNote    *string `json:"moodNote"`
	IconID      IconID  `json:"iconId"`
	CreatedAt   string  `json:"createdAt"` // RFC3339, ordering key
	Brand       *string `json:"brand"`
	Ingredients *string `json:"ingredients"`
	Calories    *int    `json:"calories"` // kcal
}

// NewRecord builds a record for the given calendar date with a fresh id
// and creation timestamp.
func NewRecord(date, name string, icon IconID) Record {
	return Record{
		ID:        newRecordID(),
		Date:      date,
		Name:      name,
		IconID:    NormalizeIconID(icon),
		CreatedAt: time.Now().UTC().Format(CreatedAtLayout),
	}
}

// Validate checks the fields required for persistence.
func (r Record) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("id is required")
	}
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	if _, err := time.Parse("2006-01-02", r.Date); err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD: %q", r.Date)
	}
	if r.CreatedAt == "" {
		return fmt.Errorf("createdAt is required")
	}
	if r.Rating != nil && (*r.Rating < 1 || *r.Rating > 5) {
		return fmt.Errorf("rating must be between 1 and 5")
	}
	return nil
}

// Normalized returns a copy with empty optional fields cleared to absent
// and the icon id resolved into the enumeration.
func (r Record) Normalized() Record {
	r.ImageBase64 = normStr(r.ImageBase64)
	r.Price = normStr(r.Price)
	r.SugarIce = normStr(r.SugarIce)
	r.Shop = normStr(r.Shop)
	r.MoodNote = normStr(r.MoodNote)
	r.Brand = normStr(r.Brand)
	r.Ingredients = normStr(r.Ingredients)
	r.Rating = normInt(r.Rating)
	r.Calories = normInt(r.Calories)
	r.IconID = NormalizeIconID(r.IconID)
	return r
}

// RecordPatch is a partial update. A nil field means "retain the prior
// value"; a pointer to the zero value ("" or 0) clears the field to
// absent. Neither the id nor createdAt can be patched.
type RecordPatch struct {
	Date        *string `json:"date,omitempty"`
	Name        *string `json:"name,omitempty"`
	ImageBase64 *string `json:"imageBase64,omitempty"`
	Price       *string `json:"price,omitempty"`
	SugarIce    *string `json:"sugarIce,omitempty"`
	Rating      *int    `json:"rating,omitempty"`
	Shop        *string `json:"shop,omitempty"`
	MoodNote    *string `json:"moodNote,omitempty"`
	IconID      *IconID `json:"iconId,omitempty"`
	Brand       *string `json:"brand,omitempty"`
	Ingredients *string `json:"ingredients,omitempty"`
	Calories    *int    `json:"calories,omitempty"`
}

// Apply merges the patch onto r field-by-field and returns the normalized
// result. The receiver's id and createdAt always survive.
func (r Record) Apply(p RecordPatch) Record {
	if p.Date != nil {
		r.Date = *p.Date
	}
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.ImageBase64 != nil {
		r.ImageBase64 = p.ImageBase64
	}
	if p.Price != nil {
		r.Price = p.Price
	}
	if p.SugarIce != nil {
		r.SugarIce = p.SugarIce
	}
	if p.Rating != nil {
		r.Rating = p.Rating
	}
	if p.Shop != nil {
		r.Shop = p.Shop
	}
	if p.MoodNote != nil {
		r.MoodNote = p.MoodNote
	}
	if p.IconID != nil {
		r.IconID = *p.IconID
	}
	if p.Brand != nil {
		r.Brand = p.Brand
	}
	if p.Ingredients != nil {
		r.Ingredients = p.Ingredients
	}
	if p.Calories != nil {
		r.Calories = p.Calories
	}
	return r.Normalized()
}

func normStr(p *string) *string {
	if p != nil && *p == "" {
		return nil
	}
	return p
}

func normInt(p *int) *int {
	if p != nil && *p == 0 {
		return nil
	}
	return p
}
