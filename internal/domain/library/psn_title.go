package library

import "time"

// PSNTitle maps a PSN title id to its official store name. Populated
// once from a public CSV dump; the matcher consults it before any
// name-based lookup.
type PSNTitle struct {
	TitleID      string    `gorm:"column:title_id;primaryKey" json:"title_id"`
	ConceptID    string    `gorm:"column:concept_id;index" json:"concept_id,omitempty"`
	OfficialName string    `gorm:"column:official_name;not null" json:"official_name"`
	Region       string    `gorm:"column:region" json:"region,omitempty"`
	CreatedAt    time.Time `gorm:"column:created_at;not null" json:"created_at"`
}

func (PSNTitle) TableName() string { return "psn_title" }
