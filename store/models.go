package store

import (
	"fmt"
	"time"

	"gorm.io/datatypes"

	"pitchcraft/generator"
)

// StatusGenerated is the only status a record is ever written with.
const StatusGenerated = "generated"

// PitchRecord is one stored generation result. Records are immutable once
// written.
type PitchRecord struct {
	ID            string                             `gorm:"primaryKey;type:text" json:"id"`
	OwnerID       string                             `gorm:"type:text;not null;index:idx_owner_created" json:"ownerId"`
	Idea          datatypes.JSONType[generator.Idea] `json:"idea"`
	Schema        string                             `gorm:"type:text" json:"schema,omitempty"`
	Pitch         datatypes.JSON                     `json:"generatedPitch"`
	Status        string                             `gorm:"type:text;not null;default:generated" json:"status"`
	UsedFallback  bool                               `json:"usedFallback"`
	ParseStrategy string                             `gorm:"type:text" json:"parseStrategy,omitempty"`
	CreatedAt     *time.Time                         `gorm:"autoCreateTime:false;index:idx_owner_created" json:"createdAt"`
}

func (PitchRecord) TableName() string { return "pitches" }

// Path is the logical document path of the record.
func (r PitchRecord) Path() string {
	return fmt.Sprintf("users/%s/pitches/%s", r.OwnerID, r.ID)
}

// GeneratedPitch decodes the stored pitch document. Records without a schema
// are sniffed from the document's keys.
func (r PitchRecord) GeneratedPitch() (generator.GeneratedPitch, error) {
	return generator.DecodePitch(generator.SchemaKind(r.Schema), r.Pitch)
}

// CreateMeta carries how a pitch was obtained, for observability.
type CreateMeta struct {
	Strategy     generator.ParseStrategy
	UsedFallback bool
}
