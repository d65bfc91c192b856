package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FileRecord is a single extracted file as seen by the parser and the event stream.
type FileRecord struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	Type    string `json:"type"`
}

// GeneratedFile is a persisted FileRecord belonging to one generation.
type GeneratedFile struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	GenerationID uuid.UUID `gorm:"type:uuid;not null;index" json:"generationId"`
	FilePath     string    `gorm:"size:1024;not null" json:"filePath"`
	FileContent  string    `gorm:"type:text" json:"fileContent"`
	FileType     *string   `gorm:"size:50" json:"fileType,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (GeneratedFile) TableName() string {
	return "generation_files"
}

func (f *GeneratedFile) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// Record converts the row back to its wire form.
func (f GeneratedFile) Record() FileRecord {
	rec := FileRecord{Path: f.FilePath, Content: f.FileContent}
	if f.FileType != nil {
		rec.Type = *f.FileType
	}
	return rec
}

// NewGeneratedFile builds a row for generationID from a FileRecord.
func NewGeneratedFile(generationID uuid.UUID, rec FileRecord) GeneratedFile {
	file := GeneratedFile{
		GenerationID: generationID,
		FilePath:     rec.Path,
		FileContent:  rec.Content,
	}
	if rec.Type != "" {
		t := rec.Type
		file.FileType = &t
	}
	return file
}
