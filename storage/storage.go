// Package storage persists upload metadata and cached table data in a
// relational store. The engine itself never talks to the database; callers
// hand it tables loaded from here.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pivolan/data_agent/domain/models"
)

var ErrNotFound = errors.New("not found")

// UploadedFile is the metadata row for one uploaded file. Structured fields
// are stored as JSON text so the schema stays flat.
type UploadedFile struct {
	ID                string `gorm:"primaryKey;size:36"`
	UserID            string `gorm:"size:64;index"`
	OriginalFilename  string
	FileSize          int64
	SheetNames        string
	ColumnMapping     string
	RowCount          int
	DataPreview       string `gorm:"type:longtext"`
	DataQualityIssues string `gorm:"type:text"`
	CreatedAt         time.Time
}

// DataCache is one cached payload for a file: either the serialized
// canonical table (full_data_<id>) or a memoized analysis result. Expired
// rows are ignored on read and left for external garbage collection.
type DataCache struct {
	ID        uint   `gorm:"primaryKey"`
	FileID    string `gorm:"size:36;index:idx_file_key"`
	CacheKey  string `gorm:"size:64;index:idx_file_key"`
	Data      string `gorm:"type:longtext"`
	CreatedAt time.Time
	ExpiresAt *time.Time
}

type Store struct {
	db *gorm.DB
}

func New(dsn string) (*Store, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := db.AutoMigrate(&UploadedFile{}, &DataCache{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func fullDataKey(fileID string) string {
	return "full_data_" + fileID
}

// SaveUpload stores file metadata plus the serialized canonical table.
func (s *Store) SaveUpload(fileID, userID, filename string, size int64, sheetNames []string,
	table *models.CanonicalTable, prof models.TableProfile, report *models.DataQualityReport) error {

	mapping := map[string]string{}
	for _, c := range table.Columns {
		mapping[c.Name] = c.Type.String()
	}

	row := UploadedFile{
		ID:                fileID,
		UserID:            userID,
		OriginalFilename:  filename,
		FileSize:          size,
		SheetNames:        mustJSON(sheetNames),
		ColumnMapping:     mustJSON(mapping),
		RowCount:          prof.RowCount,
		DataPreview:       mustJSON(prof.Preview),
		DataQualityIssues: mustJSON(report.Issues),
		CreatedAt:         time.Now(),
	}
	if err := s.db.Create(&row).Error; err != nil {
		return fmt.Errorf("save upload: %w", err)
	}

	cache := DataCache{
		FileID:    fileID,
		CacheKey:  fullDataKey(fileID),
		Data:      mustJSON(table),
		CreatedAt: time.Now(),
	}
	if err := s.db.Create(&cache).Error; err != nil {
		return fmt.Errorf("save table data: %w", err)
	}
	return nil
}

func (s *Store) GetUpload(fileID string) (*UploadedFile, error) {
	var row UploadedFile
	err := s.db.Where("id = ?", fileID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: file %s", ErrNotFound, fileID)
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// LoadTable restores a canonical table from its serialized form. JSON
// erases cell types, so cells are rehydrated against the column specs.
func (s *Store) LoadTable(fileID string) (*models.CanonicalTable, error) {
	var row DataCache
	err := s.db.Where("file_id = ? AND cache_key = ?", fileID, fullDataKey(fileID)).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: table data for file %s", ErrNotFound, fileID)
	}
	if err != nil {
		return nil, err
	}

	var table models.CanonicalTable
	if err := json.Unmarshal([]byte(row.Data), &table); err != nil {
		return nil, fmt.Errorf("decode table: %w", err)
	}
	rehydrate(&table)
	return &table, nil
}

// rehydrate converts JSON-decoded cells back to their column types: numbers
// arrive as float64 and dates as RFC3339 strings.
func rehydrate(table *models.CanonicalTable) {
	for _, row := range table.Rows {
		for ci, spec := range table.Columns {
			if ci >= len(row) || row[ci] == nil {
				continue
			}
			switch spec.Type {
			case models.TypeInteger:
				if f, ok := row[ci].(float64); ok {
					row[ci] = int64(f)
				}
			case models.TypeDate:
				if sv, ok := row[ci].(string); ok {
					if t, err := time.Parse(time.RFC3339, sv); err == nil {
						row[ci] = t
					}
				}
			}
		}
	}
}

func mustJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(data)
}
