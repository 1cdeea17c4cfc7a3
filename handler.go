package main

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"

	uuid "github.com/satori/go.uuid"

	"github.com/pivolan/data_agent/cleaner"
	"github.com/pivolan/data_agent/config"
	"github.com/pivolan/data_agent/domain/models"
	"github.com/pivolan/data_agent/loader"
	"github.com/pivolan/data_agent/profile"
)

// fileEntry keeps one ingested file in process memory. The storage layer
// additionally persists it when a database is configured.
type fileEntry struct {
	FileID     string
	Filename   string
	SheetNames []string
	Table      *models.CanonicalTable
	Profile    models.TableProfile
	Report     *models.DataQualityReport
}

var (
	filesMu sync.RWMutex
	files   = map[string]*fileEntry{}
)

// ingestFile runs the upload pipeline: load → clean → profile → persist.
// Multi-sheet files are cleaned per sheet; the first sheet that cleans
// successfully becomes the analysis table, the rest only contribute their
// sheet names to metadata.
func ingestFile(data []byte, filename, userID string) (*fileEntry, error) {
	cfg := config.GetConfig()
	fileID := uuid.NewV4().String()

	rawTables, err := loader.Load(data, filename, fileID)
	if err != nil {
		return nil, err
	}

	opts := cleaner.Options{
		MaxNullRatio:      cfg.MaxNullRatio,
		MaxDistinctRatio:  cfg.MaxDistinctRatio,
		CardinalityFloor:  cfg.CardinalityFloor,
		CardinalityRowMin: cfg.CardinalityRowMin,
	}

	var table *models.CanonicalTable
	var report *models.DataQualityReport
	var sheetNames []string
	var cleanErr error
	for _, raw := range rawTables {
		sheetNames = append(sheetNames, raw.Sheet)
		if table != nil {
			continue
		}
		t, r, err := cleaner.Clean(raw, opts)
		if err != nil {
			cleanErr = err
			continue
		}
		table, report = t, r
	}
	if table == nil {
		return nil, cleanErr
	}

	prof := profile.Build(table, profile.Options{PreviewRows: cfg.PreviewRows, TopValues: cfg.TopValues})

	entry := &fileEntry{
		FileID:     fileID,
		Filename:   filename,
		SheetNames: sheetNames,
		Table:      table,
		Profile:    prof,
		Report:     report,
	}
	filesMu.Lock()
	files[fileID] = entry
	filesMu.Unlock()

	saveRawUpload(cfg.UploadDir, fileID, filename, data)

	if store != nil {
		if err := store.SaveUpload(fileID, userID, filename, int64(len(data)), sheetNames, table, prof, entry.Report); err != nil {
			return nil, err
		}
	}
	return entry, nil
}

// lookupFile finds an ingested file in memory, falling back to the database
// after a restart. Profiles are recomputable, so only the table is stored.
func lookupFile(fileID string) (*fileEntry, bool) {
	filesMu.RLock()
	entry, ok := files[fileID]
	filesMu.RUnlock()
	if ok {
		return entry, true
	}
	if store == nil {
		return nil, false
	}

	table, err := store.LoadTable(fileID)
	if err != nil {
		return nil, false
	}
	meta, err := store.GetUpload(fileID)
	if err != nil {
		return nil, false
	}
	cfg := config.GetConfig()
	entry = &fileEntry{
		FileID:   fileID,
		Filename: meta.OriginalFilename,
		Table:    table,
		Profile:  profile.Build(table, profile.Options{PreviewRows: cfg.PreviewRows, TopValues: cfg.TopValues}),
		Report:   reportFromJSON(meta.DataQualityIssues),
	}
	filesMu.Lock()
	files[fileID] = entry
	filesMu.Unlock()
	return entry, true
}

// saveRawUpload keeps the original bytes on disk for debugging. Best effort:
// the sweeper in main removes them after a couple of hours.
func saveRawUpload(dir, fileID, filename string, data []byte) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		log.Printf("Error creating upload dir: %v", err)
		return
	}
	path := filepath.Join(dir, fileID+"_"+filepath.Base(filename))
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Printf("Error saving upload: %v", err)
	}
}

func reportFromJSON(data string) *models.DataQualityReport {
	report := &models.DataQualityReport{}
	_ = json.Unmarshal([]byte(data), &report.Issues)
	return report
}
