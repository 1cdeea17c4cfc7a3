package main

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/pivolan/data_agent/cleaner"
	"github.com/pivolan/data_agent/domain/models"
	"github.com/pivolan/data_agent/intent"
	"github.com/pivolan/data_agent/loader"
	"github.com/pivolan/data_agent/viz"
)

type queryRequest struct {
	FileID         string `json:"file_id"`
	Query          string `json:"query"`
	ConversationID string `json:"conversation_id"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": message, "code": code})
}

// ingestStatus maps the terminal ingestion failures to distinct responses.
func ingestStatus(err error) (int, string) {
	switch {
	case errors.Is(err, loader.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType, "unsupported_format"
	case errors.Is(err, loader.ErrEmptyFile):
		return http.StatusBadRequest, "empty_file"
	case errors.Is(err, loader.ErrCorruptFile):
		return http.StatusUnprocessableEntity, "corrupt_file"
	case errors.Is(err, cleaner.ErrNoUsableColumns):
		return http.StatusUnprocessableEntity, "no_usable_columns"
	}
	return http.StatusInternalServerError, "internal"
}

func handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "POST required")
		return
	}

	userID := r.FormValue("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing_user", "user_id is required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing_file", "no file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "error reading upload")
		return
	}

	entry, err := ingestFile(data, header.Filename, userID)
	if err != nil {
		status, code := ingestStatus(err)
		writeError(w, status, code, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"file_id":   entry.FileID,
		"filename":  entry.Filename,
		"row_count": entry.Profile.RowCount,
		"columns":   entry.Profile.ColumnNames(),
		"issues":    entry.Report.Issues,
	})
}

func handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "POST required")
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if req.FileID == "" || req.Query == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "file_id and query are required")
		return
	}

	entry, ok := lookupFile(req.FileID)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "file data not found")
		return
	}

	started := time.Now()
	request := intent.Resolve(req.Query, entry.Profile)
	result, payload, cached := engine.Run(entry.Table, request)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"answer":        composeAnswer(result, payload),
		"visualization": payload,
		"query_metadata": models.QueryMetadata{
			Op:       result.Op,
			Columns:  request.Columns,
			Cached:   cached,
			Duration: time.Since(started).String(),
		},
	})
}

func handleFileInfo(w http.ResponseWriter, r *http.Request) {
	fileID := strings.TrimPrefix(r.URL.Path, "/files/")
	if fileID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "file id required")
		return
	}
	entry, ok := lookupFile(fileID)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "file not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"file_id":     entry.FileID,
		"filename":    entry.Filename,
		"sheet_names": entry.SheetNames,
		"row_count":   entry.Profile.RowCount,
		"columns":     entry.Profile.Columns,
		"preview":     entry.Profile.Preview,
		"issues":      entry.Report.Issues,
	})
}

// handleChart answers a question with a rendered HTML chart instead of JSON.
func handleChart(w http.ResponseWriter, r *http.Request) {
	fileID := r.URL.Query().Get("file_id")
	question := r.URL.Query().Get("q")
	if fileID == "" || question == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "file_id and q are required")
		return
	}
	entry, ok := lookupFile(fileID)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "file not found")
		return
	}

	request := intent.Resolve(question, entry.Profile)
	_, payload, _ := engine.Run(entry.Table, request)

	page, err := viz.RenderHTML(payload, question)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "error rendering chart")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}
