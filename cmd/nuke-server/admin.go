package main

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"github.com/dreamware/nuke/internal/database"
)

// newAdminMux builds the HTTP admin surface for db.
//
// Endpoints:
//
//	GET  /health                 - Liveness check, always 200
//	GET  /info                   - Partition count, data path, entry total
//	GET  /partitions             - Per-partition statistics
//	GET  /partitions/{id}/keys   - Sorted keys of one partition
//	POST /persist                - Snapshot every partition
func newAdminMux(db *database.Database, logger *zap.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /info", func(w http.ResponseWriter, r *http.Request) {
		handleInfo(db, logger, w, r)
	})

	mux.HandleFunc("GET /partitions", func(w http.ResponseWriter, r *http.Request) {
		handlePartitionStats(db, logger, w, r)
	})

	mux.HandleFunc("GET /partitions/{id}/keys", func(w http.ResponseWriter, r *http.Request) {
		handlePartitionKeys(db, logger, w, r)
	})

	mux.HandleFunc("POST /persist", func(w http.ResponseWriter, r *http.Request) {
		handlePersist(db, logger, w, r)
	})

	return mux
}

// handleInfo returns a summary of the database.
//
// Response body:
//
//	{
//	  "partitions": 10,
//	  "data_path": "./data",
//	  "entries": 1000
//	}
func handleInfo(db *database.Database, logger *zap.Logger, w http.ResponseWriter, _ *http.Request) {
	response := struct {
		DataPath   string `json:"data_path"`
		Partitions int    `json:"partitions"`
		Entries    int    `json:"entries"`
	}{
		DataPath:   db.BasePath(),
		Partitions: db.PartitionCount(),
		Entries:    db.CountAll(),
	}
	writeJSON(w, logger, http.StatusOK, response)
}

// handlePartitionStats returns storage.PartitionStats for every partition
// in index order.
func handlePartitionStats(db *database.Database, logger *zap.Logger, w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, logger, http.StatusOK, db.Stats())
}

// handlePartitionKeys lists the keys stored in one partition.
//
// Response:
//   - 200 OK: {"partition": 3, "keys": [...], "count": n}
//   - 400 Bad Request: id is not an integer
//   - 404 Not Found: id is out of range
func handlePartitionKeys(db *database.Database, logger *zap.Logger, w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid partition id", http.StatusBadRequest)
		return
	}

	p := db.Partition(id)
	if p == nil {
		http.Error(w, "partition not found", http.StatusNotFound)
		return
	}

	keys := p.Keys()
	slices.Sort(keys)

	response := struct {
		Keys      []string `json:"keys"`
		Partition int      `json:"partition"`
		Count     int      `json:"count"`
	}{
		Partition: id,
		Keys:      keys,
		Count:     len(keys),
	}
	writeJSON(w, logger, http.StatusOK, response)
}

// handlePersist snapshots all partitions.
//
// Response:
//   - 200 OK: every partition persisted
//   - 500 Internal Server Error: at least one partition failed; the body
//     lists the failures
func handlePersist(db *database.Database, logger *zap.Logger, w http.ResponseWriter, _ *http.Request) {
	if err := db.PersistAll(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, logger, http.StatusOK, map[string]bool{"ok": true})
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("error writing response", zap.Error(err))
	}
}
