package protocol

import (
	"errors"

	"github.com/dreamware/nuke/internal/storage"
)

// Error codes carried by ErrorResponse
const (
	CodeParse    = 1
	CodeNotFound = 2
	CodeRead     = 3
	CodePush     = 4
	CodePop      = 5
	CodeInternal = 6
)

// ValueResponse answers get, read, push and pop
type ValueResponse struct {
	Key   string        `json:"key"`
	Value storage.Bytes `json:"value"`
}

// KeysResponse answers keys
type KeysResponse struct {
	Keys []string `json:"keys"`
}

// CountResponse answers count
type CountResponse struct {
	Count int `json:"count"`
}

// PartitionDetail lists the keys of one partition
type PartitionDetail struct {
	Partition int      `json:"partition"`
	Keys      []string `json:"keys"`
}

// PartitionsDetailsResponse answers partitions_details
type PartitionsDetailsResponse struct {
	Partitions []PartitionDetail `json:"partitions"`
}

// AdminResponse answers clear, persist and quit
type AdminResponse struct {
	Message string `json:"message"`
	OK      bool   `json:"ok"`
}

// ErrorResponse reports a failed command
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// errorResponse maps an error to its wire code.
func errorResponse(err error) ErrorResponse {
	code := CodeInternal
	switch {
	case errors.Is(err, storage.ErrCacheItemNotFound):
		code = CodeNotFound
	case errors.Is(err, storage.ErrReadError):
		code = CodeRead
	case errors.Is(err, storage.ErrPushError):
		code = CodePush
	case errors.Is(err, storage.ErrPopError):
		code = CodePop
	case errors.Is(err, ErrEmptyCommand),
		errors.Is(err, ErrMissingKey),
		errors.Is(err, ErrMissingValue),
		errors.Is(err, ErrUnknownCommand),
		errors.Is(err, ErrTrailingArguments):
		code = CodeParse
	}
	return ErrorResponse{Code: code, Message: err.Error()}
}
