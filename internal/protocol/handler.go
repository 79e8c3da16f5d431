package protocol

import (
	"encoding/json"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"github.com/dreamware/nuke/internal/storage"
)

// Engine is the storage surface the protocol needs.
// *database.Database satisfies it.
type Engine interface {
	Insert(key string, value []byte) storage.Entry
	Delete(key string) (storage.Entry, error)
	Read(key string) (storage.Entry, error)
	KeysAll() []string
	CountAll() int
	ClearAll()
	PersistAll() error
	Partitions() []*storage.Partition
}

// Handler executes commands against an Engine and renders JSON replies.
// It holds no per-connection state and is safe for concurrent use.
type Handler struct {
	engine Engine
	logger *zap.Logger
}

// NewHandler returns a Handler for engine
func NewHandler(engine Engine, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{engine: engine, logger: logger}
}

// Execute runs cmd and returns the response value.
// The second return value is true when the connection should close.
func (h *Handler) Execute(cmd Command) (any, bool) {
	switch cmd.Kind {
	case KindGet, KindRead:
		entry, err := h.engine.Read(cmd.Key)
		if err != nil {
			return errorResponse(err), false
		}
		return ValueResponse{Key: entry.Key, Value: entry.Value}, false

	case KindPush:
		entry := h.engine.Insert(cmd.Key, cmd.Value)
		return ValueResponse{Key: entry.Key, Value: entry.Value}, false

	case KindPop:
		entry, err := h.engine.Delete(cmd.Key)
		if err != nil {
			return errorResponse(err), false
		}
		return ValueResponse{Key: entry.Key, Value: entry.Value}, false

	case KindKeys:
		keys := h.engine.KeysAll()
		slices.Sort(keys)
		if keys == nil {
			keys = []string{}
		}
		return KeysResponse{Keys: keys}, false

	case KindCount:
		return CountResponse{Count: h.engine.CountAll()}, false

	case KindPartitionsDetails:
		partitions := h.engine.Partitions()
		details := make([]PartitionDetail, 0, len(partitions))
		for _, p := range partitions {
			keys := p.Keys()
			slices.Sort(keys)
			details = append(details, PartitionDetail{Partition: p.Number(), Keys: keys})
		}
		return PartitionsDetailsResponse{Partitions: details}, false

	case KindClear:
		h.engine.ClearAll()
		return AdminResponse{Message: "database cleared", OK: true}, false

	case KindPersist:
		if err := h.engine.PersistAll(); err != nil {
			h.logger.Error("persist command failed", zap.Error(err))
			return AdminResponse{Message: err.Error(), OK: false}, false
		}
		return AdminResponse{Message: "database persisted", OK: true}, false

	case KindQuit:
		return AdminResponse{Message: "bye", OK: true}, true
	}

	return ErrorResponse{Code: CodeInternal, Message: "unhandled command " + cmd.Kind.String()}, false
}

// HandleLine parses, executes and encodes one request line.
// Blank lines produce a nil reply. Parse failures produce an error reply
// and leave the connection open.
func (h *Handler) HandleLine(line string) (reply []byte, closeConn bool) {
	cmd, err := Parse(line)
	if errors.Is(err, ErrEmptyCommand) {
		return nil, false
	}

	var resp any
	if err != nil {
		h.logger.Debug("parse failed", zap.String("line", line), zap.Error(err))
		resp = errorResponse(err)
	} else {
		h.logger.Debug("command", zap.Stringer("kind", cmd.Kind), zap.String("key", cmd.Key))
		resp, closeConn = h.Execute(cmd)
	}

	data, err := json.Marshal(resp)
	if err != nil {
		h.logger.Error("encode response failed", zap.Error(err))
		data, _ = json.Marshal(ErrorResponse{Code: CodeInternal, Message: "encode response failed"})
	}
	return append(data, '\n'), closeConn
}
