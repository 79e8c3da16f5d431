package protocol

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Kind identifies a command verb.
type Kind int

const (
	KindGet Kind = iota + 1
	KindRead
	KindPush
	KindPop
	KindKeys
	KindCount
	KindPartitionsDetails
	KindClear
	KindPersist
	KindQuit
)

var kindNames = map[Kind]string{
	KindGet:               "get",
	KindRead:              "read",
	KindPush:              "push",
	KindPop:               "pop",
	KindKeys:              "keys",
	KindCount:             "count",
	KindPartitionsDetails: "partitions_details",
	KindClear:             "clear",
	KindPersist:           "persist",
	KindQuit:              "quit",
}

// verbs maps every accepted spelling to its kind
var verbs = map[string]Kind{
	"get":                KindGet,
	"read":               KindRead,
	"push":               KindPush,
	"set":                KindPush,
	"pop":                KindPop,
	"delete":             KindPop,
	"keys":               KindKeys,
	"count":              KindCount,
	"partitions_details": KindPartitionsDetails,
	"clear":              KindClear,
	"persist":            KindPersist,
	"quit":               KindQuit,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

var (
	// ErrEmptyCommand is returned for a blank line
	ErrEmptyCommand = errors.New("empty command")
	// ErrMissingKey is returned when a keyed command has no key
	ErrMissingKey = errors.New("missing key")
	// ErrMissingValue is returned when push has no value
	ErrMissingValue = errors.New("missing value")
	// ErrUnknownCommand is returned for an unrecognized verb
	ErrUnknownCommand = errors.New("unrecognized command")
	// ErrTrailingArguments is returned when a command gets more arguments
	// than it takes
	ErrTrailingArguments = errors.New("unexpected arguments")
)

// Command is a parsed request line.
type Command struct {
	Key   string
	Value []byte
	Kind  Kind
}

// Parse turns one request line into a Command.
//
// The verb is case-insensitive; keys and values are taken verbatim. For
// push, the value is everything after the key with surrounding whitespace
// trimmed, so it may contain spaces.
//
//	push user:1 hello world   → {KindPush, "user:1", "hello world"}
//	GET user:1                → {KindGet, "user:1"}
func Parse(line string) (Command, error) {
	verb, rest := nextToken(line)
	if verb == "" {
		return Command{}, ErrEmptyCommand
	}

	kind, ok := verbs[strings.ToLower(verb)]
	if !ok {
		return Command{}, fmt.Errorf("%w: %s", ErrUnknownCommand, verb)
	}
	cmd := Command{Kind: kind}

	switch kind {
	case KindGet, KindRead, KindPop:
		key, rest := nextToken(rest)
		if key == "" {
			return Command{}, fmt.Errorf("%s: %w", kind, ErrMissingKey)
		}
		if strings.TrimSpace(rest) != "" {
			return Command{}, fmt.Errorf("%s: %w", kind, ErrTrailingArguments)
		}
		cmd.Key = key

	case KindPush:
		key, rest := nextToken(rest)
		if key == "" {
			return Command{}, fmt.Errorf("%s: %w", kind, ErrMissingKey)
		}
		value := strings.TrimSpace(rest)
		if value == "" {
			return Command{}, fmt.Errorf("%s: %w", kind, ErrMissingValue)
		}
		cmd.Key = key
		cmd.Value = []byte(value)

	default:
		if strings.TrimSpace(rest) != "" {
			return Command{}, fmt.Errorf("%s: %w", kind, ErrTrailingArguments)
		}
	}

	return cmd, nil
}

// nextToken splits off the first whitespace-delimited token of s.
func nextToken(s string) (token, rest string) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := strings.IndexFunc(s, unicode.IsSpace)
	if end < 0 {
		return s, ""
	}
	return s[:end], s[end:]
}
