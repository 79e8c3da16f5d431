// Package protocol implements the line-oriented command language spoken by
// nuke clients and maps each command onto a storage engine call.
//
// # Wire Format
//
// A request is one line of whitespace-separated tokens. The verb is
// case-insensitive; keys and values are case-preserving. Every reply is a
// single JSON object terminated by a newline.
//
//	push user:1 hello      → {"key":"user:1","value":[104,101,108,108,111]}
//	get user:1             → {"key":"user:1","value":[104,101,108,108,111]}
//	pop user:1             → {"key":"user:1","value":[104,101,108,108,111]}
//	get user:1             → {"code":3,"message":"cache item deleted"}
//	get nobody             → {"code":2,"message":"cache item not found"}
//	keys                   → {"keys":["user:1"]}
//	count                  → {"count":1}
//	partitions_details     → {"partitions":[{"partition":0,"keys":[]},...]}
//	clear                  → {"message":"database cleared","ok":true}
//	persist                → {"message":"database persisted","ok":true}
//	quit                   → {"message":"bye","ok":true}
//
// Aliases: read = get, set = push, delete = pop.
//
// # Error Codes
//
//	1  parse error (empty verb, missing key/value, unknown verb, extra args)
//	2  not found   (storage.ErrCacheItemNotFound)
//	3  read error  (storage.ErrReadError, key is tombstoned)
//	4  push error  (storage.ErrPushError, reserved)
//	5  pop error   (storage.ErrPopError, reserved)
//	6  internal
//
// A parse error never closes the connection. Blank lines are ignored.
package protocol
