package kotare

import "errors"

// ErrKeyNotFound is returned by GetValue when the key is absent from the
// table after the caller's own buffered writes have been flushed.
var ErrKeyNotFound = errors.New("key not found")

// ErrTableClosed is returned by operations invoked after Drain or Close.
// A closed table holds no data and accepts no writes; create a new table
// instead.
var ErrTableClosed = errors.New("table is closed")
