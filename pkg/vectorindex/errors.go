package vectorindex

import "errors"

// ErrIndex wraps every failure raised while embedding, writing, or querying chunks.
var ErrIndex = errors.New("vector index failure")
