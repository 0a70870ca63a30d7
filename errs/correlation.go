package errs

import "github.com/google/uuid"

// WithGeneratedCorrelationID sets a freshly generated correlation id,
// sparing callers who don't already have one of their own to thread
// through (e.g. a request id from upstream) from hand-rolling one.
func (c *Context) WithGeneratedCorrelationID() *Context {
	id := uuid.NewString()
	c.CorrelationID = &id
	return c
}
