package query

import "fmt"

// ConfigError reports an invalid query parameter (unknown day type,
// non-positive radius). Distinct from QueryError: the caller sent a bad
// request, the store is fine.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// QueryError reports a failure reaching or reading the dataset store.
// Empty results are never represented as an error; they are a valid answer.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }
