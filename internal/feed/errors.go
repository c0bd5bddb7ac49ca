package feed

import "fmt"

// SourceError reports a feed bundle that is structurally unusable: a missing
// required table, or a required value that cannot be parsed. It is scoped to
// the one feed it names; ingestion of other feeds proceeds.
type SourceError struct {
	Feed   string
	Table  string
	Reason string
}

func (e *SourceError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("feed %s: table %s: %s", e.Feed, e.Table, e.Reason)
	}
	return fmt.Sprintf("feed %s: %s", e.Feed, e.Reason)
}

// FetchError reports a feed source that could not be retrieved.
type FetchError struct {
	Feed     string
	Location string
	Status   int
	Err      error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch feed %s from %s: HTTP %d", e.Feed, e.Location, e.Status)
	}
	return fmt.Sprintf("fetch feed %s from %s: %v", e.Feed, e.Location, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
