package extract

import "fmt"

// ErrorKind distinguishes transport failures from schema violations so the
// orchestrator can tell a flaky network from a misbehaving model.
type ErrorKind string

const (
	// KindTransport covers network, auth, rate-limit, and timeout failures.
	KindTransport ErrorKind = "transport"
	// KindSchema covers responses that do not conform to the extraction schema.
	KindSchema ErrorKind = "schema"
)

// Error is an extraction failure. Raw carries the model's response body (if
// any) for diagnosis.
type Error struct {
	Kind ErrorKind
	Raw  string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("extraction %s error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
