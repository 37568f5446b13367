package source

import "fmt"

// FetchError is a transport failure, a non-2xx response or an error
// reported by the web app itself.
type FetchError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.StatusCode != 0:
		return fmt.Sprintf("http error: status %d", e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("request failed: %v", e.Err)
	default:
		return "request failed"
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// FormatError is a payload that could not be decoded into records.
type FormatError struct {
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid data format: %s: %v", e.Reason, e.Err)
	}
	return "invalid data format: " + e.Reason
}

func (e *FormatError) Unwrap() error { return e.Err }
