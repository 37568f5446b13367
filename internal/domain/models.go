package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
)

// Column keys as published by the spreadsheet web app.
const (
	KeyDesignation   = "Designação"
	KeyResponsible   = "Responsável(is)"
	KeyStatusCurrent = "Status (Mês Atual)"
	KeyStatusNext    = "Status (Próximo Mês)"
	KeyLastDelivery  = "Link do Último Envio"
)

var codec = sonic.ConfigStd

// Text is a spreadsheet cell value. Numbers and booleans keep their literal
// form; null, objects and arrays decode to "".
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*t = ""
	if len(b) == 0 {
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := codec.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
	case 'n', '{', '[':
	default:
		*t = Text(b)
	}
	return nil
}

// Link is the "last delivery" cell. Older sheets publish a bare string,
// newer ones an object with optional text and url.
type Link struct {
	Legacy bool   `json:"legacy,omitempty"`
	Text   string `json:"text,omitempty"`
	URL    string `json:"url,omitempty"`
}

func (l *Link) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*l = Link{}
	if len(b) == 0 {
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := codec.Unmarshal(b, &s); err != nil {
			return err
		}
		*l = Link{Legacy: true, Text: s}
	case '{':
		var v struct {
			Text Text `json:"text"`
			URL  Text `json:"url"`
		}
		if err := codec.Unmarshal(b, &v); err != nil {
			return err
		}
		*l = Link{Text: string(v.Text), URL: string(v.URL)}
	}
	return nil
}

// StatusRecord is one row of the sheet.
type StatusRecord struct {
	Designation   string
	Responsible   string
	StatusCurrent string
	StatusNext    string
	Link          Link
}

// UnmarshalJSON decodes a record by its literal sheet keys. Anything that is
// not a JSON object yields an empty record.
func (r *StatusRecord) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*r = StatusRecord{}
	if len(b) == 0 || b[0] != '{' {
		return nil
	}

	var fields map[string]json.RawMessage
	if err := codec.Unmarshal(b, &fields); err != nil {
		return err
	}

	texts := []struct {
		key string
		dst *string
	}{
		{KeyDesignation, &r.Designation},
		{KeyResponsible, &r.Responsible},
		{KeyStatusCurrent, &r.StatusCurrent},
		{KeyStatusNext, &r.StatusNext},
	}
	for _, f := range texts {
		raw, ok := fields[f.key]
		if !ok {
			continue
		}
		var t Text
		if err := t.UnmarshalJSON(raw); err != nil {
			return err
		}
		*f.dst = string(t)
	}

	if raw, ok := fields[KeyLastDelivery]; ok {
		if err := r.Link.UnmarshalJSON(raw); err != nil {
			return err
		}
	}
	return nil
}

// AppError is the "error" member of the envelope. null, false, 0 and ""
// mean no error was reported.
type AppError struct {
	Set     bool
	Message string
}

func (e *AppError) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*e = AppError{}
	if len(b) == 0 {
		return nil
	}
	switch b[0] {
	case 'n', 'f':
		return nil
	case '{', '[':
		*e = AppError{Set: true, Message: string(b)}
		return nil
	}
	if f, err := strconv.ParseFloat(string(b), 64); err == nil && f == 0 {
		return nil
	}
	var t Text
	if err := t.UnmarshalJSON(b); err != nil {
		return err
	}
	if t != "" {
		*e = AppError{Set: true, Message: string(t)}
	}
	return nil
}

// Payload is the envelope returned by the web app.
type Payload struct {
	Data    json.RawMessage `json:"data"`
	Error   AppError        `json:"error"`
	Details Text            `json:"details"`
}

// Cycle outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeEmpty       = "empty"
	OutcomeFetchError  = "fetch_error"
	OutcomeFormatError = "format_error"
)

// Cycle describes one fetch-and-render run.
type Cycle struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	Outcome    string    `json:"outcome"`
	RowCount   int       `json:"row_count"`
	Error      string    `json:"error,omitempty"`
}
