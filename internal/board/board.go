package board

import (
	"fmt"
	"sync"
	"time"
)

// BodyKind tells which of the mutually exclusive bodies the table shows.
type BodyKind string

const (
	BodyLoading BodyKind = "loading"
	BodyRows    BodyKind = "rows"
	BodyEmpty   BodyKind = "empty"
	BodyError   BodyKind = "error"
)

const (
	LoadingText     = "Carregando dados..."
	PlaceholderText = "Nenhum dado encontrado na planilha."
)

// DefaultHeaders mirrors the sheet columns.
var DefaultHeaders = []string{
	"Designação",
	"Responsável(is)",
	"Status (Mês Atual)",
	"Status (Próximo Mês)",
	"Link do Último Envio",
}

// Cell is one rendered table cell. A non-empty Href makes it an anchor.
type Cell struct {
	Text  string `json:"text"`
	Class string `json:"class,omitempty"`
	Href  string `json:"href,omitempty"`
}

func (c Cell) IsLink() bool { return c.Href != "" }

type Row struct {
	Cells []Cell `json:"cells"`
}

// Snapshot is an immutable copy of the table.
type Snapshot struct {
	Headers   []string  `json:"headers"`
	Kind      BodyKind  `json:"kind"`
	Rows      []Row     `json:"rows,omitempty"`
	Message   string    `json:"message,omitempty"`
	CycleID   string    `json:"cycle_id,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Columns is the span of placeholder and error rows.
func (s Snapshot) Columns() int {
	if len(s.Headers) == 0 {
		return len(DefaultHeaders)
	}
	return len(s.Headers)
}

// ErrorText is the user-visible message of the error row.
func ErrorText(err error) string {
	return fmt.Sprintf("Erro ao carregar os dados: %s. Verifique os logs para mais detalhes.", err)
}

// Board holds the table the page shows. Every body update replaces the
// previous body as a whole.
type Board struct {
	mu   sync.RWMutex
	snap Snapshot
}

func New(headers []string) *Board {
	if len(headers) == 0 {
		headers = DefaultHeaders
	}
	return &Board{snap: Snapshot{
		Headers: append([]string(nil), headers...),
		Kind:    BodyLoading,
		Message: LoadingText,
	}}
}

func (b *Board) Headers() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]string(nil), b.snap.Headers...)
}

// SetRows replaces the body with rows, or with the placeholder when rows is empty.
func (b *Board) SetRows(cycleID string, at time.Time, rows []Row) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.snap.CycleID = cycleID
	b.snap.UpdatedAt = at
	if len(rows) == 0 {
		b.snap.Kind = BodyEmpty
		b.snap.Rows = nil
		b.snap.Message = PlaceholderText
		return
	}
	b.snap.Kind = BodyRows
	b.snap.Rows = rows
	b.snap.Message = ""
}

// SetError replaces the body with a single error row.
func (b *Board) SetError(cycleID string, at time.Time, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.snap.CycleID = cycleID
	b.snap.UpdatedAt = at
	b.snap.Kind = BodyError
	b.snap.Rows = nil
	b.snap.Message = ErrorText(err)
}

// Restore seeds the body from a cached snapshot. Headers are kept, and a
// board that already left the loading state is not overwritten.
func (b *Board) Restore(s Snapshot) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.snap.Kind != BodyLoading {
		return false
	}
	b.snap.Kind = s.Kind
	b.snap.Rows = cloneRows(s.Rows)
	b.snap.Message = s.Message
	b.snap.CycleID = s.CycleID
	b.snap.UpdatedAt = s.UpdatedAt
	return true
}

// Adopt replaces the body with a snapshot rendered elsewhere when it is newer
// than the current one. Headers are kept.
func (b *Board) Adopt(s Snapshot) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !s.UpdatedAt.After(b.snap.UpdatedAt) {
		return false
	}
	b.snap.Kind = s.Kind
	b.snap.Rows = cloneRows(s.Rows)
	b.snap.Message = s.Message
	b.snap.CycleID = s.CycleID
	b.snap.UpdatedAt = s.UpdatedAt
	return true
}

func (b *Board) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s := b.snap
	s.Headers = append([]string(nil), b.snap.Headers...)
	s.Rows = cloneRows(b.snap.Rows)
	return s
}

func cloneRows(rows []Row) []Row {
	if rows == nil {
		return nil
	}
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = Row{Cells: append([]Cell(nil), r.Cells...)}
	}
	return out
}
