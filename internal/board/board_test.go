package board

import (
	"errors"
	"statusboard/internal/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthLabels(t *testing.T) {
	for m := time.January; m <= time.December; m++ {
		now := time.Date(2026, m, 15, 12, 0, 0, 0, time.UTC)
		next, after := MonthLabels(now)
		assert.Equal(t, monthNames[int(m)%12], next, "month=%s", m)
		assert.Equal(t, monthNames[(int(m)+1)%12], after, "month=%s", m)
	}

	next, after := MonthLabels(time.Date(2026, time.November, 30, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "Dezembro", next)
	assert.Equal(t, "Janeiro", after)
}

func TestApplyMonthHeaders(t *testing.T) {
	t.Run("rewrites third and fourth header", func(t *testing.T) {
		b := New(nil)
		next, after, ok := b.ApplyMonthHeaders(time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC))
		require.True(t, ok)
		assert.Equal(t, "Novembro", next)
		assert.Equal(t, "Dezembro", after)
		assert.Equal(t, []string{
			"Designação",
			"Responsável(is)",
			"Status (Novembro)",
			"Status (Dezembro)",
			"Link do Último Envio",
		}, b.Headers())
	})

	t.Run("too few headers leaves them unchanged", func(t *testing.T) {
		b := New([]string{"a", "b", "c"})
		_, _, ok := b.ApplyMonthHeaders(time.Now())
		assert.False(t, ok)
		assert.Equal(t, []string{"a", "b", "c"}, b.Headers())
	})

	t.Run("default headers are not mutated", func(t *testing.T) {
		b := New(nil)
		b.ApplyMonthHeaders(time.Now())
		assert.Equal(t, "Status (Mês Atual)", DefaultHeaders[2])
	})
}

func TestLinkCell(t *testing.T) {
	cases := []struct {
		name string
		link domain.Link
		want Cell
	}{
		{"text and url", domain.Link{Text: "Relatório", URL: "http://x"}, Cell{Text: "Relatório", Href: "http://x"}},
		{"url only shows the default text", domain.Link{URL: "http://x"}, Cell{Text: DefaultLinkText, Href: "http://x"}},
		{"blank text", domain.Link{Text: "  ", URL: "http://x"}, Cell{Text: DefaultLinkText, Href: "http://x"}},
		{"text only", domain.Link{Text: "enviado"}, Cell{Text: "enviado"}},
		{"legacy string", domain.Link{Legacy: true, Text: "http://y"}, Cell{Text: "http://y"}},
		{"absent", domain.Link{}, Cell{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, LinkCell(tc.link))
		})
	}
}

func TestBuildRow(t *testing.T) {
	row := BuildRow(domain.StatusRecord{
		Designation:   "D1",
		Responsible:   "Ana",
		StatusCurrent: "Pendente",
		StatusNext:    "talvez",
		Link:          domain.Link{Text: "Relatório", URL: "http://x"},
	})
	require.Len(t, row.Cells, 5)
	assert.Equal(t, Cell{Text: "D1"}, row.Cells[0])
	assert.Equal(t, Cell{Text: "Ana"}, row.Cells[1])
	assert.Equal(t, Cell{Text: "Pendente", Class: "status-pending"}, row.Cells[2])
	assert.Equal(t, Cell{Text: "talvez"}, row.Cells[3])
	assert.True(t, row.Cells[4].IsLink())
}

func TestBoardBodies(t *testing.T) {
	b := New(nil)
	assert.Equal(t, BodyLoading, b.Snapshot().Kind)

	at := time.Date(2026, time.October, 19, 10, 0, 0, 0, time.UTC)
	b.SetRows("c1", at, BuildRows([]domain.StatusRecord{{Designation: "a"}, {Designation: "b"}}))
	snap := b.Snapshot()
	assert.Equal(t, BodyRows, snap.Kind)
	assert.Len(t, snap.Rows, 2)
	assert.Equal(t, "c1", snap.CycleID)
	assert.Equal(t, at, snap.UpdatedAt)

	b.SetRows("c2", at, BuildRows(nil))
	snap = b.Snapshot()
	assert.Equal(t, BodyEmpty, snap.Kind)
	assert.Empty(t, snap.Rows)
	assert.Equal(t, PlaceholderText, snap.Message)

	b.SetError("c3", at, errors.New("http error: status 500"))
	snap = b.Snapshot()
	assert.Equal(t, BodyError, snap.Kind)
	assert.Empty(t, snap.Rows)
	assert.Contains(t, snap.Message, "status 500")
	assert.Equal(t, 5, snap.Columns())
}

func TestSnapshotIsACopy(t *testing.T) {
	b := New(nil)
	b.SetRows("c1", time.Now(), BuildRows([]domain.StatusRecord{{Designation: "a"}}))

	snap := b.Snapshot()
	snap.Headers[0] = "changed"
	snap.Rows[0].Cells[0].Text = "changed"

	again := b.Snapshot()
	assert.Equal(t, "Designação", again.Headers[0])
	assert.Equal(t, "a", again.Rows[0].Cells[0].Text)
}

func TestRestore(t *testing.T) {
	cached := Snapshot{
		Headers: []string{"x"},
		Kind:    BodyRows,
		Rows:    []Row{{Cells: []Cell{{Text: "cached"}}}},
		CycleID: "old",
	}

	b := New(nil)
	require.True(t, b.Restore(cached))
	snap := b.Snapshot()
	assert.Equal(t, "cached", snap.Rows[0].Cells[0].Text)
	assert.Equal(t, DefaultHeaders, snap.Headers)

	b.SetRows("new", time.Now(), nil)
	assert.False(t, b.Restore(cached))
	assert.Equal(t, BodyEmpty, b.Snapshot().Kind)
}

func TestAdopt(t *testing.T) {
	t0 := time.Date(2026, time.October, 19, 10, 0, 0, 0, time.UTC)
	newer := Snapshot{
		Headers:   []string{"x"},
		Kind:      BodyRows,
		Rows:      []Row{{Cells: []Cell{{Text: "remote"}}}},
		CycleID:   "remote",
		UpdatedAt: t0.Add(time.Minute),
	}

	b := New(nil)
	b.SetRows("local", t0, []Row{{Cells: []Cell{{Text: "local"}}}})

	require.True(t, b.Adopt(newer))
	snap := b.Snapshot()
	assert.Equal(t, "remote", snap.CycleID)
	assert.Equal(t, "remote", snap.Rows[0].Cells[0].Text)
	assert.Equal(t, DefaultHeaders, snap.Headers)

	older := newer
	older.CycleID = "stale"
	older.UpdatedAt = t0
	assert.False(t, b.Adopt(older))
	assert.False(t, b.Adopt(newer), "same snapshot twice")
	assert.Equal(t, "remote", b.Snapshot().CycleID)
}
