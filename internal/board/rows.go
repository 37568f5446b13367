package board

import (
	"statusboard/internal/domain"
	"strings"
)

// DefaultLinkText labels an anchor whose text is missing.
const DefaultLinkText = "Ver Link"

// BuildRows renders one row per record, in order.
func BuildRows(records []domain.StatusRecord) []Row {
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, BuildRow(rec))
	}
	return rows
}

func BuildRow(rec domain.StatusRecord) Row {
	return Row{Cells: []Cell{
		{Text: rec.Designation},
		{Text: rec.Responsible},
		statusCell(rec.StatusCurrent),
		statusCell(rec.StatusNext),
		LinkCell(rec.Link),
	}}
}

func statusCell(raw string) Cell {
	return Cell{Text: raw, Class: domain.Classify(raw).CSSClass()}
}

// LinkCell renders the last-delivery cell:
//   - legacy string: plain text
//   - url present: anchor, labelled by text or DefaultLinkText, never the raw url
//   - text only: plain text
//   - otherwise empty
func LinkCell(l domain.Link) Cell {
	switch {
	case l.Legacy:
		return Cell{Text: l.Text}
	case l.URL != "":
		text := l.Text
		if strings.TrimSpace(text) == "" {
			text = DefaultLinkText
		}
		return Cell{Text: text, Href: l.URL}
	case l.Text != "":
		return Cell{Text: l.Text}
	default:
		return Cell{}
	}
}
