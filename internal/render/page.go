package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"statusboard/internal/board"
	"time"
)

var pageTmpl = template.Must(template.New("board").Parse(`<!doctype html>
<html lang="pt-BR">
  <head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    {{- if .RefreshSeconds}}
    <meta http-equiv="refresh" content="{{.RefreshSeconds}}" />
    {{- end}}
    <title>{{.Title}}</title>
    <style>
      body { font-family: ui-sans-serif, system-ui, -apple-system, "Segoe UI", Roboto, Arial, sans-serif; margin: 24px; color: #1f2937; }
      h1 { font-size: 1.4rem; }
      table { border-collapse: collapse; width: 100%; }
      th, td { border: 1px solid #d1d5db; padding: 8px 10px; text-align: left; }
      thead th { background: #f3f4f6; }
      .status-pending { background: #fef3c7; color: #92400e; font-weight: 600; }
      .status-delivered { background: #d1fae5; color: #065f46; font-weight: 600; }
      footer { margin-top: 12px; font-size: 0.8rem; color: #6b7280; }
    </style>
  </head>
  <body>
    <h1>{{.Title}}</h1>
    <table>
      <thead>
        <tr>
          {{- range .Board.Headers}}
          <th>{{.}}</th>
          {{- end}}
        </tr>
      </thead>
      <tbody>
        {{- if eq .Board.Kind "rows"}}
        {{- range .Board.Rows}}
        <tr>
          {{- range .Cells}}
          <td{{if .Class}} class="{{.Class}}"{{end}}>
            {{- if .IsLink}}<a href="{{.Href}}" target="_blank" rel="noopener noreferrer">{{.Text}}</a>{{else}}{{.Text}}{{end -}}
          </td>
          {{- end}}
        </tr>
        {{- end}}
        {{- else if eq .Board.Kind "error"}}
        <tr><td colspan="{{.Board.Columns}}" class="board-error" style="text-align:center; color:red;">{{.Board.Message}}</td></tr>
        {{- else}}
        <tr><td colspan="{{.Board.Columns}}" class="board-{{.Board.Kind}}" style="text-align:center;">{{.Board.Message}}</td></tr>
        {{- end}}
      </tbody>
    </table>
    <footer>
      {{- if .Updated}}Atualizado em {{.Updated}}{{if .Board.CycleID}} · ciclo {{.Board.CycleID}}{{end}}{{else}}Aguardando a primeira atualização{{end -}}
    </footer>
  </body>
</html>
`))

type pageData struct {
	Title          string
	RefreshSeconds int
	Updated        string
	Board          board.Snapshot
}

// Renderer turns board snapshots into the HTML page.
type Renderer struct {
	title   string
	refresh time.Duration
	loc     *time.Location
}

func NewRenderer(title string, refresh time.Duration, loc *time.Location) *Renderer {
	if loc == nil {
		loc = time.Local
	}
	return &Renderer{title: title, refresh: refresh, loc: loc}
}

func (r *Renderer) Render(w io.Writer, snap board.Snapshot) error {
	data := pageData{
		Title:          r.title,
		RefreshSeconds: int(r.refresh / time.Second),
		Board:          snap,
	}
	if !snap.UpdatedAt.IsZero() {
		data.Updated = snap.UpdatedAt.In(r.loc).Format("02/01/2006 15:04:05")
	}

	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("render board page: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}
