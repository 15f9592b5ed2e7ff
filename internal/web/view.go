package web

import (
	"bytes"
	"html/template"
	"net/http"

	appLog "sectioncal/internal/log"
	"sectioncal/internal/model"
	"sectioncal/internal/sheet"
)

// viewTemplate renders a section's weekly grid as a standalone page. The
// root element carries data-ready="true" once rendered; snapshot capture
// waits for it.
var viewTemplate = template.Must(template.New("view").Funcs(template.FuncMap{
	"cell": sheet.CellText,
	"isMeal": func(o *model.Occupant) bool {
		return o != nil && o.Kind == model.KindMeal
	},
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Section}} weekly schedule</title>
<style>
body { font-family: sans-serif; margin: 16px; }
table { border-collapse: collapse; width: 100%; table-layout: fixed; }
th, td { border: 1px solid #b7b7b7; padding: 6px; text-align: center; vertical-align: middle; white-space: pre-line; font-size: 13px; }
th { background: #dce6f1; }
td.time { font-weight: bold; }
td.meal { background: #fcebd2; }
</style>
</head>
<body>
<div id="grid" data-section="{{.Section}}" data-ready="true">
<h1>{{.Section}}</h1>
{{if .Rows}}<table>
<thead><tr><th>Time</th>{{range .Days}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{range .Rows}}<tr><td class="time">{{.Time}}</td>{{range .Days}}<td{{if isMeal .}} class="meal"{{end}}>{{cell .}}</td>{{end}}</tr>
{{end}}</tbody>
</table>{{else}}<p>No classes or meals scheduled.</p>{{end}}
</div>
</body>
</html>
`))

type viewData struct {
	Section string
	Days    []string
	Rows    []model.WeeklySlot
}

// handleView renders the grid server-side.
//
// GET /view?section=S01
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	res, code, slots, ok := s.lookupGrid(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := viewTemplate.Execute(&buf, viewData{Section: code, Days: res.Days(), Rows: slots}); err != nil {
		appLog.Error("view render failed", err, "section", code)
		http.Error(w, "failed to render view", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
