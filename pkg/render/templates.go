package render

import "html/template"

type selectData struct {
	ID      string
	Facet   string
	Choices []Choice
}

var funcs = template.FuncMap{
	"facet": func(id, name string, choices []Choice) selectData {
		return selectData{ID: id, Facet: name, Choices: choices}
	},
	// El HTML de resultados ya fue generado y escapado por la plantilla "results"
	"rendered": func(s string) template.HTML {
		return template.HTML(s)
	},
}

var templates = template.Must(template.New("viewer").Funcs(funcs).Parse(resultsHTML + pageHTML))

const resultsHTML = `{{define "results"}}{{range .}}<div class="question">
  <h2>{{.Header}}</h2>
  <p><span class="status {{.Status}}">{{.Badge}}</span> — {{.Points}} pts</p>
  {{range .Segments}}{{if .Image}}<img src="{{.Src}}" alt="{{.Alt}}">{{else}}<p>{{.Text}}</p>{{end}}
  {{end}}<ul class="options">{{range .Options}}
    <li{{if .Class}} class="{{.Class}}"{{end}}>{{.Text}}</li>{{end}}
  </ul>
</div>
{{end}}{{end}}`

const pageHTML = `{{define "select"}}<select id="{{.ID}}" multiple data-facet="{{.Facet}}">{{range .Choices}}
      <option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Value}}</option>{{end}}
    </select>{{end}}
{{define "page"}}<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Quiz Review</title>
  <style>
    body { font-family: "Segoe UI", "Helvetica Neue", sans-serif; margin: 0; padding: 24px; background: #f8fafc; color: #0f172a; }
    body.dark { background: #0f172a; color: #e2e8f0; }
    .panel { border: 1px solid #cbd5e1; border-radius: 12px; padding: 12px 16px; margin-bottom: 16px; }
    .panel header { display: flex; justify-content: space-between; align-items: center; }
    #filter-content.collapsed { display: none; }
    .filters { display: grid; grid-template-columns: repeat(auto-fill, minmax(200px, 1fr)); gap: 12px; }
    .filters select { width: 100%; min-height: 120px; }
    .question { border-bottom: 1px solid #e2e8f0; padding: 12px 0; }
    .question h2 { font-size: 1rem; }
    .status { padding: 2px 8px; border-radius: 8px; font-weight: 600; }
    .status.correct, li.correct { color: #047857; }
    .status.incorrect, li.incorrect { color: #be123c; }
    .status.partial, li.partial { color: #b45309; }
    li.correct, li.incorrect, li.partial { font-weight: 600; }
    img { max-width: 100%; }
  </style>
</head>
<body>
  <div class="panel">
    <header>
      <strong>Filters</strong>
      <span>
        <button id="toggle-theme" type="button">Theme</button>
        <button id="filter-toggle" type="button">{{.Glyph}}</button>
      </span>
    </header>
    <div id="filter-content"{{if .Collapsed}} class="collapsed"{{end}}>
    {{if not .LoadError}}
      <p>
        <input id="filter-search" type="search" placeholder="Search questions and options" value="{{.Search}}">
        <button class="clear-btn" data-filter="filter-search" type="button">clear</button>
      </p>
      <div class="filters">
        <label>Question {{template "select" (facet "filter-question" "question" .Options.Questions)}}
          <button class="clear-btn" data-filter="filter-question" type="button">clear</button></label>
        <label>Class {{template "select" (facet "filter-class" "class" .Options.Classes)}}
          <button class="clear-btn" data-filter="filter-class" type="button">clear</button></label>
        <label>Quiz {{template "select" (facet "filter-quiz" "quiz" .Options.Quizzes)}}
          <button class="clear-btn" data-filter="filter-quiz" type="button">clear</button></label>
        <label>User {{template "select" (facet "filter-user" "user" .Options.Users)}}
          <button class="clear-btn" data-filter="filter-user" type="button">clear</button></label>
        <label>Status {{template "select" (facet "filter-status" "status" .Options.Statuses)}}
          <button class="clear-btn" data-filter="filter-status" type="button">clear</button></label>
      </div>
      <p>
        <label><input id="filter-selected-only" type="checkbox"{{if .SelectedOnly}} checked{{end}}> Selected options only</label>
        <button class="clear-btn" data-filter="filter-selected-only" type="button">clear</button>
        <button id="clear-filters" type="button">Clear all filters</button>
        <a id="export-link" href="/api/export.xlsx?{{.Query}}">Export .xlsx</a>
      </p>
    {{end}}
    </div>
  </div>
  <p id="result-count">{{.Results.CountLine}}</p>
  <div id="quiz-container">{{if .LoadError}}{{.LoadError}}{{else}}{{rendered .Results.HTML}}{{end}}</div>
  <script>
    const getEl = id => document.getElementById(id);
    getEl('toggle-theme').addEventListener('click', () => document.body.classList.toggle('dark'));
  </script>
  {{if not .LoadError}}<script>
    const facets = {
      'filter-question': 'question', 'filter-quiz': 'quiz', 'filter-class': 'class',
      'filter-user': 'user', 'filter-status': 'status',
      'filter-search': 'search', 'filter-selected-only': 'selected-only'
    };
    const proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
    const ws = new WebSocket(proto + location.host + '/ws');
    const send = ev => ws.send(JSON.stringify(ev));

    const fillSelect = (id, choices) => {
      const sel = getEl(id);
      sel.innerHTML = '';
      (choices || []).forEach(c => sel.append(new Option(c.value, c.value, false, c.selected)));
    };

    ws.addEventListener('message', e => {
      const msg = JSON.parse(e.data);
      if (msg.type === 'view') {
        const v = msg.data;
        fillSelect('filter-question', v.choices.questions);
        fillSelect('filter-quiz', v.choices.quizzes);
        fillSelect('filter-class', v.choices.classes);
        fillSelect('filter-user', v.choices.users);
        fillSelect('filter-status', v.choices.statuses);
        getEl('filter-search').value = v.selection.search;
        getEl('filter-selected-only').checked = v.selection.selectedOnly;
        getEl('result-count').textContent = v.results.countLine;
        getEl('quiz-container').innerHTML = v.results.html;
        getEl('export-link').href = '/api/export.xlsx?' + v.query;
        history.replaceState(null, '', '?' + v.query);
      } else if (msg.type === 'panel') {
        getEl('filter-content').classList.toggle('collapsed', msg.data.collapsed);
        getEl('filter-toggle').textContent = msg.data.glyph;
      } else if (msg.type === 'error') {
        console.error(msg.data);
      }
    });

    ['filter-question', 'filter-quiz', 'filter-class', 'filter-user', 'filter-status'].forEach(id =>
      getEl(id).addEventListener('change', () => send({
        type: 'select', facet: facets[id],
        values: Array.from(getEl(id).selectedOptions).map(o => o.value)
      })));
    getEl('filter-search').addEventListener('change', () => send({ type: 'search', value: getEl('filter-search').value }));
    getEl('filter-selected-only').addEventListener('change', () => send({ type: 'selectedOnly', checked: getEl('filter-selected-only').checked }));
    getEl('clear-filters').addEventListener('click', () => send({ type: 'clear' }));
    document.querySelectorAll('.clear-btn').forEach(btn =>
      btn.addEventListener('click', () => send({ type: 'clearFacet', facet: facets[btn.dataset.filter] })));
    getEl('filter-toggle').addEventListener('click', () => send({ type: 'togglePanel' }));
  </script>{{end}}
</body>
</html>{{end}}`
