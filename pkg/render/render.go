package render

import (
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"

	"github.com/backsoul/quizreview/pkg/filter"
	"github.com/backsoul/quizreview/pkg/models"
	"github.com/valyala/bytebufferpool"
)

// AssetBase ruta base de las imágenes de los enunciados
const AssetBase = "/_OUTPUT/_images/"

// NoResults mensaje mostrado cuando ningún registro coincide
const NoResults = "No questions match the selected filters."

// Result salida del renderizado de una lista de registros
type Result struct {
	CountLine string `json:"countLine"`
	HTML      string `json:"html"`
	Matched   int    `json:"matched"`
	Total     int    `json:"total"`
}

type optionView struct {
	Text  string
	Class string
}

type segmentView struct {
	Text  string
	Image bool
	Src   string
	Alt   string
}

type questionView struct {
	Header   string
	Status   string
	Badge    string
	Points   string
	Segments []segmentView
	Options  []optionView
}

// CountLine "Showing k of N questions"
func CountLine(matched, total int) string {
	return fmt.Sprintf("Showing %d of %d questions", matched, total)
}

// Results renderiza los registros coincidentes. Con selectedOnly sólo se
// listan las opciones elegidas por el encuestado.
func Results(records []models.QuestionRecord, total int, selectedOnly bool) (Result, error) {
	res := Result{
		CountLine: CountLine(len(records), total),
		Matched:   len(records),
		Total:     total,
	}
	if len(records) == 0 {
		res.HTML = template.HTMLEscapeString(NoResults)
		return res, nil
	}

	views := make([]questionView, 0, len(records))
	for _, r := range records {
		views = append(views, toView(r, selectedOnly))
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if err := templates.ExecuteTemplate(buf, "results", views); err != nil {
		return Result{}, fmt.Errorf("error renderizando resultados: %w", err)
	}
	res.HTML = buf.String()
	return res, nil
}

// LoadError mensaje que reemplaza el área de resultados si la carga falló
func LoadError(err error) string {
	return "❌ Failed to load JSON: " + err.Error()
}

// PageData datos de la página completa
type PageData struct {
	Options      OptionsView
	Results      Result
	Search       string
	SelectedOnly bool
	Collapsed    bool
	Glyph        string
	Query        template.URL
	LoadError    string
}

// OptionsView valores de cada select con su marca de selección
type OptionsView struct {
	Questions []Choice `json:"questions"`
	Quizzes   []Choice `json:"quizzes"`
	Classes   []Choice `json:"classes"`
	Users     []Choice `json:"users"`
	Statuses  []Choice `json:"statuses"`
}

// Choice una opción de un select múltiple
type Choice struct {
	Value    string `json:"value"`
	Selected bool   `json:"selected"`
}

// Choices marca como seleccionados los valores presentes en selected
func Choices(offered, selected []string) []Choice {
	set := make(map[string]bool, len(selected))
	for _, s := range selected {
		set[s] = true
	}
	out := make([]Choice, 0, len(offered))
	for _, v := range offered {
		out = append(out, Choice{Value: v, Selected: set[v]})
	}
	return out
}

// Page escribe la página completa del visor
func Page(w io.Writer, data PageData) error {
	if err := templates.ExecuteTemplate(w, "page", data); err != nil {
		return fmt.Errorf("error renderizando página: %w", err)
	}
	return nil
}

func toView(r models.QuestionRecord, selectedOnly bool) questionView {
	v := questionView{
		Header: fmt.Sprintf(`Question %d – Quiz: "%s" – Class: "%s" – Attempt: "%s" – %s, %s`,
			r.QuestionNumber, r.QuizName, r.Class, string(r.Attempt), r.FirstName, r.LastName),
		Status: r.Status,
		Badge:  strings.ToUpper(r.Status),
		Points: formatPoints(r.PointsAwarded) + "/" + formatPoints(r.PointsPossible),
	}

	for _, seg := range r.QuestionBody {
		switch seg.Type {
		case models.SegmentText:
			v.Segments = append(v.Segments, segmentView{Text: seg.Text})
		case models.SegmentImage:
			v.Segments = append(v.Segments, segmentView{Image: true, Src: ImageURL(seg.Src), Alt: seg.Alt})
		}
	}

	for _, opt := range r.Options {
		selected := r.IsSelected(opt)
		if selectedOnly && !selected {
			continue
		}
		ov := optionView{Text: opt}
		if selected {
			ov.Class = outcomeClass(r.Status)
			ov.Text += " ← your answer"
		}
		v.Options = append(v.Options, ov)
	}
	return v
}

// ImageURL resuelve una referencia de imagen contra AssetBase; las URLs
// absolutas se dejan tal cual
func ImageURL(src string) string {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return src
	}
	return AssetBase + strings.TrimPrefix(src, "/")
}

func outcomeClass(status string) string {
	switch strings.ToLower(status) {
	case "correct":
		return "correct"
	case "incorrect":
		return "incorrect"
	default:
		return "partial"
	}
}

func formatPoints(p *float64) string {
	if p == nil {
		return "-"
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}

// NewOptionsView combina valores ofrecidos y seleccionados de cada faceta
func NewOptionsView(opts filter.Options, sel filter.Selection) OptionsView {
	return OptionsView{
		Questions: Choices(intStrings(opts.Questions), intStrings(sel.Questions)),
		Quizzes:   Choices(opts.Quizzes, sel.Quizzes),
		Classes:   Choices(opts.Classes, sel.Classes),
		Users:     Choices(opts.Users, sel.Users),
		Statuses:  Choices(opts.Statuses, sel.Statuses),
	}
}

func intStrings(values []int) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strconv.Itoa(v))
	}
	return out
}
