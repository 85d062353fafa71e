// Package extract convierte las páginas HTML de resultados de quizzes de
// Canvas en registros de pregunta.
package extract

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/backsoul/quizreview/pkg/models"
	"golang.org/x/net/html"
)

// NoAnswerText se usa cuando una opción no tiene texto reconocible
const NoAnswerText = "No answer text found."

var (
	courseLabelRe = regexp.MustCompile(`^(.*?)\s*\(([^)]+)\)$`)
	headerRe      = regexp.MustCompile(`^(.+?)\s*Results\s+for\s+(.+)`)
	headerTailRe  = regexp.MustCompile(`\s*Results\s+for.*$`)
	attemptRe     = regexp.MustCompile(`Attempt\s*(\d+)`)
	numberRe      = regexp.MustCompile(`[\d.]+`)
	slugRe        = regexp.MustCompile(`[^a-z0-9]+`)
)

var terms = map[byte]string{'S': "Spring", 'W': "Winter", 'F': "Fall", 'U': "Summer"}

// quizInfo datos comunes a todas las preguntas de una página
type quizInfo struct {
	className string
	class     string
	section   string
	term      string
	year      string
	quizName  string
	firstName string
	lastName  string
	attempt   int
	slug      string
}

// ParseFile lee una página de resultados y copia sus imágenes locales a imagesDir
func ParseFile(htmlPath, imagesDir string) ([]models.QuestionRecord, error) {
	f, err := os.Open(htmlPath)
	if err != nil {
		return nil, fmt.Errorf("error abriendo %s: %w", htmlPath, err)
	}
	defer f.Close()

	return Parse(f, htmlPath, imagesDir)
}

// Parse extrae una pregunta por cada div.display_question. htmlPath se usa
// para resolver las imágenes relativas y como source_file.
func Parse(r io.Reader, htmlPath, imagesDir string) ([]models.QuestionRecord, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("error leyendo HTML de %s: %w", htmlPath, err)
	}

	info := readQuizInfo(doc)
	records := []models.QuestionRecord{}

	doc.Find("div.display_question").Each(func(i int, q *goquery.Selection) {
		number := i + 1

		options, selected := readAnswers(q)
		awarded := readPoints(q.Find("div.user_points").First())
		possible := readPoints(q.Find("span.points.question_points").First())

		var questionID string
		if info.slug != "" && info.attempt > 0 {
			questionID = fmt.Sprintf("%s_att%d_q%02d", info.slug, info.attempt, number)
		}
		imageID := questionID
		if imageID == "" {
			imageID = info.slug
		}
		if imageID == "" {
			imageID = "img"
		}

		record := models.QuestionRecord{
			QuestionNumber:  number,
			QuestionID:      questionID,
			QuizName:        info.quizName,
			Class:           info.class,
			ClassName:       info.className,
			Section:         models.FlexString(info.section),
			Term:            info.term,
			Year:            models.FlexString(info.year),
			FirstName:       info.firstName,
			LastName:        info.lastName,
			Status:          Status(awarded, possible),
			PointsAwarded:   awarded,
			PointsPossible:  possible,
			QuestionBody:    readBody(q.Find("div.question_text").First(), htmlPath, imagesDir, imageID),
			Options:         options,
			SelectedOptions: selected,
			SourceFile:      filepath.Base(htmlPath),
		}
		if info.attempt > 0 {
			record.Attempt = models.FlexString(strconv.Itoa(info.attempt))
		}
		records = append(records, record)
	})

	return records, nil
}

func readQuizInfo(doc *goquery.Document) quizInfo {
	var info quizInfo

	// "Nombre del curso (CODE_NUM_SECTION_S24)"
	crumb := doc.Find("div.ic-app-crumbs nav#breadcrumbs ul li:nth-of-type(2) span.ellipsible").First()
	if m := courseLabelRe.FindStringSubmatch(strippedText(crumb, "")); m != nil {
		info.className = strings.TrimSpace(m[1])
		parts := strings.Split(m[2], "_")
		if len(parts) == 4 && parts[3] != "" {
			info.class = parts[0] + "_" + parts[1]
			info.section = parts[2]
			info.term = terms[parts[3][0]]
			if info.term == "" {
				info.term = "Unknown"
			}
			info.year = parts[3][1:]
		}
	}

	header := doc.Find("header.quiz-header h2").First()
	if header.Length() > 0 {
		full := strippedText(header, " ")
		if m := headerRe.FindStringSubmatch(full); m != nil {
			info.quizName = strings.TrimSpace(m[1])
			name := strings.Fields(m[2])
			if len(name) > 0 {
				info.firstName = name[0]
				info.lastName = strings.Join(name[1:], " ")
			}
		} else {
			info.quizName = strings.TrimSpace(headerTailRe.ReplaceAllString(full, ""))
		}
	}
	info.slug = Slugify(info.quizName)

	if m := attemptRe.FindStringSubmatch(doc.Find("li.quiz_version.selected a").First().Text()); m != nil {
		info.attempt, _ = strconv.Atoi(m[1])
	}
	return info
}

func readAnswers(q *goquery.Selection) ([]string, []string) {
	options := []string{}
	selected := []string{}

	q.Find("div.answer").Each(func(_ int, ans *goquery.Selection) {
		var text string
		input := ans.Find("input.question_input").First()
		value, hasValue := input.Attr("value")

		switch {
		case input.Length() > 0 && hasValue:
			text = strings.TrimSpace(value)
		case ans.Find("select").Length() > 0:
			// pregunta de emparejamiento: "izquierda → opción elegida"
			left := strippedText(ans.Find("div.answer_match_left").First(), "")
			right := strippedText(ans.Find("select").First().Find("option[selected]").First(), "")
			if left != "" || right != "" {
				text = left + " → " + right
			}
		default:
			label := ans.Find("div.answer_text").First()
			if label.Length() == 0 {
				label = ans.Find("div.answer_label").First()
			}
			if label.Length() > 0 {
				text = strippedText(label, " ")
			} else {
				text = NoAnswerText
			}
		}

		text = strings.ReplaceAll(text, "\u00a0", " ")
		options = append(options, text)
		if ans.HasClass("selected_answer") {
			selected = append(selected, text)
		}
	})
	return options, selected
}

func readPoints(s *goquery.Selection) *float64 {
	if s.Length() == 0 {
		return nil
	}
	raw := numberRe.FindString(s.Text())
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

// Status clasifica los puntos: correct si son todos, incorrect si son cero,
// partial en otro caso. Sin puntos devuelve "".
func Status(awarded, possible *float64) string {
	if awarded == nil || possible == nil {
		return ""
	}
	switch {
	case *awarded == *possible:
		return "correct"
	case *awarded == 0:
		return "incorrect"
	default:
		return "partial"
	}
}

// readBody recorre el enunciado en orden de documento. El texto contiguo se
// une en un segmento y cada imagen corta el texto.
func readBody(qt *goquery.Selection, htmlPath, imagesDir, imageID string) []models.Segment {
	body := []models.Segment{}
	if qt.Length() == 0 {
		return body
	}

	var buf []string
	flush := func() {
		if text := strings.TrimSpace(strings.Join(buf, " ")); text != "" {
			body = append(body, models.Segment{Type: models.SegmentText, Text: text})
		}
		buf = buf[:0]
	}

	imgIdx := 1
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch {
			case c.Type == html.TextNode:
				if text := strings.TrimSpace(c.Data); text != "" {
					buf = append(buf, text)
				}
			case c.Type == html.ElementNode && c.Data == "img":
				flush()
				ref := imageRef(c, htmlPath, imagesDir, imageID, imgIdx)
				if ref != "" {
					body = append(body, models.Segment{Type: models.SegmentImage, Src: ref})
					imgIdx++
				}
			case c.Type == html.ElementNode:
				walk(c)
			}
		}
	}
	for _, n := range qt.Nodes {
		walk(n)
	}
	flush()
	return body
}

func imageRef(img *html.Node, htmlPath, imagesDir, imageID string, idx int) string {
	src := attr(img, "src")
	if src == "" {
		src = attr(img, "data-src")
	}
	if src == "" {
		return ""
	}
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return src
	}

	if unescaped, err := url.PathUnescape(src); err == nil {
		src = unescaped
	}
	orig := filepath.Join(filepath.Dir(htmlPath), filepath.FromSlash(src))
	name, err := CopyImage(orig, imagesDir, imageID, idx)
	if err != nil {
		return ""
	}
	return name
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// strippedText une los nodos de texto recortados y no vacíos con sep
func strippedText(s *goquery.Selection, sep string) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				parts = append(parts, text)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return strings.Join(parts, sep)
}

// Slugify pasa a minúsculas y reemplaza todo lo que no sea [a-z0-9] por guiones
func Slugify(text string) string {
	return strings.Trim(slugRe.ReplaceAllString(strings.ToLower(text), "-"), "-")
}
