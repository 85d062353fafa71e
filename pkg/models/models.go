package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Tipos de segmento dentro de question_body
const (
	SegmentText  = "text"
	SegmentImage = "image"
)

// Segment es una parte del enunciado: texto o imagen
type Segment struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	Src  string `json:"src,omitempty"`
	Alt  string `json:"alt,omitempty"`
}

// FlexString acepta tanto strings como números en el JSON (el extractor
// escribe "attempt" y "year" como enteros)
type FlexString string

// UnmarshalJSON implementa json.Unmarshaler
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// QuestionRecord representa un intento de pregunta extraído de un quiz
type QuestionRecord struct {
	QuestionNumber  int        `json:"question_number"`
	QuestionID      string     `json:"question_id,omitempty"`
	QuizName        string     `json:"quiz_name"`
	Class           string     `json:"class"`
	ClassName       string     `json:"class_name,omitempty"`
	Section         FlexString `json:"section,omitempty"`
	Term            string     `json:"term,omitempty"`
	Year            FlexString `json:"year,omitempty"`
	Attempt         FlexString `json:"attempt"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	Status          string     `json:"status"`
	PointsAwarded   *float64   `json:"points_awarded"`
	PointsPossible  *float64   `json:"points_possible"`
	QuestionBody    []Segment  `json:"question_body"`
	Options         []string   `json:"options"`
	SelectedOptions []string   `json:"selected_options"`
	SourceFile      string     `json:"source_file,omitempty"`
}

// FullName devuelve "Nombre Apellido", la clave del filtro de usuario
func (q QuestionRecord) FullName() string {
	return q.FirstName + " " + q.LastName
}

// TextCorpus une los segmentos de texto y las opciones en minúsculas.
// El texto alternativo de las imágenes no forma parte del corpus.
func (q QuestionRecord) TextCorpus() string {
	parts := make([]string, 0, len(q.QuestionBody)+len(q.Options))
	for _, seg := range q.QuestionBody {
		if seg.Type == SegmentText {
			parts = append(parts, seg.Text)
		}
	}
	parts = append(parts, q.Options...)
	return strings.ToLower(strings.Join(parts, " "))
}

// IsSelected indica si el encuestado eligió la opción
func (q QuestionRecord) IsSelected(option string) bool {
	for _, sel := range q.SelectedOptions {
		if sel == option {
			return true
		}
	}
	return false
}

// APIResponse estructura estándar para respuestas de API
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// QuestionResponse respuesta con preguntas filtradas
type QuestionResponse struct {
	Questions []QuestionRecord `json:"questions"`
	Count     int              `json:"count"`
	Total     int              `json:"total"`
	Query     string           `json:"query,omitempty"`
	CountLine string           `json:"countLine,omitempty"`
}
