package services

import (
	"fmt"
	"io"
	"strings"

	"github.com/backsoul/quizreview/pkg/models"
	"github.com/xuri/excelize/v2"
)

// ExportSheet nombre de la hoja del libro exportado
const ExportSheet = "Questions"

var exportHeader = []interface{}{
	"Question", "Quiz", "Class", "Attempt", "First name", "Last name",
	"Status", "Points awarded", "Points possible", "Question text", "Options", "Selected options",
}

// ExportService genera libros xlsx con el subconjunto filtrado
type ExportService struct{}

// NewExportService crea una nueva instancia del servicio
func NewExportService() *ExportService {
	return &ExportService{}
}

// Workbook construye un libro con una fila por registro. El llamador debe
// cerrar el archivo.
func (s *ExportService) Workbook(records []models.QuestionRecord) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), ExportSheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("error creando hoja: %w", err)
	}

	if err := f.SetSheetRow(ExportSheet, "A1", &exportHeader); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("error escribiendo encabezado: %w", err)
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		row := []interface{}{
			r.QuestionNumber, r.QuizName, r.Class, string(r.Attempt), r.FirstName, r.LastName,
			r.Status, points(r.PointsAwarded), points(r.PointsPossible),
			questionText(r), strings.Join(r.Options, "\n"), strings.Join(r.SelectedOptions, "\n"),
		}
		if err := f.SetSheetRow(ExportSheet, cell, &row); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("error escribiendo fila %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(ExportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("error fijando encabezado: %w", err)
	}

	return f, nil
}

// WriteWorkbook escribe el libro directamente en w
func (s *ExportService) WriteWorkbook(w io.Writer, records []models.QuestionRecord) error {
	f, err := s.Workbook(records)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("error escribiendo xlsx: %w", err)
	}
	return nil
}

func points(p *float64) interface{} {
	if p == nil {
		return ""
	}
	return *p
}

func questionText(r models.QuestionRecord) string {
	parts := []string{}
	for _, seg := range r.QuestionBody {
		if seg.Type == models.SegmentText {
			parts = append(parts, seg.Text)
		}
	}
	return strings.Join(parts, "\n")
}
