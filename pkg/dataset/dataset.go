package dataset

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/backsoul/quizreview/pkg/models"
	"github.com/valyala/fasthttp"
)

// Store contiene la lista completa de registros. No se modifica tras la carga.
type Store struct {
	records []models.QuestionRecord
}

// NewStore crea un store a partir de los registros ya parseados
func NewStore(records []models.QuestionRecord) *Store {
	return &Store{records: records}
}

// Records devuelve los registros en su orden original
func (s *Store) Records() []models.QuestionRecord {
	return s.records
}

// Len número total de registros
func (s *Store) Len() int {
	return len(s.records)
}

// Load obtiene el JSON desde un archivo local o una URL http(s) y lo parsea
func Load(source string) (*Store, error) {
	log.Printf("📂 Cargando registros desde: %s", source)

	var (
		data []byte
		err  error
	)
	if isRemote(source) {
		data, err = fetch(source)
	} else {
		data, err = os.ReadFile(source)
		if err != nil {
			err = fmt.Errorf("error leyendo archivo JSON: %w", err)
		}
	}
	if err != nil {
		return nil, err
	}

	store, err := Parse(data)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ %d registros cargados", store.Len())
	return store, nil
}

// Parse decodifica un arreglo JSON de registros
func Parse(data []byte) (*Store, error) {
	var records []models.QuestionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("error parsing JSON: %w", err)
	}
	return NewStore(records), nil
}

func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// fetch hace una única petición GET, sin reintentos
func fetch(url string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	if err := fasthttp.Do(req, resp); err != nil {
		return nil, fmt.Errorf("error obteniendo %s: %w", url, err)
	}
	if code := resp.StatusCode(); code < 200 || code > 299 {
		return nil, fmt.Errorf("error obteniendo %s: status %d", url, code)
	}

	// El cuerpo pertenece a resp, se copia antes de liberarlo
	body := append([]byte(nil), resp.Body()...)
	return body, nil
}
