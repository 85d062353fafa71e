package filter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/backsoul/quizreview/pkg/models"
	"github.com/valyala/fasthttp"
)

// Claves de la query string, en el orden en que se escriben
const (
	ParamQuestion = "question"
	ParamQuiz     = "quiz"
	ParamClass    = "class"
	ParamUser     = "user"
	ParamStatus   = "status"
	ParamSearch   = "search"
)

// Query serializa la selección a la query string que el navegador aplica con
// history.replaceState. Cada valor repite su clave; search sólo si no está vacío.
func (s Selection) Query() string {
	args := fasthttp.AcquireArgs()
	defer fasthttp.ReleaseArgs(args)

	for _, n := range s.Questions {
		args.Add(ParamQuestion, strconv.Itoa(n))
	}
	for _, v := range s.Quizzes {
		args.Add(ParamQuiz, v)
	}
	for _, v := range s.Classes {
		args.Add(ParamClass, v)
	}
	for _, v := range s.Users {
		args.Add(ParamUser, v)
	}
	for _, v := range s.Statuses {
		args.Add(ParamStatus, strings.ToLower(v))
	}
	if q := s.NormalizedSearch(); q != "" {
		args.Add(ParamSearch, q)
	}
	return args.String()
}

// SelectionFromArgs construye una selección a partir de argumentos de query,
// usado por la API y la exportación. Una clave ausente selecciona todos los
// valores ofrecidos; los quizzes ofrecidos dependen de las clases elegidas.
func SelectionFromArgs(records []models.QuestionRecord, args *fasthttp.Args) (Selection, error) {
	offered := DeriveFacets(records)
	sel := AllSelected(offered)

	if args.Has(ParamClass) {
		sel.Classes = multi(args, ParamClass)
	}
	sel.Quizzes = QuizzesForClasses(records, sel.Classes)
	if args.Has(ParamQuiz) {
		sel.Quizzes = multi(args, ParamQuiz)
	}
	if args.Has(ParamQuestion) {
		sel.Questions = []int{}
		for _, v := range multi(args, ParamQuestion) {
			n, err := strconv.Atoi(v)
			if err != nil {
				return Selection{}, fmt.Errorf("parámetro 'question' inválido %q: %w", v, err)
			}
			sel.Questions = append(sel.Questions, n)
		}
	}
	if args.Has(ParamUser) {
		sel.Users = multi(args, ParamUser)
	}
	if args.Has(ParamStatus) {
		sel.Statuses = multi(args, ParamStatus)
	}
	sel.Search = string(args.Peek(ParamSearch))
	return sel, nil
}

func multi(args *fasthttp.Args, key string) []string {
	raw := args.PeekMulti(key)
	values := make([]string, 0, len(raw))
	for _, v := range raw {
		values = append(values, string(v))
	}
	return values
}
