package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/backsoul/quizreview/pkg/dataset"
	"github.com/backsoul/quizreview/pkg/models"
	"github.com/backsoul/quizreview/pkg/services"
	websocketHub "github.com/backsoul/quizreview/pkg/websocket"
	"github.com/fasthttp/websocket"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
	"github.com/xuri/excelize/v2"
)

func sampleStore() *dataset.Store {
	return dataset.NewStore([]models.QuestionRecord{
		{
			QuestionNumber: 1, QuizName: "Quiz A1", Class: "A", Attempt: "1",
			FirstName: "Ada", LastName: "Lovelace", Status: "correct",
			QuestionBody: []models.Segment{{Type: models.SegmentText, Text: "Two plus two?"}},
			Options:      []string{"3", "4"}, SelectedOptions: []string{"4"},
		},
		{
			QuestionNumber: 2, QuizName: "Quiz B1", Class: "B", Attempt: "1",
			FirstName: "Alan", LastName: "Turing", Status: "incorrect",
			QuestionBody: []models.Segment{{Type: models.SegmentText, Text: "Capital of Italy?"}},
			Options:      []string{"Rome", "Milan"}, SelectedOptions: []string{"Milan"},
		},
		{
			QuestionNumber: 3, QuizName: "Quiz B2", Class: "B", Attempt: "2",
			FirstName: "Grace", LastName: "Hopper", Status: "partial",
			QuestionBody: []models.Segment{{Type: models.SegmentText, Text: "Pick the vowels"}},
			Options:      []string{"a", "b", "e"}, SelectedOptions: []string{"a"},
		},
	})
}

type testServer struct {
	ln     *fasthttputil.InmemoryListener
	client *fasthttp.Client
	prefs  *services.PreferenceService
}

func newTestServer(t *testing.T, store *dataset.Store, loadErr error) *testServer {
	t.Helper()

	viewer := services.NewViewerService(store, loadErr)
	prefs := services.NewPreferenceService(services.NewMemoryPanelStore())
	hub := websocketHub.NewHub()
	go hub.Run()

	vh := NewViewerHandler(viewer, prefs, nil)
	sh := NewSocketHandler(viewer, prefs, hub)
	eh := NewExportHandler(viewer, services.NewExportService())

	handler := func(ctx *fasthttp.RequestCtx) {
		switch string(ctx.Path()) {
		case "/":
			vh.Page(ctx)
		case "/api/health":
			vh.HealthCheck(ctx)
		case "/api/questions":
			vh.GetAllQuestions(ctx)
		case "/api/facets":
			vh.GetFacets(ctx)
		case "/api/filter":
			vh.Filter(ctx)
		case "/api/export.xlsx":
			eh.Export(ctx)
		case "/ws":
			sh.HandleWebSocket(ctx)
		default:
			ctx.SetStatusCode(fasthttp.StatusNotFound)
		}
	}

	ln := fasthttputil.NewInmemoryListener()
	go func() { _ = fasthttp.Serve(ln, handler) }()
	t.Cleanup(func() { _ = ln.Close() })

	return &testServer{
		ln:    ln,
		prefs: prefs,
		client: &fasthttp.Client{
			Dial: func(addr string) (net.Conn, error) { return ln.Dial() },
		},
	}
}

func (ts *testServer) do(t *testing.T, method, uri string, body []byte) *fasthttp.Response {
	t.Helper()
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI("http://viewer.test" + uri)
	req.Header.SetMethod(method)
	if body != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}

	resp := &fasthttp.Response{}
	if err := ts.client.DoTimeout(req, resp, 5*time.Second); err != nil {
		t.Fatalf("%s %s: %v", method, uri, err)
	}
	return resp
}

func decodeAPI(t *testing.T, resp *fasthttp.Response, data interface{}) models.APIResponse {
	t.Helper()
	var envelope struct {
		models.APIResponse
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		t.Fatalf("decode: %v (%s)", err, resp.Body())
	}
	if data != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, data); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
	return envelope.APIResponse
}

func TestPageSetsViewerCookie(t *testing.T) {
	ts := newTestServer(t, sampleStore(), nil)

	resp := ts.do(t, fasthttp.MethodGet, "/", nil)
	if resp.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode())
	}
	body := string(resp.Body())
	if !strings.Contains(body, "Showing 3 of 3 questions") {
		t.Fatal("expected count line on initial page")
	}
	if !strings.Contains(body, `<option value="Quiz B2" selected>`) {
		t.Fatal("expected quizzes selected by default")
	}

	cookie := fasthttp.AcquireCookie()
	defer fasthttp.ReleaseCookie(cookie)
	cookie.SetKey(ViewerCookie)
	if !resp.Header.Cookie(cookie) {
		t.Fatal("expected viewer cookie")
	}
	if _, err := uuid.ParseBytes(cookie.Value()); err != nil {
		t.Fatalf("viewer id is not a uuid: %q", cookie.Value())
	}
}

func TestPageLoadFailure(t *testing.T) {
	ts := newTestServer(t, nil, errors.New("open data.json: no such file or directory"))

	resp := ts.do(t, fasthttp.MethodGet, "/", nil)
	body := string(resp.Body())
	if !strings.Contains(body, "❌ Failed to load JSON: open data.json: no such file or directory") {
		t.Fatalf("expected load error in page, got %s", body)
	}

	resp = ts.do(t, fasthttp.MethodGet, "/api/questions", nil)
	if resp.StatusCode() != fasthttp.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode())
	}
	if api := decodeAPI(t, resp, nil); api.Success {
		t.Fatal("expected failure envelope")
	}
}

func TestFilterEndpoint(t *testing.T) {
	ts := newTestServer(t, sampleStore(), nil)

	sel := map[string]interface{}{
		"questions": []int{1, 2, 3},
		"quizzes":   []string{"Quiz A1", "Quiz B1", "Quiz B2"},
		"classes":   []string{"B"},
		"users":     []string{"Ada Lovelace", "Alan Turing", "Grace Hopper"},
		"statuses":  []string{"correct", "incorrect", "partial"},
		"search":    "VOWELS",
	}
	body, _ := json.Marshal(sel)

	resp := ts.do(t, fasthttp.MethodPost, "/api/filter", body)
	if resp.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode(), resp.Body())
	}
	var result models.QuestionResponse
	decodeAPI(t, resp, &result)
	if result.Count != 1 || result.Questions[0].QuizName != "Quiz B2" {
		t.Fatalf("unexpected result %+v", result)
	}
	if !strings.HasSuffix(result.Query, "search=vowels") {
		t.Fatalf("unexpected query %q", result.Query)
	}

	resp = ts.do(t, fasthttp.MethodPost, "/api/filter", []byte("{"))
	if resp.StatusCode() != fasthttp.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode())
	}
}

func TestFacetsEndpoint(t *testing.T) {
	ts := newTestServer(t, sampleStore(), nil)

	resp := ts.do(t, fasthttp.MethodGet, "/api/facets?class=B", nil)
	var opts struct {
		Quizzes []string `json:"quizzes"`
		Classes []string `json:"classes"`
	}
	decodeAPI(t, resp, &opts)
	if strings.Join(opts.Quizzes, ",") != "Quiz B1,Quiz B2" {
		t.Fatalf("unexpected quizzes %v", opts.Quizzes)
	}
	if strings.Join(opts.Classes, ",") != "A,B" {
		t.Fatalf("unexpected classes %v", opts.Classes)
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t, sampleStore(), nil)

	resp := ts.do(t, fasthttp.MethodGet, "/api/health", nil)
	if resp.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode())
	}
	if api := decodeAPI(t, resp, nil); !api.Success {
		t.Fatalf("unexpected envelope %+v", api)
	}
}

func TestExportEndpoint(t *testing.T) {
	ts := newTestServer(t, sampleStore(), nil)

	resp := ts.do(t, fasthttp.MethodGet, "/api/export.xlsx?class=B&status=incorrect", nil)
	if resp.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode(), resp.Body())
	}
	if ct := string(resp.Header.ContentType()); ct != xlsxContentType {
		t.Fatalf("unexpected content type %q", ct)
	}

	f, err := excelize.OpenReader(bytes.NewReader(resp.Body()))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(services.ExportSheet)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 2 || rows[1][1] != "Quiz B1" {
		t.Fatalf("unexpected rows %v", rows)
	}

	resp = ts.do(t, fasthttp.MethodGet, "/api/export.xlsx?question=x", nil)
	if resp.StatusCode() != fasthttp.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode())
	}
}

func dialSocket(t *testing.T, ts *testServer, viewerID string) *websocket.Conn {
	t.Helper()
	dialer := websocket.Dialer{
		NetDial:          func(network, addr string) (net.Conn, error) { return ts.ln.Dial() },
		HandshakeTimeout: 5 * time.Second,
	}
	header := http.Header{}
	header.Set("Cookie", ViewerCookie+"="+viewerID)

	conn, _, err := dialer.Dial("ws://viewer.test/ws", header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

type socketMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func readMessage(t *testing.T, conn *websocket.Conn) socketMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg socketMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func readView(t *testing.T, conn *websocket.Conn) services.View {
	t.Helper()
	msg := readMessage(t, conn)
	if msg.Type != models.MessageView {
		t.Fatalf("expected view message, got %s: %s", msg.Type, msg.Data)
	}
	var view services.View
	if err := json.Unmarshal(msg.Data, &view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	return view
}

func TestWebSocketDispatch(t *testing.T) {
	ts := newTestServer(t, sampleStore(), nil)
	conn := dialSocket(t, ts, uuid.New().String())

	initial := readView(t, conn)
	if initial.Results.CountLine != "Showing 3 of 3 questions" {
		t.Fatalf("unexpected initial count %q", initial.Results.CountLine)
	}

	if err := conn.WriteJSON(models.ViewerEvent{Type: models.EventSelect, Facet: "class", Values: []string{"B"}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	view := readView(t, conn)
	if view.Results.CountLine != "Showing 2 of 3 questions" {
		t.Fatalf("unexpected count %q", view.Results.CountLine)
	}
	if len(view.Choices.Quizzes) != 2 {
		t.Fatalf("quiz facet not narrowed: %+v", view.Choices.Quizzes)
	}
	if !strings.Contains(view.Query, "class=B") {
		t.Fatalf("unexpected query %q", view.Query)
	}

	if err := conn.WriteJSON(models.ViewerEvent{Type: models.EventSelect, Facet: "nope"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if msg := readMessage(t, conn); msg.Type != models.MessageError {
		t.Fatalf("expected error message, got %s", msg.Type)
	}

	// El estado sobrevive al evento inválido
	if err := conn.WriteJSON(models.ViewerEvent{Type: models.EventSelectedOnly, Checked: true}); err != nil {
		t.Fatalf("write: %v", err)
	}
	view = readView(t, conn)
	if view.Results.Matched != 2 || !view.Selection.SelectedOnly {
		t.Fatalf("unexpected view after selected-only: %+v", view.Selection)
	}
}

func TestWebSocketTogglePanelReachesAllTabs(t *testing.T) {
	ts := newTestServer(t, sampleStore(), nil)
	id := uuid.New().String()

	first := dialSocket(t, ts, id)
	readView(t, first)
	second := dialSocket(t, ts, id)
	readView(t, second)

	if err := first.WriteJSON(models.ViewerEvent{Type: models.EventTogglePanel}); err != nil {
		t.Fatalf("write: %v", err)
	}

	for _, conn := range []*websocket.Conn{first, second} {
		msg := readMessage(t, conn)
		if msg.Type != models.MessagePanel {
			t.Fatalf("expected panel message, got %s", msg.Type)
		}
		var panel models.PanelState
		if err := json.Unmarshal(msg.Data, &panel); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !panel.Collapsed || panel.Glyph != "+" {
			t.Fatalf("unexpected panel %+v", panel)
		}
	}

	resp := ts.do(t, fasthttp.MethodGet, "/", nil)
	if strings.Contains(string(resp.Body()), `class="collapsed"`) {
		t.Fatal("a different viewer should see the panel open")
	}
}

func TestWebSocketStalledTabDoesNotBlockOthers(t *testing.T) {
	ts := newTestServer(t, sampleStore(), nil)
	id := uuid.New().String()

	// stalled nunca lee después de conectarse
	dialSocket(t, ts, id)
	active := dialSocket(t, ts, id)
	readView(t, active)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 60; i++ {
			if err := active.WriteJSON(models.ViewerEvent{Type: models.EventTogglePanel}); err != nil {
				return
			}
			_ = active.SetReadDeadline(time.Now().Add(5 * time.Second))
			var msg socketMessage
			if err := active.ReadJSON(&msg); err != nil {
				return
			}
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("active tab stopped receiving replies")
	}

	other := dialSocket(t, ts, uuid.New().String())
	if view := readView(t, other); view.Results.CountLine != "Showing 3 of 3 questions" {
		t.Fatalf("unexpected initial count %q", view.Results.CountLine)
	}
}

func TestWebSocketRejectsOversizedEvent(t *testing.T) {
	ts := newTestServer(t, sampleStore(), nil)
	conn := dialSocket(t, ts, uuid.New().String())
	readView(t, conn)

	big := models.ViewerEvent{Type: models.EventSearch, Value: strings.Repeat("x", 2*maxEventSize)}
	// el servidor puede cerrar antes de recibir el mensaje completo
	_ = conn.WriteJSON(big)

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("expected the connection to be closed")
	}
}
