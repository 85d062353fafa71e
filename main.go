package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/backsoul/quizreview/pkg/dataset"
	"github.com/backsoul/quizreview/pkg/handlers"
	"github.com/backsoul/quizreview/pkg/redis"
	"github.com/backsoul/quizreview/pkg/render"
	"github.com/backsoul/quizreview/pkg/services"
	"github.com/backsoul/quizreview/pkg/websocket"
	"github.com/pkg/browser"
	"github.com/valyala/fasthttp"
)

// assetPrefix ruta bajo la que se sirven las imágenes (render.AssetBase sin la barra final)
const assetPrefix = "/_OUTPUT/_images"

// options configuración de arranque: flags con los valores de entorno como respaldo
type options struct {
	addr      string
	source    string
	assetsDir string
	noOpen    bool
}

type server struct {
	viewerHandler *handlers.ViewerHandler
	socketHandler *handlers.SocketHandler
	exportHandler *handlers.ExportHandler
	assets        fasthttp.RequestHandler
}

func main() {
	log.Println("🚀 Iniciando visor de respuestas de quizzes")

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	// Cargar registros: un fallo es terminal para el visor, pero el servidor
	// sigue en pie para mostrar el error
	store, loadErr := dataset.Load(opts.source)
	if loadErr != nil {
		log.Printf("❌ Error cargando registros: %v", loadErr)
	}

	panelStore, health, closeStore := initPreferences()
	defer closeStore()

	hub := websocket.NewHub()
	go hub.Run()

	s := newServer(
		services.NewViewerService(store, loadErr),
		services.NewPreferenceService(panelStore),
		health,
		hub,
		opts.assetsDir,
	)

	httpServer := &fasthttp.Server{
		Handler:     s.requestHandler,
		Name:        "Quiz Review",
		ReadTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", opts.addr)
	if err != nil {
		log.Fatalf("Error al iniciar el servidor: %v", err)
	}

	url := localURL(opts.addr)
	log.Printf("📱 Visor: %s", url)
	log.Printf("🔧 API Health: %sapi/health", url)

	if !opts.noOpen {
		go openBrowser(url)
	}

	if err := httpServer.Serve(ln); err != nil {
		log.Fatalf("Error al iniciar el servidor: %v", err)
	}
}

// parseFlags lee -p/--port, -d/--directory y --no-open. Las variables ADDR,
// DATA_SOURCE y ASSETS_DIR siguen aplicando cuando el flag no se indica.
func parseFlags(args []string) (options, error) {
	fs := flag.NewFlagSet("quizreview", flag.ContinueOnError)
	var port int
	var dir string
	fs.IntVar(&port, "p", 0, "Port number to serve on (default from ADDR, :8080)")
	fs.IntVar(&port, "port", 0, "Alias of -p")
	fs.StringVar(&dir, "d", "", "Directory holding extracted_questions_full.json and _images (default _OUTPUT)")
	fs.StringVar(&dir, "directory", "", "Alias of -d")
	noOpen := fs.Bool("no-open", false, "Do not attempt to open the browser automatically")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	opts := options{
		addr:      getEnv("ADDR", ":8080"),
		source:    getEnv("DATA_SOURCE", filepath.Join("_OUTPUT", "extracted_questions_full.json")),
		assetsDir: getEnv("ASSETS_DIR", filepath.Join("_OUTPUT", "_images")),
		noOpen:    *noOpen,
	}
	if port > 0 {
		opts.addr = ":" + strconv.Itoa(port)
	}
	if dir != "" {
		opts.source = filepath.Join(dir, "extracted_questions_full.json")
		opts.assetsDir = filepath.Join(dir, "_images")
	}
	return opts, nil
}

// localURL dirección del visor para el navegador
func localURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://localhost" + addr + "/"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s/", net.JoinHostPort(host, port))
}

func openBrowser(url string) {
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
	if err := browser.OpenURL(url); err != nil {
		log.Printf("⚠️ No se pudo abrir el navegador. Abre %s manualmente", url)
	}
}

// initPreferences usa Redis si REDIS_ADDR está definido y memoria en otro caso
func initPreferences() (services.PanelStore, handlers.HealthChecker, func()) {
	redisAddr := getEnv("REDIS_ADDR", "")
	if redisAddr == "" {
		log.Println("💾 Preferencias en memoria (REDIS_ADDR no definido)")
		return services.NewMemoryPanelStore(), nil, func() {}
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		log.Fatalf("REDIS_DB inválido: %v", err)
	}

	log.Printf("🔌 Conectando a Redis en %s...", redisAddr)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := redis.NewRedisClient(ctx, redisAddr, getEnv("REDIS_PASSWORD", ""), redisDB)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	return client, client, func() { _ = client.Close() }
}

func newServer(viewerService *services.ViewerService, preferenceService *services.PreferenceService,
	health handlers.HealthChecker, hub *websocket.Hub, assetsDir string) *server {
	return &server{
		viewerHandler: handlers.NewViewerHandler(viewerService, preferenceService, health),
		socketHandler: handlers.NewSocketHandler(viewerService, preferenceService, hub),
		exportHandler: handlers.NewExportHandler(viewerService, services.NewExportService()),
		assets:        newAssetHandler(assetsDir),
	}
}

func newAssetHandler(dir string) fasthttp.RequestHandler {
	fs := &fasthttp.FS{
		Root:               dir,
		PathRewrite:        fasthttp.NewPathPrefixStripper(len(assetPrefix)),
		GenerateIndexPages: false,
		Compress:           true,
	}
	return fs.NewRequestHandler()
}

func (s *server) requestHandler(ctx *fasthttp.RequestCtx) {
	path := string(ctx.Path())
	method := string(ctx.Method())

	log.Printf("📡 %s %s", method, path)

	ctx.Response.Header.Set("Server", "Quiz-Review-FastHTTP/1.0")
	ctx.Response.Header.Set("Cache-Control", "no-cache")

	switch {
	case path == "/" && method == fasthttp.MethodGet:
		s.viewerHandler.Page(ctx)
	case path == "/favicon.ico":
		ctx.SetStatusCode(fasthttp.StatusNotFound)

	// API
	case path == "/api/health":
		s.viewerHandler.HealthCheck(ctx)
	case path == "/api/questions" && method == fasthttp.MethodGet:
		s.viewerHandler.GetAllQuestions(ctx)
	case path == "/api/facets" && method == fasthttp.MethodGet:
		s.viewerHandler.GetFacets(ctx)
	case path == "/api/filter" && method == fasthttp.MethodPost:
		s.viewerHandler.Filter(ctx)
	case path == "/api/export.xlsx" && method == fasthttp.MethodGet:
		s.exportHandler.Export(ctx)

	// WebSocket
	case path == "/ws":
		s.socketHandler.HandleWebSocket(ctx)

	// Imágenes de los enunciados
	case strings.HasPrefix(path, render.AssetBase):
		s.assets(ctx)

	default:
		ctx.Error("404 - Página no encontrada", fasthttp.StatusNotFound)
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
