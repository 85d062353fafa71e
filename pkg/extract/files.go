package extract

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/backsoul/quizreview/pkg/models"
)

// Rutas por defecto, relativas al directorio de trabajo
const (
	DefaultInputDir   = "_INPUT"
	DefaultExtractDir = "_OUTPUT/extracted_quizzes"
	DefaultOutputJSON = "_OUTPUT/extracted_questions_full.json"
	DefaultImagesDir  = "_OUTPUT/_images"
)

// Config destino de una extracción
type Config struct {
	ExtractDir string
	OutputJSON string
	ImagesDir  string
}

// DefaultConfig devuelve la configuración con las rutas por defecto
func DefaultConfig() Config {
	return Config{
		ExtractDir: DefaultExtractDir,
		OutputJSON: DefaultOutputJSON,
		ImagesDir:  DefaultImagesDir,
	}
}

// ProcessFiles extrae las páginas indicadas y añade sus registros al JSON de
// salida. Devuelve el número de registros añadidos.
func (c Config) ProcessFiles(htmlFiles []string) (int, error) {
	if len(htmlFiles) == 0 {
		return 0, nil
	}
	if err := os.MkdirAll(c.ImagesDir, 0o755); err != nil {
		return 0, fmt.Errorf("error creando %s: %w", c.ImagesDir, err)
	}

	all := []models.QuestionRecord{}
	for _, path := range htmlFiles {
		log.Printf("📄 Procesando %s...", path)
		records, err := ParseFile(path, c.ImagesDir)
		if err != nil {
			return 0, err
		}
		all = append(all, records...)
	}

	if err := AppendJSON(c.OutputJSON, all); err != nil {
		return 0, err
	}
	log.Printf("✅ %d preguntas añadidas a %s (imágenes en %s)", len(all), c.OutputJSON, c.ImagesDir)
	return len(all), nil
}

// ProcessDir procesa las páginas .html de primer nivel de dir
func (c Config) ProcessDir(dir string) (int, error) {
	files, err := HTMLFiles(dir)
	if err != nil {
		return 0, err
	}
	return c.ProcessFiles(files)
}

// ProcessZip descomprime el archivo en ExtractDir y procesa las páginas que contenía
func (c Config) ProcessZip(zipPath string) (int, error) {
	log.Printf("📦 Descomprimiendo %s...", zipPath)
	files, err := Unzip(zipPath, c.ExtractDir)
	if err != nil {
		return 0, err
	}

	pages := []string{}
	for _, f := range files {
		if isHTML(f) {
			pages = append(pages, f)
		}
	}
	return c.ProcessFiles(pages)
}

// HTMLFiles lista las páginas .html de primer nivel de dir en orden alfabético
func HTMLFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("error leyendo %s: %w", dir, err)
	}

	files := []string{}
	for _, e := range entries {
		if !e.IsDir() && isHTML(e.Name()) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}

func isHTML(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".html")
}

// Unzip extrae el archivo en dest y devuelve las rutas de los ficheros escritos.
// Rechaza entradas que salgan de dest.
func Unzip(zipPath, dest string) ([]string, error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("error abriendo %s: %w", zipPath, err)
	}
	defer zr.Close()

	root, err := filepath.Abs(dest)
	if err != nil {
		return nil, err
	}

	written := []string{}
	for _, f := range zr.File {
		target := filepath.Join(root, filepath.FromSlash(f.Name))
		if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return nil, fmt.Errorf("entrada fuera del destino: %s", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return nil, err
			}
			continue
		}
		if err := unzipFile(f, target); err != nil {
			return nil, fmt.Errorf("error extrayendo %s: %w", f.Name, err)
		}
		written = append(written, filepath.Join(dest, filepath.FromSlash(f.Name)))
	}
	return written, nil
}

func unzipFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// CopyImage copia src a destDir como <id>_imgNN<ext> y devuelve el nuevo nombre
func CopyImage(src, destDir, id string, idx int) (string, error) {
	ext := filepath.Ext(src)
	if ext == "" {
		ext = ".png"
	}
	name := fmt.Sprintf("%s_img%02d%s", id, idx, ext)

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", err
	}
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	out, err := os.Create(filepath.Join(destDir, name))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	return name, nil
}

// AppendJSON añade los registros al arreglo JSON de path. Si el archivo no
// existe o no contiene un arreglo válido se empieza uno nuevo.
func AppendJSON(path string, records []models.QuestionRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("error creando directorio de salida: %w", err)
	}

	existing := []json.RawMessage{}
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &existing); err != nil {
			log.Printf("⚠️ %s no contiene un arreglo JSON válido, se reemplaza", path)
			existing = nil
		}
	}
	if existing == nil {
		existing = []json.RawMessage{}
	}

	for _, r := range records {
		raw, err := marshalRecord(r)
		if err != nil {
			return err
		}
		existing = append(existing, raw)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(existing); err != nil {
		return fmt.Errorf("error serializando JSON: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("error escribiendo %s: %w", path, err)
	}
	return nil
}

func marshalRecord(r models.QuestionRecord) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return nil, fmt.Errorf("error serializando registro: %w", err)
	}
	return bytes.TrimSpace(buf.Bytes()), nil
}
