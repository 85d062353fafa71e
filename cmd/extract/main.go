package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/backsoul/quizreview/pkg/extract"
)

func main() {
	// Command-line flags
	input := flag.String("input", extract.DefaultInputDir, "Directory scanned when no sources are given")
	zipPath := flag.String("zip", "", "ZIP archive of Canvas result pages")
	dir := flag.String("dir", "", "Folder of Canvas result pages")
	output := flag.String("output", extract.DefaultOutputJSON, "JSON file the records are appended to")
	images := flag.String("images", extract.DefaultImagesDir, "Directory for copied question images")
	work := flag.String("work", extract.DefaultExtractDir, "Directory ZIP archives are extracted into")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: extract [-zip file.zip] [-dir folder] [-output file.json] [page.html ...]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg := extract.Config{
		ExtractDir: *work,
		OutputJSON: *output,
		ImagesDir:  *images,
	}

	log.Println("🚀 Extrayendo preguntas de Canvas")

	total := 0
	run := func(n int, err error) {
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		total += n
	}

	switch {
	case *zipPath != "" || *dir != "" || flag.NArg() > 0:
		if *zipPath != "" {
			run(cfg.ProcessZip(*zipPath))
		}
		if *dir != "" {
			run(cfg.ProcessDir(*dir))
		}
		if flag.NArg() > 0 {
			run(cfg.ProcessFiles(flag.Args()))
		}
	default:
		run(processInput(cfg, *input))
	}

	log.Printf("✅ Total: %d preguntas", total)
}

// processInput procesa todo lo que haya en el directorio de entrada: páginas
// sueltas, archivos ZIP y carpetas de páginas
func processInput(cfg extract.Config, input string) (int, error) {
	entries, err := os.ReadDir(input)
	if err != nil {
		return 0, fmt.Errorf("error leyendo %s: %w", input, err)
	}

	total := 0
	var pages []string
	for _, e := range entries {
		path := filepath.Join(input, e.Name())
		name := strings.ToLower(e.Name())
		switch {
		case e.IsDir():
			n, err := cfg.ProcessDir(path)
			if err != nil {
				return total, err
			}
			total += n
		case strings.HasSuffix(name, ".zip"):
			n, err := cfg.ProcessZip(path)
			if err != nil {
				return total, err
			}
			total += n
		case strings.HasSuffix(name, ".html"):
			pages = append(pages, path)
		}
	}

	n, err := cfg.ProcessFiles(pages)
	if err != nil {
		return total, err
	}
	if total+n == 0 {
		log.Printf("⚠️ No se encontraron páginas en %s", input)
	}
	return total + n, nil
}
