// Command courseserver serves the course store over HTTP.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/peterbourgon/ff"

	"course-setter/internal/mapscale"
	"course-setter/internal/project"
	"course-setter/internal/server"
)

func main() {
	fs := flag.NewFlagSet("courseserver", flag.ExitOnError)
	var (
		listen   = fs.String("listen", ":8080", "listen address")
		dataDir  = fs.String("data-dir", "courses", "course store directory")
		scaleOCR = fs.Bool("scale-ocr", true, "read printed map scales with Tesseract")
	)
	ff.Parse(fs, os.Args[1:], ff.WithEnvVarNoPrefix())

	store, err := project.Open(*dataDir)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}

	var reader *mapscale.Reader
	if *scaleOCR {
		reader, err = mapscale.NewReader()
		if err != nil {
			log.Printf("scale ocr unavailable: %v", err)
		} else {
			defer reader.Close()
		}
	}

	srv := server.New(store, reader)

	fmt.Printf("Serving courses from %s on %s\n", store.Root(), *listen)
	log.Fatal(http.ListenAndServe(*listen, srv.Router(os.Stdout)))
}
