// Package server exposes the course store over HTTP for the web frontend.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"course-setter/internal/course"
	imgutil "course-setter/internal/image"
	"course-setter/internal/mapscale"
	"course-setter/internal/metrics"
	"course-setter/internal/predict"
	"course-setter/internal/project"
)

// MaxUploadBytes caps map uploads.
const MaxUploadBytes = 32 << 20

// Server routes course, map, and mask requests to a project store.
type Server struct {
	store   *project.Store
	scale   *mapscale.Reader // nil when Tesseract is unavailable
	predict predict.Options
}

// New creates a server over a store. reader may be nil, uploads then skip
// the printed-scale check and always require manual calibration.
func New(store *project.Store, reader *mapscale.Reader) *Server {
	return &Server{
		store:   store,
		scale:   reader,
		predict: predict.DefaultOptions(),
	}
}

// Router builds the HTTP route table with request logging and CORS.
func (s *Server) Router(logOut io.Writer) http.Handler {
	router := mux.NewRouter().StrictSlash(true)

	router.HandleFunc("/api/courses", s.listCourses).Methods("GET")
	router.HandleFunc("/api/courses/{name}", s.loadCourse).Methods("GET")
	router.HandleFunc("/api/courses/{name}", s.saveCourse).Methods("POST")
	router.HandleFunc("/api/courses/{name}", s.deleteCourse).Methods("DELETE")
	router.HandleFunc("/api/courses/{name}/publish", s.togglePublish).Methods("POST")

	router.HandleFunc("/api/maps", s.uploadMap).Methods("POST")
	router.HandleFunc("/api/maps/{file}", s.serveMap).Methods("GET")
	router.HandleFunc("/api/maps/{file}/mask", s.serveMask).Methods("GET")
	router.HandleFunc("/api/maps/{file}/mask", s.saveMask).Methods("POST")
	router.HandleFunc("/api/maps/{file}/mask/predict", s.predictMask).Methods("POST")

	cors := handlers.CORS(
		handlers.AllowedMethods([]string{"GET", "POST", "DELETE"}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	return handlers.CombinedLoggingHandler(logOut, cors(router))
}

func (s *Server) listCourses(w http.ResponseWriter, req *http.Request) {
	entries, err := s.store.List()
	if err != nil {
		httpError(w, err)
		return
	}
	if entries == nil {
		entries = []project.Entry{}
	}
	writeJSON(w, entries)
}

func (s *Server) loadCourse(w http.ResponseWriter, req *http.Request) {
	name := mux.Vars(req)["name"]
	doc, err := s.store.Load(name)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, doc)
}

func (s *Server) saveCourse(w http.ResponseWriter, req *http.Request) {
	name := mux.Vars(req)["name"]
	overwrite := req.URL.Query().Get("overwrite") == "true"

	body, err := io.ReadAll(http.MaxBytesReader(w, req.Body, MaxUploadBytes))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	doc, err := course.Decode(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Run times are refreshed on every save so stored predictions always
	// match the stored elevations.
	metrics.UpdateRunTimes(doc)

	if err := s.store.Save(name, doc, overwrite); err != nil {
		if errors.Is(err, project.ErrExists) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(map[string]bool{"exists": true})
			return
		}
		httpError(w, err)
		return
	}
	writeJSON(w, map[string]string{"name": name})
}

func (s *Server) deleteCourse(w http.ResponseWriter, req *http.Request) {
	if err := s.store.Delete(mux.Vars(req)["name"]); err != nil {
		httpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) togglePublish(w http.ResponseWriter, req *http.Request) {
	published, err := s.store.TogglePublish(mux.Vars(req)["name"])
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"published": published})
}

// uploadMap stores a map image and reports whether its printed scale
// caption lets the editor skip manual calibration.
func (s *Server) uploadMap(w http.ResponseWriter, req *http.Request) {
	req.Body = http.MaxBytesReader(w, req.Body, MaxUploadBytes)
	file, header, err := req.FormFile("mapFile")
	if err != nil {
		http.Error(w, "missing mapFile upload", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if !imgutil.SupportedMapExt(header.Filename) {
		http.Error(w, fmt.Sprintf("unsupported map type %q", filepath.Ext(header.Filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	stored, err := s.store.SaveMap(header.Filename, data)
	if err != nil {
		httpError(w, err)
		return
	}

	scaled := false
	if s.scale != nil {
		if ratio, err := s.scale.ReadRatio(data); err == nil {
			scaled = mapscale.AppliesDefaultScale(ratio)
		} else if !errors.Is(err, mapscale.ErrNoScale) {
			log.Printf("scale ocr for %s: %v", stored, err)
		}
	}

	writeJSON(w, map[string]interface{}{
		"mapFile": stored,
		"scaled":  scaled,
	})
}

func (s *Server) serveMap(w http.ResponseWriter, req *http.Request) {
	http.ServeFile(w, req, s.store.MapPath(mux.Vars(req)["file"]))
}

func (s *Server) serveMask(w http.ResponseWriter, req *http.Request) {
	data, err := s.store.LoadMask(mux.Vars(req)["file"])
	if err != nil {
		httpError(w, err)
		return
	}
	if data == nil {
		http.NotFound(w, req)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(data)
}

func (s *Server) saveMask(w http.ResponseWriter, req *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, req.Body, MaxUploadBytes))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.store.SaveMask(mux.Vars(req)["file"], data); err != nil {
		httpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// predictMask segments barriers from a stored map, persists the result,
// and returns it as PNG.
func (s *Server) predictMask(w http.ResponseWriter, req *http.Request) {
	mapFile := mux.Vars(req)["file"]
	layer, err := imgutil.Load(s.store.MapPath(mapFile))
	if err != nil {
		httpError(w, err)
		return
	}

	mask, err := predict.Barriers(layer.Image, s.predict)
	if err != nil {
		httpError(w, err)
		return
	}

	png, err := imgutil.EncodePNG(mask)
	if err != nil {
		httpError(w, err)
		return
	}
	if err := s.store.SaveMask(mapFile, png); err != nil {
		httpError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, project.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, project.ErrExists):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, project.ErrEmptyName):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case err != nil && strings.Contains(err.Error(), "no such file"):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
