package web

import (
	_ "embed"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"sort"
	"strings"

	"strictjars/internal/checks"
	"strictjars/internal/model"
	"strictjars/internal/report"
)

//go:embed help.md
var helpMD string

// Server answers queries about one finished run.
type Server struct {
	env     *checks.Env
	results []checks.Result
	logger  *slog.Logger
}

func NewServer(env *checks.Env, results []checks.Result, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{env: env, results: results, logger: logger.With(slog.String("component", "web"))}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/report", s.handleReport)
	mux.HandleFunc("/api/jars", s.handleJars)
	mux.HandleFunc("/api/jar", s.handleJar)
	mux.HandleFunc("/api/which", s.handleWhich)
	mux.HandleFunc("/api/help", handleHelp)
	return s.logRequests(mux)
}

// ListenAndServe serves the API on addr until the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("serving", slog.String("url", "http://"+addr+"/api/report"))
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("request", slog.String("method", r.Method), slog.String("path", r.URL.Path))
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	doc := report.NewDocument(s.env, s.results)
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(report.Text(s.results, r.URL.Query().Get("verbose") != "")))
		return
	}
	writeJSON(w, doc)
}

// JarInfo is a jar with its class count.
type JarInfo struct {
	Path    model.JarPath `json:"path"`
	Classes int           `json:"classes"`
}

func (s *Server) handleJars(w http.ResponseWriter, r *http.Request) {
	jars := []JarInfo{}
	for _, j := range s.env.Snapshot.Jars() {
		jars = append(jars, JarInfo{Path: j, Classes: len(s.env.Snapshot.Classes(j))})
	}
	writeJSON(w, jars)
}

func (s *Server) handleJar(w http.ResponseWriter, r *http.Request) {
	path := model.JarPath(r.URL.Query().Get("path"))
	if path == "" {
		http.Error(w, "path is required", http.StatusBadRequest)
		return
	}
	if !s.env.Snapshot.Has(path) {
		http.Error(w, "jar not in snapshot: "+string(path), http.StatusNotFound)
		return
	}
	writeJSON(w, struct {
		Path    model.JarPath     `json:"path"`
		Classes []model.ClassName `json:"classes"`
		Files   []string          `json:"files"`
	}{path, s.env.Snapshot.Classes(path), s.env.Snapshot.Files(path)})
}

// WhichMatch is a class and the jars that define it.
type WhichMatch struct {
	Class model.ClassName `json:"class"`
	Jars  []model.JarPath `json:"jars"`
}

// maxWhichMatches bounds the response to a short prefix.
const maxWhichMatches = 500

func (s *Server) handleWhich(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("class")
	if query == "" {
		http.Error(w, "class is required", http.StatusBadRequest)
		return
	}
	// Accept dotted names as well as descriptors.
	if !strings.HasPrefix(query, "L") || strings.Contains(query, ".") {
		query = "L" + strings.ReplaceAll(query, ".", "/")
	}

	owners := make(map[model.ClassName][]model.JarPath)
	for _, j := range s.env.Snapshot.Jars() {
		for _, c := range s.env.Snapshot.Classes(j) {
			if strings.HasPrefix(string(c), query) {
				owners[c] = append(owners[c], j)
			}
		}
	}

	matches := []WhichMatch{}
	for c, jars := range owners {
		slices.Sort(jars)
		matches = append(matches, WhichMatch{Class: c, Jars: jars})
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Class < matches[j].Class })
	if len(matches) > maxWhichMatches {
		matches = matches[:maxWhichMatches]
	}
	writeJSON(w, matches)
}

func handleHelp(w http.ResponseWriter, r *http.Request) {
	text := strings.ReplaceAll(helpMD, "{{VERSION}}", model.Version)

	w.Header().Set("Content-Type", "text/markdown")
	w.Write([]byte(text))
}
