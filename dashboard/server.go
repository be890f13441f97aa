package dashboard

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"net/http"

	"github.com/bundaberg-joey/amiscreen/server/fastview"
	"github.com/gorilla/mux"
)

// Server serves the dashboard's single page and its websocket feed, mirroring
// the teacher's Server — a deliberately minimal, single-client prototype, now
// routed through gorilla/mux instead of the default ServeMux so /healthz can
// sit alongside / and /ws without touching the global http handler table.
type Server struct {
	addr    string
	initial []CandidateCell
	view    *View
}

// NewServer builds the dashboard's view from a stream of candidate-set
// snapshots and returns a Server ready to listen on addr.
func NewServer(ctx context.Context, addr string, initial []CandidateCell, updates <-chan []CandidateCell) (*Server, error) {
	view, err := NewView(ctx, updates)
	if err != nil {
		return nil, fmt.Errorf("dashboard: building view: %w", err)
	}

	return &Server{addr: addr, initial: initial, view: view}, nil
}

// Serve blocks, serving the dashboard until the listener fails.
func (s *Server) Serve() error {
	r := mux.NewRouter()
	r.HandleFunc("/", s.serveIndex).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.serveWebsocket)
	r.HandleFunc("/healthz", s.serveHealthz).Methods(http.MethodGet)

	if err := http.ListenAndServe(s.addr, r); err != nil {
		return fmt.Errorf("dashboard: serve: %w", err)
	}
	return nil
}

func (s *Server) serveHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	cli, err := fastview.NewClient(s.view.Updates(), w, r)
	if err != nil {
		return
	}
	if err := cli.Sync(); err != nil {
		fmt.Println("dashboard: client sync ended:", err)
	}
}

func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	if err := renderTemplate(w, s.view, s.initial); err != nil {
		_, _ = w.Write([]byte(err.Error()))
	}
}

func renderTemplate(w io.Writer, vc fastview.ViewComponent, data interface{}) error {
	t := template.New("index.html")
	tname, err := vc.Parse(t)
	if err != nil {
		return err
	}
	if _, err := t.Parse(`{{ template "` + tname + `" . }}`); err != nil {
		return err
	}
	return t.Execute(w, data)
}
