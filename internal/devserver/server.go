package devserver

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/zishang520/socket.io/v2/socket"
)

// Routes served next to the output files.
const (
	ClientPath     = "/__assetgrid/client.js"
	LiveReloadPath = "/__assetgrid/livereload"
	SocketIOPath   = "/socket.io/"
	HealthPath     = "/health"
)

//go:embed client.js
var clientJS []byte

var clientTag = []byte(`<script src="` + ClientPath + `" async></script>`)

// Options configures a Server.
type Options struct {
	// Root is the directory served as document root.
	Root string
	Host string
	// Port 0 picks a free port.
	Port          int
	InjectChanges bool
}

// Server is the development HTTP server and reload notifier.
type Server struct {
	opts    Options
	hub     *hub
	io      *socket.Server
	handler http.Handler

	httpServer *http.Server
	listener   net.Listener
}

// New creates a Server. It does not listen until Start is called.
func New(opts Options) *Server {
	s := &Server{
		opts: opts,
		hub:  newHub(),
		io:   socket.NewServer(nil, nil),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(HealthPath, s.health)
	mux.HandleFunc(ClientPath, s.client)
	mux.HandleFunc(LiveReloadPath, s.hub.serveWS)
	mux.Handle(SocketIOPath, s.io.ServeHandler(nil))
	mux.HandleFunc("/", s.files)
	s.handler = mux
	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on the configured address and serves in the background until
// ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	addr := net.JoinHostPort(s.opts.Host, fmt.Sprint(s.opts.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		logger.Info("🌐 Dev server starting.", "url", s.URL(), "root", s.opts.Root)
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Dev server failed unexpectedly.", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		if err := s.Close(); err != nil {
			logger.Error("Dev server shutdown failed.", "error", err)
		}
	}()
	return nil
}

// URL returns the base URL of a started server.
func (s *Server) URL() string {
	if s.listener == nil {
		return ""
	}
	return "http://" + s.listener.Addr().String()
}

// Clients returns the number of connected live-reload websocket clients.
func (s *Server) Clients() int {
	return s.hub.count()
}

// Reload tells every client that files changed. Files outside the document
// root are ignored.
func (s *Server) Reload(ctx context.Context, files []string) error {
	msg, ok := newMessage(s.opts.Root, files, s.opts.InjectChanges)
	if !ok {
		ctxlog.FromContext(ctx).Debug("No served file changed, skipping reload.", "files", len(files))
		return nil
	}

	ctxlog.FromContext(ctx).Info("🔄 Reloading browsers.", "type", msg.Type, "paths", msg.Paths, "clients", s.hub.count())
	s.io.Emit("reload", msg)
	return s.hub.broadcast(msg)
}

// Close stops the HTTP server and disconnects every client.
func (s *Server) Close() error {
	s.io.Close(nil)
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	ctxlog.FromContext(r.Context()).Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (s *Server) client(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(clientJS)
}

// files serves the document root, injecting the client into HTML pages.
func (s *Server) files(w http.ResponseWriter, r *http.Request) {
	name := path.Clean("/" + r.URL.Path)
	full := filepath.Join(s.opts.Root, filepath.FromSlash(name))

	info, err := os.Stat(full)
	if err == nil && info.IsDir() {
		full = filepath.Join(full, "index.html")
		info, err = os.Stat(full)
	}
	if err != nil || !isHTML(full) {
		w.Header().Set("Cache-Control", "no-cache")
		http.FileServer(http.Dir(s.opts.Root)).ServeHTTP(w, r)
		return
	}

	data, err := os.ReadFile(full)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, info.Name(), info.ModTime(), bytes.NewReader(injectClient(data)))
}

func isHTML(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".html" || ext == ".htm"
}

// injectClient places the client tag before the last </body>, or appends it.
func injectClient(page []byte) []byte {
	i := bytes.LastIndex(bytes.ToLower(page), []byte("</body>"))
	if i < 0 {
		return append(append([]byte{}, page...), clientTag...)
	}
	out := make([]byte, 0, len(page)+len(clientTag))
	out = append(out, page[:i]...)
	out = append(out, clientTag...)
	return append(out, page[i:]...)
}
