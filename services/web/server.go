package web

import (
	"expvar"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/librepod/librepod/pkg/config"
	"github.com/librepod/librepod/pkg/model"
)

type Server struct {
	http.Server
	tls      bool
	certFile string
	keyFile  string
}

func New(cfg config.Server, handler http.Handler) *Server {
	port := cfg.Port
	if port == 0 {
		port = model.DefaultServerPort
	}

	bindAddress := cfg.BindAddress
	if bindAddress == "*" {
		bindAddress = ""
	}

	srv := Server{
		tls:      cfg.TLS,
		certFile: cfg.CertificatePath,
		keyFile:  cfg.KeyFilePath,
	}

	srv.Addr = fmt.Sprintf("%s:%d", bindAddress, port)
	log.Debugf("using address: %s", srv.Addr)

	mux := http.NewServeMux()
	mux.Handle("/", handler)

	if cfg.DebugEndpoints {
		log.Info("debug endpoints enabled at /debug/vars")
		mux.Handle("/debug/vars", expvar.Handler())
	}

	srv.Handler = mux
	return &srv
}

// Serve blocks until the server is shut down
func (s *Server) Serve() error {
	if s.tls {
		log.Infof("running listener at https://%s", s.Addr)
		return s.ListenAndServeTLS(s.certFile, s.keyFile)
	}

	log.Infof("running listener at http://%s", s.Addr)
	return s.ListenAndServe()
}
