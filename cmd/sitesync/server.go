package main

import (
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/oladoye/sitesync/pkg/config"
)

type Server struct {
	http.Server
}

func NewServer(cfg *config.Config, api http.Handler) *Server {
	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}

	bindAddress := cfg.Server.BindAddress
	if bindAddress == "*" {
		bindAddress = ""
	}

	srv := Server{}

	srv.Addr = fmt.Sprintf("%s:%d", bindAddress, port)
	srv.Handler = api
	log.Debugf("using address: %s", srv.Addr)

	return &srv
}
