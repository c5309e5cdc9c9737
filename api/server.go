package api

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
)

// A Server pairs a listener and http.Server with the API's ledger so
// Close/Serve can tear both down together.
type Server struct {
	api *API

	apiServer *http.Server
	listener  net.Listener
}

// NewServer creates a new API server listening on addr, serving the routes
// built by api.
func NewServer(addr string, api *API) (*Server, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	srv := &Server{
		api:      api,
		listener: l,
		apiServer: &http.Server{
			Handler: api.Handler,
		},
	}
	return srv, nil
}

// Serve listens for and handles API calls. It is a blocking call.
func (srv *Server) Serve() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		fmt.Println("caught stop signal, shutting down...")
		srv.listener.Close()
	}()

	err := srv.apiServer.Serve(srv.listener)
	if err != nil && !strings.HasSuffix(err.Error(), "use of closed network connection") {
		return fmt.Errorf("serve: %w", err)
	}

	if err := srv.api.Close(); err != nil {
		return errors.New("ledger close: " + err.Error())
	}
	return nil
}

// Close closes the Server's listener, causing Serve to return.
func (srv *Server) Close() error {
	return srv.listener.Close()
}

// Addr returns the address the Server is listening on, useful when addr was
// passed to NewServer as ":0" and the operating system assigned a port.
func (srv *Server) Addr() string {
	return srv.listener.Addr().String()
}
