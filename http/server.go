// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package http runs the HTTP server which fronts every kafkahello endpoint.
package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/z5labs/kafkahello/app"
	"github.com/z5labs/kafkahello/config"

	"github.com/sourcegraph/conc/pool"
)

// TCPListener configures the TCP listener the server accepts connections on.
type TCPListener struct {
	Addr config.Reader[string]
}

// TCPListenerOption configures a [TCPListener].
type TCPListenerOption func(*TCPListener)

// Addr sets the "host:port" the listener binds to.
func Addr(addr config.Reader[string]) TCPListenerOption {
	return func(tcpLn *TCPListener) {
		tcpLn.Addr = addr
	}
}

// AddrFromEnv reads the listen address from HTTP_ADDR.
func AddrFromEnv() config.Reader[string] {
	return config.Env("HTTP_ADDR")
}

// NewTCPListener returns a [TCPListener] which defaults to ":8080".
func NewTCPListener(options ...TCPListenerOption) TCPListener {
	tcpLn := TCPListener{
		Addr: config.EmptyReader[string](),
	}
	for _, option := range options {
		option(&tcpLn)
	}
	return tcpLn
}

// Read implements the [config.Reader] interface.
func (tcpLn TCPListener) Read(ctx context.Context) (config.Value[net.Listener], error) {
	addr := config.MustOr(ctx, ":8080", tcpLn.Addr)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return config.Value[net.Listener]{}, err
	}
	return config.ValueOf(ln), nil
}

// Server holds the configuration of the underlying [http.Server].
type Server struct {
	Listener          config.Reader[net.Listener]
	ReadTimeout       config.Reader[time.Duration]
	ReadHeaderTimeout config.Reader[time.Duration]
	WriteTimeout      config.Reader[time.Duration]
	IdleTimeout       config.Reader[time.Duration]
	MaxHeaderBytes    config.Reader[int]
	ShutdownTimeout   config.Reader[time.Duration]
}

// ServerOption configures a [Server].
type ServerOption func(*Server)

// ReadTimeout bounds reading an entire request. Defaults to 5 seconds.
func ReadTimeout(d config.Reader[time.Duration]) ServerOption {
	return func(srv *Server) {
		srv.ReadTimeout = d
	}
}

// ReadTimeoutFromEnv reads HTTP_READ_TIMEOUT.
func ReadTimeoutFromEnv() config.Reader[time.Duration] {
	return config.DurationFromString(config.Env("HTTP_READ_TIMEOUT"))
}

// ReadHeaderTimeout bounds reading request headers. Defaults to 2 seconds.
func ReadHeaderTimeout(d config.Reader[time.Duration]) ServerOption {
	return func(srv *Server) {
		srv.ReadHeaderTimeout = d
	}
}

// ReadHeaderTimeoutFromEnv reads HTTP_READ_HEADER_TIMEOUT.
func ReadHeaderTimeoutFromEnv() config.Reader[time.Duration] {
	return config.DurationFromString(config.Env("HTTP_READ_HEADER_TIMEOUT"))
}

// WriteTimeout bounds writing a response, which includes the time
// spent running a workload. Defaults to 10 seconds.
func WriteTimeout(d config.Reader[time.Duration]) ServerOption {
	return func(srv *Server) {
		srv.WriteTimeout = d
	}
}

// WriteTimeoutFromEnv reads HTTP_WRITE_TIMEOUT.
func WriteTimeoutFromEnv() config.Reader[time.Duration] {
	return config.DurationFromString(config.Env("HTTP_WRITE_TIMEOUT"))
}

// IdleTimeout bounds keep-alive idle time. Defaults to 120 seconds.
func IdleTimeout(d config.Reader[time.Duration]) ServerOption {
	return func(srv *Server) {
		srv.IdleTimeout = d
	}
}

// IdleTimeoutFromEnv reads HTTP_IDLE_TIMEOUT.
func IdleTimeoutFromEnv() config.Reader[time.Duration] {
	return config.DurationFromString(config.Env("HTTP_IDLE_TIMEOUT"))
}

// MaxHeaderBytes limits request header size. Defaults to 1 MiB.
func MaxHeaderBytes(n config.Reader[int]) ServerOption {
	return func(srv *Server) {
		srv.MaxHeaderBytes = n
	}
}

// MaxHeaderBytesFromEnv reads HTTP_MAX_HEADER_BYTES.
func MaxHeaderBytesFromEnv() config.Reader[int] {
	return config.IntFromString(config.Env("HTTP_MAX_HEADER_BYTES"))
}

// ShutdownTimeout bounds graceful shutdown. Defaults to 30 seconds.
func ShutdownTimeout(d config.Reader[time.Duration]) ServerOption {
	return func(srv *Server) {
		srv.ShutdownTimeout = d
	}
}

// NewServer returns a [Server] accepting connections from listener.
func NewServer(listener config.Reader[net.Listener], options ...ServerOption) Server {
	srv := Server{
		Listener:          listener,
		ReadTimeout:       config.EmptyReader[time.Duration](),
		ReadHeaderTimeout: config.EmptyReader[time.Duration](),
		WriteTimeout:      config.EmptyReader[time.Duration](),
		IdleTimeout:       config.EmptyReader[time.Duration](),
		MaxHeaderBytes:    config.EmptyReader[int](),
		ShutdownTimeout:   config.EmptyReader[time.Duration](),
	}
	for _, option := range options {
		option(&srv)
	}
	return srv
}

// App is a running HTTP server.
type App struct {
	ls              net.Listener
	srv             *http.Server
	shutdownTimeout time.Duration
}

// Run serves until ctx is cancelled and then gracefully shuts the server down.
func (a App) Run(ctx context.Context) error {
	p := pool.New().WithContext(ctx)

	p.Go(func(ctx context.Context) error {
		return a.srv.Serve(a.ls)
	})

	p.Go(func(ctx context.Context) error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.shutdownTimeout)
		defer cancel()

		return a.srv.Shutdown(shutdownCtx)
	})

	err := p.Wait()
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Build returns a [app.Builder] which serves the handler built by b.
func Build(srv Server, b app.Builder[http.Handler]) app.Builder[App] {
	return app.Bind(b, func(h http.Handler) app.Builder[App] {
		return app.BuilderFunc[App](func(ctx context.Context) (App, error) {
			ln, err := config.Read(ctx, srv.Listener)
			if err != nil {
				return App{}, err
			}

			httpServer := &http.Server{
				Handler:           h,
				ReadTimeout:       config.MustOr(ctx, 5*time.Second, srv.ReadTimeout),
				ReadHeaderTimeout: config.MustOr(ctx, 2*time.Second, srv.ReadHeaderTimeout),
				WriteTimeout:      config.MustOr(ctx, 10*time.Second, srv.WriteTimeout),
				IdleTimeout:       config.MustOr(ctx, 120*time.Second, srv.IdleTimeout),
				MaxHeaderBytes:    config.MustOr(ctx, 1<<20, srv.MaxHeaderBytes),
			}

			return App{
				ls:              ln,
				srv:             httpServer,
				shutdownTimeout: config.MustOr(ctx, 30*time.Second, srv.ShutdownTimeout),
			}, nil
		})
	})
}
