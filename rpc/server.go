package rpc

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/rpc"
	"strings"

	"github.com/rocketlaunchr/https-go"
	"github.com/sirupsen/logrus"
	"github.com/ugorji/go/codec"
)

var log = logrus.WithField("component", "rpc")

type httpServerCodec struct {
	httpResponse http.ResponseWriter

	encoder *codec.Encoder
	decoder *codec.Decoder
}

func (c *httpServerCodec) WriteResponse(header *rpc.Response, body interface{}) error {
	if header.Error != "" {
		c.httpResponse.Header().Set("Go-Error", header.Error)
		c.httpResponse.WriteHeader(http.StatusInternalServerError)
	}
	if err := c.encoder.Encode(header); err != nil {
		return err
	}
	return c.encoder.Encode(body)
}

func (c *httpServerCodec) Close() error {
	return nil
}

func (c *httpServerCodec) ReadRequestHeader(header *rpc.Request) error {
	return c.decoder.Decode(header)
}

func (c *httpServerCodec) ReadRequestBody(body interface{}) error {
	return c.decoder.Decode(body)
}

type Server interface {
	RegisterName(name string, rcvr interface{}) error
	Serve() error
	Close() error
	Addr() string
}

type httpRpcServer struct {
	httpServer *http.Server
	*rpc.Server
}

func (s *httpRpcServer) Serve() error {
	log.Infof("Serving RPC server over HTTPS on %s", s.httpServer.Addr)
	err := s.httpServer.ListenAndServeTLS("", "")
	if err == http.ErrServerClosed {
		log.Info("Server shutdown")
		return nil
	}
	return err
}

func (s *httpRpcServer) Close() error {
	return s.httpServer.Close()
}

func (s *httpRpcServer) Addr() string {
	return s.httpServer.Addr
}

// NewServer listens on port. With useTLS calls arrive as HTTPS POSTs
// served with a self-signed certificate, otherwise as a binc stream per TCP
// connection.
func NewServer(port int, useTLS bool) (Server, error) {
	rpcServer := rpc.NewServer()
	codecHandle := CodecHandle()

	if useTLS {
		httpSrv, err := https.Server(fmt.Sprintf("%d", port),
			https.GenerateOptions{Host: "hepir.app", ECDSACurve: "P256"})
		if err != nil {
			return nil, err
		}
		server := &httpRpcServer{httpSrv, rpcServer}
		httpSrv.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, rpc.DefaultRPCPath) {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-type", "application/octet-stream")
			codec := httpServerCodec{
				httpResponse: w,
				encoder:      codec.NewEncoder(w, codecHandle),
				decoder:      codec.NewDecoder(r.Body, codecHandle)}
			if err := server.Server.ServeRequest(&codec); err != nil {
				log.WithError(err).Warn("bad RPC request")
				w.Header().Set("Go-Error", err.Error())
				w.WriteHeader(http.StatusInternalServerError)
			}
		})
		return server, nil
	}
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("Failed to listen tcp: %v", err)
	}
	return &tcpRpcServer{ln, rpcServer, codecHandle}, nil
}

type tcpRpcServer struct {
	ln net.Listener
	*rpc.Server

	codecHandle codec.Handle
}

func (s *tcpRpcServer) Serve() error {
	log.Infof("Serving RPC server over TCP on %s", s.Addr())
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				log.Info("Server shutdown")
				return nil
			}
			return fmt.Errorf("TCP Accept failed: %+v", err)
		}
		go s.Server.ServeCodec(codec.GoRpc.ServerCodec(conn, s.codecHandle))
	}
}

func (s *tcpRpcServer) Close() error {
	return s.ln.Close()
}

func (s *tcpRpcServer) Addr() string {
	return s.ln.Addr().String()
}
