package rpc

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/rpc"
	"sync"

	"github.com/ugorji/go/codec"
)

type ClientProxy struct {
	serverAddr string
	useTLS     bool
	persistent bool

	codecHandle codec.Handle

	// Cached
	cachedCodec  rpc.ClientCodec
	cachedClient *rpc.Client
}

// httpPostCodec sends every call as one HTTPS POST to the server's RPC
// path and reads the reply from the response body.
type httpPostCodec struct {
	http       *http.Client
	serverAddr string

	mu         sync.Mutex
	encoder    *codec.Encoder
	decoder    *codec.Decoder
	bodyReader chan (io.ReadCloser)
	bodyCloser io.Closer
}

func newHttpPostCodec(codecHandle codec.Handle, serverAddr string, usePersistent bool) *httpPostCodec {
	config := tls.Config{
		// Servers use self-signed certificates.
		InsecureSkipVerify: true,
	}

	client := &http.Client{
		Transport: &http.Transport{
			DialTLS: func(network, addr string) (net.Conn, error) {
				return tls.Dial("tcp", addr, &config)
			},
			DisableKeepAlives: !usePersistent,
		},
	}

	return &httpPostCodec{
		http:       client,
		serverAddr: serverAddr,
		encoder:    codec.NewEncoderBytes(nil, codecHandle),
		decoder:    codec.NewDecoder(nil, codecHandle),
		bodyReader: make(chan io.ReadCloser, 1),
	}
}

func (c *httpPostCodec) WriteRequest(rpcReq *rpc.Request, body interface{}) error {
	c.mu.Lock()
	var reqBuf []byte
	c.encoder.ResetBytes(&reqBuf)
	err := c.encoder.Encode(rpcReq)
	if err == nil {
		err = c.encoder.Encode(body)
	}
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("encoding request %s failed: %v", rpcReq.ServiceMethod, err)
	}

	url := "https://" + c.serverAddr + rpc.DefaultRPCPath + "/" + rpcReq.ServiceMethod
	httpReq, err := http.NewRequest("POST", url, bytes.NewBuffer(reqBuf))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/octet-stream")
	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed HTTP POST: %v", err)
	}
	if httpResp.StatusCode != http.StatusOK && httpResp.StatusCode != http.StatusInternalServerError {
		httpResp.Body.Close()
		return fmt.Errorf("failed HTTP POST: %v", httpResp.StatusCode)
	}
	c.bodyReader <- httpResp.Body
	return nil
}

func (c *httpPostCodec) ReadResponseHeader(header *rpc.Response) error {
	respBody := <-c.bodyReader
	c.decoder.Reset(respBody)
	c.bodyCloser = respBody
	return c.decoder.Decode(header)
}

func (c *httpPostCodec) ReadResponseBody(body interface{}) error {
	defer c.bodyCloser.Close()
	return c.decoder.Decode(body)
}

func (c *httpPostCodec) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func NewClientProxy(serverAddr string, useTLS bool, usePersistent bool) (*ClientProxy, error) {
	proxy := ClientProxy{serverAddr: serverAddr, useTLS: useTLS, codecHandle: CodecHandle()}
	if usePersistent || useTLS {
		// Always cache TLS codec
		codec, err := proxy.codec()
		if err != nil {
			return nil, err
		}
		proxy.cachedCodec = codec
		proxy.cachedClient = rpc.NewClientWithCodec(codec)
		proxy.persistent = true
	}
	return &proxy, nil
}

func (p *ClientProxy) codec() (rpc.ClientCodec, error) {
	if p.useTLS {
		return newHttpPostCodec(p.codecHandle, p.serverAddr, p.persistent), nil
	}
	conn, err := net.Dial("tcp", p.serverAddr)
	if err != nil {
		return nil, err
	}
	return codec.GoRpc.ClientCodec(conn, p.codecHandle), nil
}

func (p *ClientProxy) Call(serviceMethod string, args interface{}, reply interface{}) error {
	client, err := p.rpcClient()
	if err != nil {
		return err
	}
	defer p.releaseClient(client)
	return client.Call(serviceMethod, args, reply)
}

func (p *ClientProxy) rpcClient() (*rpc.Client, error) {
	if p.persistent {
		return p.cachedClient, nil
	}
	codec, err := p.codec()
	if err != nil {
		return nil, err
	}
	return rpc.NewClientWithCodec(codec), nil
}

func (p *ClientProxy) releaseClient(client *rpc.Client) error {
	if !p.persistent {
		return client.Close()
	}
	return nil
}

func (p *ClientProxy) Close() {
	if p.persistent {
		p.cachedClient.Close()
	}
}
