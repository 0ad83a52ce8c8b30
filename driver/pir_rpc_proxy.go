package driver

import (
	"fmt"
	"time"

	"github.com/dimakogan/hepir/pir"
	"github.com/dimakogan/hepir/rpc"
)

type RpcProxy struct {
	*rpc.ClientProxy
}

func NewRpcProxy(serverAddr string, useTLS bool, usePersistent bool) (*RpcProxy, error) {
	proxy, err := rpc.NewClientProxy(serverAddr, useTLS, usePersistent)
	if err != nil {
		return nil, err
	}
	return &RpcProxy{proxy}, nil
}

func (p *RpcProxy) Hint(req pir.HintReq, resp *pir.HintResp) error {
	return p.Call("PirServerDriver.Hint", req, resp)
}

func (p *RpcProxy) SetKeys(req pir.KeysReq, resp *pir.KeysResp) error {
	return p.Call("PirServerDriver.SetKeys", req, resp)
}

// Answer sends the query to the typed RPC method of its PIR type.
func (p *RpcProxy) Answer(query pir.QueryReq, resp *interface{}) error {
	switch q := query.(type) {
	case *pir.IndexQueryReq:
		var out pir.IndexQueryResp
		if err := p.AnswerIndex(*q, &out); err != nil {
			return err
		}
		*resp = &out
	case *pir.FastQueryReq:
		var out pir.FastQueryResp
		if err := p.AnswerFast(*q, &out); err != nil {
			return err
		}
		*resp = &out
	default:
		return fmt.Errorf("Unsupported query type: %T", query)
	}
	return nil
}

func (p *RpcProxy) AnswerIndex(q pir.IndexQueryReq, resp *pir.IndexQueryResp) error {
	return p.Call("PirServerDriver.AnswerIndex", q, resp)
}

func (p *RpcProxy) AnswerFast(q pir.FastQueryReq, resp *pir.FastQueryResp) error {
	return p.Call("PirServerDriver.AnswerFast", q, resp)
}

func (p *RpcProxy) Configure(config TestConfig, none *int) error {
	var non int
	if none == nil {
		none = &non
	}
	return p.Call("PirServerDriver.Configure", config, none)
}

func (p *RpcProxy) NumRecords(none int, out *int) error {
	return p.Call("PirServerDriver.NumRecords", none, out)
}

func (p *RpcProxy) RecordSize(none int, out *int) error {
	return p.Call("PirServerDriver.RecordSize", none, out)
}

func (p *RpcProxy) GetRecord(idx int, rec *RecordIndexVal) error {
	return p.Call("PirServerDriver.GetRecord", idx, rec)
}

func (p *RpcProxy) GetStatus(none int, out *Status) error {
	return p.Call("PirServerDriver.GetStatus", none, out)
}

func (p *RpcProxy) GetOfflineTimer(none int, out *time.Duration) error {
	return p.Call("PirServerDriver.GetOfflineTimer", none, out)
}

func (p *RpcProxy) GetOnlineTimer(none int, out *time.Duration) error {
	return p.Call("PirServerDriver.GetOnlineTimer", none, out)
}

func (p *RpcProxy) ResetMetrics(none int, none2 *int) error {
	var non int
	if none2 == nil {
		none2 = &non
	}
	return p.Call("PirServerDriver.ResetMetrics", none, none2)
}

func (p *RpcProxy) GetOfflineBytes(none int, out *int) error {
	return p.Call("PirServerDriver.GetOfflineBytes", none, out)
}

func (p *RpcProxy) GetOnlineBytes(none int, out *int) error {
	return p.Call("PirServerDriver.GetOnlineBytes", none, out)
}
