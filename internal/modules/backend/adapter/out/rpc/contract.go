package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

const (
	PluginMapKey  = "backend"
	serviceName   = "devdeck.backend.v1.Backend"
	jsonCodecName = "json"
	methodInvoke  = "/" + serviceName + "/Invoke"
	methodPing    = "/" + serviceName + "/Ping"
)

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "DEVDECK_BACKEND",
	MagicCookieValue: "devdeck",
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return jsonCodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type Empty struct{}

type InvokeRequest struct {
	Op       string `json:"op"`
	ArgsJSON string `json:"args_json"`
}

type InvokeResponse struct {
	ResultJSON string `json:"result_json"`
	Error      string `json:"error"`
}

type PingResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Home    string `json:"home"`
}

type BackendServer interface {
	Invoke(ctx context.Context, in *InvokeRequest) (*InvokeResponse, error)
	Ping(ctx context.Context, in *Empty) (*PingResponse, error)
}

type BackendClient interface {
	Invoke(ctx context.Context, in *InvokeRequest) (*InvokeResponse, error)
	Ping(ctx context.Context) (*PingResponse, error)
}

type backendClient struct {
	conn *grpc.ClientConn
}

func NewBackendClient(conn *grpc.ClientConn) BackendClient {
	return &backendClient{conn: conn}
}

func (c *backendClient) Invoke(ctx context.Context, in *InvokeRequest) (*InvokeResponse, error) {
	out := &InvokeResponse{}
	if err := c.conn.Invoke(ctx, methodInvoke, in, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *backendClient) Ping(ctx context.Context) (*PingResponse, error) {
	out := &PingResponse{}
	if err := c.conn.Invoke(ctx, methodPing, &Empty{}, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func RegisterBackendServer(server grpc.ServiceRegistrar, impl BackendServer) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*BackendServer)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "Invoke",
				Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
					in := &InvokeRequest{}
					if err := dec(in); err != nil {
						return nil, err
					}
					if interceptor == nil {
						return impl.Invoke(ctx, in)
					}
					info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodInvoke}
					handler := func(ctx context.Context, req any) (any, error) {
						typed, ok := req.(*InvokeRequest)
						if !ok {
							return nil, fmt.Errorf("invalid request type")
						}
						return impl.Invoke(ctx, typed)
					}
					return interceptor(ctx, in, info, handler)
				},
			},
			{
				MethodName: "Ping",
				Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
					in := &Empty{}
					if err := dec(in); err != nil {
						return nil, err
					}
					if interceptor == nil {
						return impl.Ping(ctx, in)
					}
					info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodPing}
					handler := func(ctx context.Context, req any) (any, error) {
						empty, ok := req.(*Empty)
						if !ok {
							return nil, fmt.Errorf("invalid request type")
						}
						return impl.Ping(ctx, empty)
					}
					return interceptor(ctx, in, info, handler)
				},
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "devdeck/backend-rpc-v1",
	}, impl)
}

type GRPCPlugin struct {
	plugin.NetRPCUnsupportedPlugin
	Impl BackendServer
}

func (p *GRPCPlugin) GRPCServer(_ *plugin.GRPCBroker, server *grpc.Server) error {
	RegisterBackendServer(server, p.Impl)
	return nil
}

func (p *GRPCPlugin) GRPCClient(_ context.Context, _ *plugin.GRPCBroker, conn *grpc.ClientConn) (any, error) {
	return NewBackendClient(conn), nil
}

func PluginMap(impl BackendServer) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginMapKey: &GRPCPlugin{Impl: impl},
	}
}
