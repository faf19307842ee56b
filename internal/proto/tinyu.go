package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "tinyu.LinkService"

type Link struct {
	ShortCode string `json:"short_code"`
	ShortUrl  string `json:"short_url"`
	LongUrl   string `json:"long_url"`
	OwnerId   string `json:"owner_id"`
}

type CreateLinkRequest struct {
	LongUrl string `json:"long_url"`
}

type GetLinkRequest struct {
	ShortCode string `json:"short_code"`
}

type UpdateLinkRequest struct {
	ShortCode string `json:"short_code"`
	LongUrl   string `json:"long_url"`
}

type DeleteLinkRequest struct {
	ShortCode string `json:"short_code"`
}

type ResolveLinkRequest struct {
	ShortCode string `json:"short_code"`
}

type LinkResponse struct {
	Link *Link `json:"link"`
}

type ListLinksResponse struct {
	Links []*Link `json:"links"`
}

type ResolveLinkResponse struct {
	LongUrl string `json:"long_url"`
}

// LinkServiceServer is the server API for LinkService service.
type LinkServiceServer interface {
	CreateLink(context.Context, *CreateLinkRequest) (*LinkResponse, error)
	GetLink(context.Context, *GetLinkRequest) (*LinkResponse, error)
	UpdateLink(context.Context, *UpdateLinkRequest) (*LinkResponse, error)
	DeleteLink(context.Context, *DeleteLinkRequest) (*emptypb.Empty, error)
	ListLinks(context.Context, *emptypb.Empty) (*ListLinksResponse, error)
	ResolveLink(context.Context, *ResolveLinkRequest) (*ResolveLinkResponse, error)
}

// UnimplementedLinkServiceServer can be embedded to have forward compatible implementations.
type UnimplementedLinkServiceServer struct{}

func (UnimplementedLinkServiceServer) CreateLink(context.Context, *CreateLinkRequest) (*LinkResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateLink not implemented")
}
func (UnimplementedLinkServiceServer) GetLink(context.Context, *GetLinkRequest) (*LinkResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetLink not implemented")
}
func (UnimplementedLinkServiceServer) UpdateLink(context.Context, *UpdateLinkRequest) (*LinkResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdateLink not implemented")
}
func (UnimplementedLinkServiceServer) DeleteLink(context.Context, *DeleteLinkRequest) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method DeleteLink not implemented")
}
func (UnimplementedLinkServiceServer) ListLinks(context.Context, *emptypb.Empty) (*ListLinksResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListLinks not implemented")
}
func (UnimplementedLinkServiceServer) ResolveLink(context.Context, *ResolveLinkRequest) (*ResolveLinkResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ResolveLink not implemented")
}

func RegisterLinkServiceServer(s grpc.ServiceRegistrar, srv LinkServiceServer) {
	s.RegisterService(&linkServiceDesc, srv)
}

func unaryMethod[Req, Resp any](name string, call func(LinkServiceServer, context.Context, *Req) (Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(LinkServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + ServiceName + "/" + name,
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(LinkServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var linkServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LinkServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("CreateLink", LinkServiceServer.CreateLink),
		unaryMethod("GetLink", LinkServiceServer.GetLink),
		unaryMethod("UpdateLink", LinkServiceServer.UpdateLink),
		unaryMethod("DeleteLink", LinkServiceServer.DeleteLink),
		unaryMethod("ListLinks", LinkServiceServer.ListLinks),
		unaryMethod("ResolveLink", LinkServiceServer.ResolveLink),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "tinyu.proto",
}

// LinkServiceClient is the client API for LinkService service.
type LinkServiceClient interface {
	CreateLink(ctx context.Context, in *CreateLinkRequest, opts ...grpc.CallOption) (*LinkResponse, error)
	GetLink(ctx context.Context, in *GetLinkRequest, opts ...grpc.CallOption) (*LinkResponse, error)
	UpdateLink(ctx context.Context, in *UpdateLinkRequest, opts ...grpc.CallOption) (*LinkResponse, error)
	DeleteLink(ctx context.Context, in *DeleteLinkRequest, opts ...grpc.CallOption) (*emptypb.Empty, error)
	ListLinks(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*ListLinksResponse, error)
	ResolveLink(ctx context.Context, in *ResolveLinkRequest, opts ...grpc.CallOption) (*ResolveLinkResponse, error)
}

type linkServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewLinkServiceClient returns a client that always speaks the JSON codec.
func NewLinkServiceClient(cc grpc.ClientConnInterface) LinkServiceClient {
	return &linkServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in interface{}, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *linkServiceClient) CreateLink(ctx context.Context, in *CreateLinkRequest, opts ...grpc.CallOption) (*LinkResponse, error) {
	return invoke[LinkResponse](ctx, c.cc, "CreateLink", in, opts)
}

func (c *linkServiceClient) GetLink(ctx context.Context, in *GetLinkRequest, opts ...grpc.CallOption) (*LinkResponse, error) {
	return invoke[LinkResponse](ctx, c.cc, "GetLink", in, opts)
}

func (c *linkServiceClient) UpdateLink(ctx context.Context, in *UpdateLinkRequest, opts ...grpc.CallOption) (*LinkResponse, error) {
	return invoke[LinkResponse](ctx, c.cc, "UpdateLink", in, opts)
}

func (c *linkServiceClient) DeleteLink(ctx context.Context, in *DeleteLinkRequest, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, "DeleteLink", in, opts)
}

func (c *linkServiceClient) ListLinks(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*ListLinksResponse, error) {
	return invoke[ListLinksResponse](ctx, c.cc, "ListLinks", in, opts)
}

func (c *linkServiceClient) ResolveLink(ctx context.Context, in *ResolveLinkRequest, opts ...grpc.CallOption) (*ResolveLinkResponse, error) {
	return invoke[ResolveLinkResponse](ctx, c.cc, "ResolveLink", in, opts)
}
