package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/MikhailRaia/tinyu/internal/middleware"
	"github.com/MikhailRaia/tinyu/internal/model"
	"github.com/MikhailRaia/tinyu/internal/proto"
	"github.com/MikhailRaia/tinyu/internal/resolver"
	"github.com/MikhailRaia/tinyu/internal/service"
)

// LinkGRPCServer exposes the link service over gRPC. The caller's identity
// comes from the session token checked by the auth interceptor.
type LinkGRPCServer struct {
	proto.UnimplementedLinkServiceServer
	links    LinkService
	resolver LinkResolver
	baseURL  string
}

func NewLinkGRPCServer(links LinkService, resolver LinkResolver, baseURL string) *LinkGRPCServer {
	return &LinkGRPCServer{
		links:    links,
		resolver: resolver,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

func (s *LinkGRPCServer) CreateLink(ctx context.Context, req *proto.CreateLinkRequest) (*proto.LinkResponse, error) {
	owner, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	code, err := s.links.Create(ctx, owner, req.LongUrl)
	if err != nil {
		return nil, grpcError(err)
	}

	return &proto.LinkResponse{Link: s.toProto(model.Link{
		ShortCode: code,
		LongURL:   req.LongUrl,
		OwnerID:   owner,
	})}, nil
}

func (s *LinkGRPCServer) GetLink(ctx context.Context, req *proto.GetLinkRequest) (*proto.LinkResponse, error) {
	owner, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	link, err := s.links.Get(ctx, owner, req.ShortCode)
	if err != nil {
		return nil, grpcError(err)
	}

	return &proto.LinkResponse{Link: s.toProto(link)}, nil
}

func (s *LinkGRPCServer) UpdateLink(ctx context.Context, req *proto.UpdateLinkRequest) (*proto.LinkResponse, error) {
	owner, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	link, err := s.links.Update(ctx, owner, req.ShortCode, req.LongUrl)
	if err != nil {
		return nil, grpcError(err)
	}

	return &proto.LinkResponse{Link: s.toProto(link)}, nil
}

func (s *LinkGRPCServer) DeleteLink(ctx context.Context, req *proto.DeleteLinkRequest) (*emptypb.Empty, error) {
	owner, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.links.Delete(ctx, owner, req.ShortCode); err != nil {
		return nil, grpcError(err)
	}

	return &emptypb.Empty{}, nil
}

func (s *LinkGRPCServer) ListLinks(ctx context.Context, _ *emptypb.Empty) (*proto.ListLinksResponse, error) {
	owner, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	links, err := s.links.ListForOwner(ctx, owner)
	if err != nil {
		return nil, grpcError(err)
	}

	resp := &proto.ListLinksResponse{
		Links: make([]*proto.Link, 0, len(links)),
	}
	for _, link := range links {
		resp.Links = append(resp.Links, s.toProto(link))
	}

	return resp, nil
}

func (s *LinkGRPCServer) ResolveLink(ctx context.Context, req *proto.ResolveLinkRequest) (*proto.ResolveLinkResponse, error) {
	target, err := s.resolver.Resolve(ctx, req.ShortCode)
	if err != nil {
		return nil, grpcError(err)
	}

	return &proto.ResolveLinkResponse{LongUrl: target}, nil
}

func (s *LinkGRPCServer) toProto(link model.Link) *proto.Link {
	return &proto.Link{
		ShortCode: link.ShortCode,
		ShortUrl:  s.baseURL + "/u/" + link.ShortCode,
		LongUrl:   link.LongURL,
		OwnerId:   link.OwnerID,
	}
}

func ownerFromContext(ctx context.Context) (string, error) {
	owner, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "user not authenticated")
	}
	return owner, nil
}

func grpcError(err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidURL):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrNotFound), errors.Is(err, resolver.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, service.ErrForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, service.ErrNoOwner):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, service.ErrExhaustedNamespace):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, resolver.ErrInvalidTarget):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		log.Error().Err(err).Msg("Link operation failed")
		return status.Error(codes.Internal, "internal error")
	}
}
