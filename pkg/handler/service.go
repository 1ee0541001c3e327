package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "missions.v1.MissionService"

// MissionServiceServer is the server API of MissionService. Every method
// takes and returns a google.protobuf.Struct. The "caller" and "player" fields
// carry signers already verified by the submission layer in front of this
// service.
type MissionServiceServer interface {
	CreateMission(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Enroll(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CheckStartCondition(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CallRound(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RefundAll(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Settle(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ForceFinalize(context.Context, *structpb.Struct) (*structpb.Struct, error)
	TopUp(context.Context, *structpb.Struct) (*structpb.Struct, error)

	GetMission(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetRollup(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListPlayers(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListWinners(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListFailedRefunds(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListRefundedPlayers(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListMissionsByStatus(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListMissionsNotEnded(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListMissionsEnded(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListUserMissions(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetChangesAfter(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetEnrollmentAllowance(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetStats(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetReservePool(context.Context, *structpb.Struct) (*structpb.Struct, error)

	Authorize(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Deauthorize(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ProposeOwner(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ConfirmOwner(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetRateLimits(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetPurgeBatchSize(context.Context, *structpb.Struct) (*structpb.Struct, error)
	WithdrawPlatformBalance(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type structMethod func(MissionServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// unary builds the method descriptor of one Struct-in, Struct-out method.
func unary(name string, call structMethod) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(MissionServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod,
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(MissionServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// MissionServiceDesc describes MissionService for grpc.RegisterService.
var MissionServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MissionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateMission", MissionServiceServer.CreateMission),
		unary("Enroll", MissionServiceServer.Enroll),
		unary("CheckStartCondition", MissionServiceServer.CheckStartCondition),
		unary("CallRound", MissionServiceServer.CallRound),
		unary("RefundAll", MissionServiceServer.RefundAll),
		unary("Settle", MissionServiceServer.Settle),
		unary("ForceFinalize", MissionServiceServer.ForceFinalize),
		unary("TopUp", MissionServiceServer.TopUp),
		unary("GetMission", MissionServiceServer.GetMission),
		unary("GetRollup", MissionServiceServer.GetRollup),
		unary("ListPlayers", MissionServiceServer.ListPlayers),
		unary("ListWinners", MissionServiceServer.ListWinners),
		unary("ListFailedRefunds", MissionServiceServer.ListFailedRefunds),
		unary("ListRefundedPlayers", MissionServiceServer.ListRefundedPlayers),
		unary("ListMissionsByStatus", MissionServiceServer.ListMissionsByStatus),
		unary("ListMissionsNotEnded", MissionServiceServer.ListMissionsNotEnded),
		unary("ListMissionsEnded", MissionServiceServer.ListMissionsEnded),
		unary("ListUserMissions", MissionServiceServer.ListUserMissions),
		unary("GetChangesAfter", MissionServiceServer.GetChangesAfter),
		unary("GetEnrollmentAllowance", MissionServiceServer.GetEnrollmentAllowance),
		unary("GetStats", MissionServiceServer.GetStats),
		unary("GetReservePool", MissionServiceServer.GetReservePool),
		unary("Authorize", MissionServiceServer.Authorize),
		unary("Deauthorize", MissionServiceServer.Deauthorize),
		unary("ProposeOwner", MissionServiceServer.ProposeOwner),
		unary("ConfirmOwner", MissionServiceServer.ConfirmOwner),
		unary("SetRateLimits", MissionServiceServer.SetRateLimits),
		unary("SetPurgeBatchSize", MissionServiceServer.SetPurgeBatchSize),
		unary("WithdrawPlatformBalance", MissionServiceServer.WithdrawPlatformBalance),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "missions/v1/mission_service.proto",
}

// RegisterMissionServiceServer registers srv on s.
func RegisterMissionServiceServer(s grpc.ServiceRegistrar, srv MissionServiceServer) {
	s.RegisterService(&MissionServiceDesc, srv)
}

// Invoke calls method on conn. It is the client side of MissionService.
func Invoke(ctx context.Context, conn grpc.ClientConnInterface, method string, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := conn.Invoke(ctx, "/"+ServiceName+"/"+method, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
