package handler

import (
	"context"
	"errors"

	"github.com/AccelByte/extend-mission-factory/pkg/limiter"
	"github.com/AccelByte/extend-mission-factory/pkg/mission"
	"github.com/AccelByte/extend-mission-factory/pkg/registry"
	"github.com/AccelByte/extend-mission-factory/pkg/service"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var errorCodes = []struct {
	target error
	code   codes.Code
}{
	{mission.ErrEnrollmentNotOpen, codes.FailedPrecondition},
	{mission.ErrEnrollmentClosed, codes.FailedPrecondition},
	{mission.ErrEnrollmentStillOpen, codes.FailedPrecondition},
	{mission.ErrMissionStarted, codes.FailedPrecondition},
	{mission.ErrMissionNotActive, codes.FailedPrecondition},
	{mission.ErrMissionEnded, codes.FailedPrecondition},
	{mission.ErrCooldown, codes.FailedPrecondition},
	{mission.ErrNotFailed, codes.FailedPrecondition},
	{mission.ErrNotTerminal, codes.FailedPrecondition},
	{mission.ErrNotPartlySuccess, codes.FailedPrecondition},
	{mission.ErrPayoutRegression, codes.FailedPrecondition},

	{mission.ErrMissionFull, codes.ResourceExhausted},
	{mission.ErrAllRoundsClaimed, codes.ResourceExhausted},
	{mission.ErrAlreadyJoined, codes.AlreadyExists},
	{mission.ErrAlreadyWon, codes.AlreadyExists},

	{mission.ErrWrongFee, codes.InvalidArgument},
	{mission.ErrInvalidAmount, codes.InvalidArgument},
	{registry.ErrInvalidParams, codes.InvalidArgument},
	{registry.ErrZeroAddress, codes.InvalidArgument},
	{limiter.ErrInvalidLimits, codes.InvalidArgument},

	{mission.ErrNotPlayer, codes.PermissionDenied},
	{mission.ErrContractCaller, codes.PermissionDenied},
	{registry.ErrNotAuthorized, codes.PermissionDenied},
	{registry.ErrNotOwner, codes.PermissionDenied},
	{registry.ErrNotCreator, codes.PermissionDenied},

	{registry.ErrUnknownMission, codes.NotFound},

	{registry.ErrUserMissionTooSoon, codes.FailedPrecondition},
	{registry.ErrMissionNotFinished, codes.FailedPrecondition},
	{registry.ErrNoProposal, codes.FailedPrecondition},
	{registry.ErrProposalExpired, codes.FailedPrecondition},
	{registry.ErrSameApprover, codes.FailedPrecondition},
	{registry.ErrInsufficientFunds, codes.FailedPrecondition},
	{service.ErrInsufficientBalance, codes.FailedPrecondition},

	{mission.ErrTransferFailed, codes.Aborted},
	{mission.ErrOperationInProgress, codes.Aborted},
	{service.ErrRecipientRejected, codes.Aborted},
}

// toStatus converts a domain error into a gRPC status error.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return status.FromContextError(err).Err()
	}

	var rl *mission.RateLimitError
	if errors.As(err, &rl) {
		return status.Errorf(codes.ResourceExhausted, "%s limit reached, retry in %d seconds", rl.Breach, int64(rl.RetryIn.Seconds()))
	}

	for _, ec := range errorCodes {
		if errors.Is(err, ec.target) {
			return status.Error(ec.code, err.Error())
		}
	}
	return status.Error(codes.Internal, err.Error())
}

// enrollResult labels the enrollment counter.
func enrollResult(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, mission.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, mission.ErrMissionFull):
		return "full"
	case errors.Is(err, mission.ErrWrongFee):
		return "wrong_fee"
	case errors.Is(err, mission.ErrContractCaller):
		return "contract_caller"
	case errors.Is(err, mission.ErrAlreadyJoined):
		return "already_joined"
	case errors.Is(err, mission.ErrEnrollmentNotOpen), errors.Is(err, mission.ErrEnrollmentClosed):
		return "window"
	default:
		return "error"
	}
}
