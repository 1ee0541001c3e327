package handler

import (
	"encoding/json"
	"math"
	"strconv"
	"time"

	"github.com/AccelByte/extend-mission-factory/pkg/mission"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Request fields are read from a google.protobuf.Struct. Addresses are hex
// strings, amounts are decimal strings and times are unix seconds.

func field(req *structpb.Struct, key string) (*structpb.Value, bool) {
	if req == nil {
		return nil, false
	}
	v, ok := req.GetFields()[key]
	if !ok {
		return nil, false
	}
	if _, null := v.GetKind().(*structpb.Value_NullValue); null {
		return nil, false
	}
	return v, true
}

func getString(req *structpb.Struct, key string) string {
	v, ok := field(req, key)
	if !ok {
		return ""
	}
	return v.GetStringValue()
}

func getBool(req *structpb.Struct, key string) bool {
	v, ok := field(req, key)
	if !ok {
		return false
	}
	return v.GetBoolValue()
}

func getAddress(req *structpb.Struct, key string) (common.Address, error) {
	s := getString(req, key)
	if !common.IsHexAddress(s) {
		return common.Address{}, status.Errorf(codes.InvalidArgument, "%s: %q is not a hex address", key, s)
	}
	return common.HexToAddress(s), nil
}

// getAmount accepts a decimal string or a whole JSON number.
func getAmount(req *structpb.Struct, key string) (*uint256.Int, error) {
	v, ok := field(req, key)
	if !ok {
		return nil, status.Errorf(codes.InvalidArgument, "%s is required", key)
	}

	switch kind := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		amount, err := uint256.FromDecimal(kind.StringValue)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "%s: %q is not a decimal amount", key, kind.StringValue)
		}
		return amount, nil
	case *structpb.Value_NumberValue:
		n := kind.NumberValue
		if n < 0 || n != math.Trunc(n) || n > float64(1<<53) {
			return nil, status.Errorf(codes.InvalidArgument, "%s: %v is not a whole amount, send large values as strings", key, n)
		}
		return uint256.NewInt(uint64(n)), nil
	default:
		return nil, status.Errorf(codes.InvalidArgument, "%s must be a decimal string", key)
	}
}

// getInt accepts a JSON number or a numeric string. Missing fields yield def.
func getInt(req *structpb.Struct, key string, def int64) (int64, error) {
	v, ok := field(req, key)
	if !ok {
		return def, nil
	}

	switch kind := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		if kind.NumberValue != math.Trunc(kind.NumberValue) {
			return 0, status.Errorf(codes.InvalidArgument, "%s must be a whole number", key)
		}
		return int64(kind.NumberValue), nil
	case *structpb.Value_StringValue:
		n, err := strconv.ParseInt(kind.StringValue, 10, 64)
		if err != nil {
			return 0, status.Errorf(codes.InvalidArgument, "%s: %q is not a number", key, kind.StringValue)
		}
		return n, nil
	default:
		return 0, status.Errorf(codes.InvalidArgument, "%s must be a number", key)
	}
}

func getTime(req *structpb.Struct, key string) (time.Time, error) {
	sec, err := getInt(req, key, 0)
	if err != nil {
		return time.Time{}, err
	}
	if sec <= 0 {
		return time.Time{}, status.Errorf(codes.InvalidArgument, "%s must be a positive unix timestamp", key)
	}
	return time.Unix(sec, 0).UTC(), nil
}

func getSeconds(req *structpb.Struct, key string) (time.Duration, error) {
	sec, err := getInt(req, key, 0)
	if err != nil {
		return 0, err
	}
	return time.Duration(sec) * time.Second, nil
}

// decodeParams reads mission creation parameters. An invite-only mission
// may send its passphrase instead of the commitment.
func decodeParams(req *structpb.Struct) (mission.Params, error) {
	var p mission.Params
	var err error

	if p.Type, err = mission.ParseType(getString(req, "type")); err != nil {
		return p, status.Error(codes.InvalidArgument, err.Error())
	}
	p.Name = getString(req, "name")
	if _, ok := field(req, "creator"); ok {
		if p.Creator, err = getAddress(req, "creator"); err != nil {
			return p, err
		}
	}

	if p.EnrollmentStart, err = getTime(req, "enrollmentStart"); err != nil {
		return p, err
	}
	if p.EnrollmentEnd, err = getTime(req, "enrollmentEnd"); err != nil {
		return p, err
	}
	if p.MissionStart, err = getTime(req, "missionStart"); err != nil {
		return p, err
	}
	if p.MissionEnd, err = getTime(req, "missionEnd"); err != nil {
		return p, err
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"missionRounds", &p.MissionRounds},
		{"enrollmentMinPlayers", &p.EnrollmentMinPlayers},
		{"enrollmentMaxPlayers", &p.EnrollmentMaxPlayers},
	}
	for _, f := range ints {
		n, err := getInt(req, f.key, 0)
		if err != nil {
			return p, err
		}
		*f.dst = int(n)
	}

	if p.RoundPauseDuration, err = getSeconds(req, "roundPauseSeconds"); err != nil {
		return p, err
	}
	if p.LastRoundPauseDuration, err = getSeconds(req, "lastRoundPauseSeconds"); err != nil {
		return p, err
	}
	if p.EnrollmentAmount, err = getAmount(req, "enrollmentAmount"); err != nil {
		return p, err
	}

	if passphrase := getString(req, "passphrase"); passphrase != "" {
		p.Commitment = mission.Commitment(passphrase, p.EnrollmentStart)
	} else if c := getString(req, "commitment"); c != "" {
		p.Commitment = common.HexToHash(c)
	}
	p.FundFromReserve = getBool(req, "fundFromReserve")

	return p, nil
}

// toStruct converts a JSON object value into a Struct.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return out, nil
}

// wrap places a slice or scalar under key.
func wrap(key string, v any) (*structpb.Struct, error) {
	return toStruct(map[string]any{key: v})
}

func fields(kv map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(kv)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return out, nil
}
