// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package bootstrap

import (
	"context"
	"fmt"

	"github.com/AccelByte/extend-mission-factory/pkg/factoryconfig"
	"github.com/AccelByte/extend-mission-factory/pkg/mission"
	"github.com/AccelByte/extend-mission-factory/pkg/service"
	"github.com/sirupsen/logrus"
)

// InitContractDetector picks how contract callers are recognized. With an
// RPC URL the chain is asked for deployed code; otherwise only the
// contracts listed in the factory config are known. The returned close
// function is never nil.
func InitContractDetector(ctx context.Context, rpcURL string, fc *factoryconfig.Config) (mission.ContractDetector, func(), error) {
	if rpcURL == "" {
		detector := service.NewStaticContractDetector(fc.ContractAddresses()...)
		logrus.Infof("contract detection uses %d configured addresses", len(fc.ContractAddresses()))
		return detector, func() {}, nil
	}

	detector, err := service.DialContractDetector(ctx, rpcURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init contract detector: %w", err)
	}
	return detector, detector.Close, nil
}
