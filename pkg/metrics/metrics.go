// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	MissionsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mission_factory_missions_created_total",
			Help: "Total number of missions created",
		},
		[]string{"type"},
	)

	EnrollmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mission_factory_enrollments_total",
			Help: "Total number of enrollment attempts by result",
		},
		[]string{"result"},
	)

	RoundsPaidTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mission_factory_rounds_paid_total",
			Help: "Total number of round payouts",
		},
		[]string{"type"},
	)

	RefundsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mission_factory_refunds_total",
			Help: "Total number of refund transfers by result",
		},
		[]string{"result"},
	)

	StatusPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mission_factory_status_published_total",
			Help: "Total number of mission status publications",
		},
		[]string{"status"},
	)

	LedgerEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mission_factory_ledger_entries",
			Help: "Live entries in the change ledger",
		},
	)

	KeeperActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mission_factory_keeper_actions_total",
			Help: "Total number of upkeep actions by action and result",
		},
		[]string{"action", "result"},
	)

	ReservePool = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mission_factory_reserve_pool",
			Help: "Reserve pool per mission type, truncated to float",
		},
		[]string{"type"},
	)
)

// Collectors returns every mission collector for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		MissionsCreatedTotal,
		EnrollmentsTotal,
		RoundsPaidTotal,
		RefundsTotal,
		StatusPublishedTotal,
		LedgerEntries,
		KeeperActionsTotal,
		ReservePool,
	}
}
