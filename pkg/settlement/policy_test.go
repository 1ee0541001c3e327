// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package settlement

import (
	"testing"

	"github.com/holiman/uint256"
)

func TestPolicies_SplitSumsToAmount(t *testing.T) {
	policies := []Policy{PlatformPolicy{}, CreatorPolicy{}, ReservePolicy{}}
	amounts := []uint64{0, 1, 2, 3, 7, 100, 1001, 999_999_999}

	for _, p := range policies {
		for _, a := range amounts {
			s := p.Split(uint256.NewInt(a))
			if got := s.Total().Uint64(); got != a {
				t.Errorf("%s.Split(%d) total = %d, expected %d", p.ID(), a, got, a)
			}
		}
	}
}

func TestPolicies_Shares(t *testing.T) {
	tests := []struct {
		policy                 Policy
		amount                 uint64
		owner, creator, reserve uint64
	}{
		{PlatformPolicy{}, 1000, 1000, 0, 0},
		{CreatorPolicy{}, 1000, 500, 500, 0},
		{CreatorPolicy{}, 1001, 500, 501, 0},
		{ReservePolicy{}, 1000, 250, 0, 750},
		{ReservePolicy{}, 1003, 250, 0, 753},
	}

	for _, tt := range tests {
		s := tt.policy.Split(uint256.NewInt(tt.amount))
		if s.Owner.Uint64() != tt.owner || s.Creator.Uint64() != tt.creator || s.Reserve.Uint64() != tt.reserve {
			t.Errorf("%s.Split(%d) = %s/%s/%s, expected %d/%d/%d", tt.policy.ID(), tt.amount,
				s.Owner.Dec(), s.Creator.Dec(), s.Reserve.Dec(), tt.owner, tt.creator, tt.reserve)
		}
	}
}

func TestSplit_AddAndClone(t *testing.T) {
	a := ReservePolicy{}.Split(uint256.NewInt(100))
	b := CreatorPolicy{}.Split(uint256.NewInt(10))

	sum := a.Add(b)
	if sum.Owner.Uint64() != 30 || sum.Creator.Uint64() != 5 || sum.Reserve.Uint64() != 75 {
		t.Errorf("Add() = %s/%s/%s, expected 30/5/75", sum.Owner.Dec(), sum.Creator.Dec(), sum.Reserve.Dec())
	}

	c := a.Clone()
	c.Owner.SetUint64(0)
	if a.Owner.Uint64() != 25 {
		t.Error("Clone() shares storage with the original")
	}

	var empty Split
	if !empty.Total().IsZero() {
		t.Error("Total() of zero-value split is not zero")
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(nil)

	if r.Count() != 0 {
		t.Errorf("Count() = %d, expected 0", r.Count())
	}
	if got := r.Get("Daily").ID(); got != "reserve" {
		t.Errorf("Get(unknown) = %s, expected fallback reserve", got)
	}

	if err := r.Register("InviteOnly", PlatformPolicy{}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register("InviteOnly", CreatorPolicy{}); err == nil {
		t.Error("Register() duplicate expected error")
	}
	if err := r.Register("UserMission", nil); err == nil {
		t.Error("Register(nil) expected error")
	}
	if got := r.Get("InviteOnly").ID(); got != "platform" {
		t.Errorf("Get(InviteOnly) = %s, expected platform", got)
	}

	if err := r.Unregister("InviteOnly"); err != nil {
		t.Fatalf("Unregister() error = %v", err)
	}
	if err := r.Unregister("InviteOnly"); err == nil {
		t.Error("Unregister() missing key expected error")
	}
	if r.Count() != 0 {
		t.Errorf("Count() = %d, expected 0", r.Count())
	}
}
