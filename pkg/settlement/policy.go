// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package settlement

import (
	"github.com/holiman/uint256"
)

// Split is the realized division of a distributable amount.
type Split struct {
	Owner   *uint256.Int `json:"owner"`
	Creator *uint256.Int `json:"creator"`
	Reserve *uint256.Int `json:"reserve"`
}

// Zero returns a split with every share set to zero.
func Zero() Split {
	return Split{
		Owner:   new(uint256.Int),
		Creator: new(uint256.Int),
		Reserve: new(uint256.Int),
	}
}

// Clone returns a deep copy of s. Nil shares become zero.
func (s Split) Clone() Split {
	return Split{
		Owner:   clone(s.Owner),
		Creator: clone(s.Creator),
		Reserve: clone(s.Reserve),
	}
}

// Add returns s + o share by share.
func (s Split) Add(o Split) Split {
	return Split{
		Owner:   new(uint256.Int).Add(clone(s.Owner), clone(o.Owner)),
		Creator: new(uint256.Int).Add(clone(s.Creator), clone(o.Creator)),
		Reserve: new(uint256.Int).Add(clone(s.Reserve), clone(o.Reserve)),
	}
}

// Total returns the sum of all shares.
func (s Split) Total() *uint256.Int {
	total := new(uint256.Int).Add(clone(s.Owner), clone(s.Creator))
	return total.Add(total, clone(s.Reserve))
}

// Policy divides a distributable amount between the platform owner, the
// mission creator and the type's reserve pool. Implementations must return
// shares that sum exactly to amount.
type Policy interface {
	// ID returns the policy identifier.
	ID() string

	// Split divides amount.
	Split(amount *uint256.Int) Split
}

// PlatformPolicy sends everything to the platform owner.
type PlatformPolicy struct{}

func (PlatformPolicy) ID() string { return "platform" }

func (PlatformPolicy) Split(amount *uint256.Int) Split {
	s := Zero()
	s.Owner = clone(amount)
	return s
}

// CreatorPolicy splits evenly between owner and creator. The creator
// receives the odd unit.
type CreatorPolicy struct{}

func (CreatorPolicy) ID() string { return "creator" }

func (CreatorPolicy) Split(amount *uint256.Int) Split {
	s := Zero()
	s.Owner = new(uint256.Int).Div(clone(amount), uint256.NewInt(2))
	s.Creator = new(uint256.Int).Sub(clone(amount), s.Owner)
	return s
}

// ReservePolicy gives a quarter to the owner and returns the rest to the
// reserve pool of the mission type.
type ReservePolicy struct{}

func (ReservePolicy) ID() string { return "reserve" }

func (ReservePolicy) Split(amount *uint256.Int) Split {
	s := Zero()
	s.Owner = new(uint256.Int).Div(clone(amount), uint256.NewInt(4))
	s.Reserve = new(uint256.Int).Sub(clone(amount), s.Owner)
	return s
}

func clone(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v.Clone()
}
