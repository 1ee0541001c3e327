// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package mission

import (
	"fmt"
	"time"

	"github.com/AccelByte/extend-mission-factory/pkg/settlement"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Type is the mission category. It drives the settlement split and the
// reserve-pool bucket that unclaimed funds are returned to.
type Type uint8

const (
	TypeCustom Type = iota
	TypeHourly
	TypeQuarterDaily
	TypeBiDaily
	TypeDaily
	TypeWeekly
	TypeMonthly
	TypeInviteOnly
	TypeUserMission
)

var typeNames = [...]string{
	TypeCustom:       "Custom",
	TypeHourly:       "Hourly",
	TypeQuarterDaily: "QuarterDaily",
	TypeBiDaily:      "BiDaily",
	TypeDaily:        "Daily",
	TypeWeekly:       "Weekly",
	TypeMonthly:      "Monthly",
	TypeInviteOnly:   "InviteOnly",
	TypeUserMission:  "UserMission",
}

// AllTypes lists every mission type in declaration order.
func AllTypes() []Type {
	types := make([]Type, len(typeNames))
	for i := range typeNames {
		types[i] = Type(i)
	}
	return types
}

func (t Type) String() string {
	if !t.Valid() {
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
	return typeNames[t]
}

// Valid reports whether t is a known mission type.
func (t Type) Valid() bool {
	return int(t) < len(typeNames)
}

// Relaxed reports whether the type uses the small-group creation bounds
// (invite-only and user-created missions).
func (t Type) Relaxed() bool {
	return t == TypeInviteOnly || t == TypeUserMission
}

// ParseType converts a type name into a Type.
func ParseType(s string) (Type, error) {
	for i, name := range typeNames {
		if name == s {
			return Type(i), nil
		}
	}
	return 0, fmt.Errorf("unknown mission type: %q", s)
}

func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("unknown mission type: %d", uint8(t))
	}
	return []byte(t.String()), nil
}

func (t *Type) UnmarshalText(b []byte) error {
	parsed, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Status is the lifecycle state of a mission.
type Status uint8

const (
	StatusPending Status = iota
	StatusEnrolling
	StatusArming
	StatusActive
	StatusPaused
	StatusPartlySuccess
	StatusSuccess
	StatusFailed
)

var statusNames = [...]string{
	StatusPending:       "Pending",
	StatusEnrolling:     "Enrolling",
	StatusArming:        "Arming",
	StatusActive:        "Active",
	StatusPaused:        "Paused",
	StatusPartlySuccess: "PartlySuccess",
	StatusSuccess:       "Success",
	StatusFailed:        "Failed",
}

func (s Status) String() string {
	if int(s) >= len(statusNames) {
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
	return statusNames[s]
}

// IsTerminal reports whether s is absorbing (Success or Failed).
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// ParseStatus converts a status name into a Status.
func ParseStatus(s string) (Status, error) {
	for i, name := range statusNames {
		if name == s {
			return Status(i), nil
		}
	}
	return 0, fmt.Errorf("unknown mission status: %q", s)
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	parsed, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// PlayerRecord is the participation record of one enrolled address.
type PlayerRecord struct {
	Address      common.Address `json:"address"`
	EnrolledAt   time.Time      `json:"enrolledAt"`
	Won          *uint256.Int   `json:"won"`
	WonAt        time.Time      `json:"wonAt"`
	Refunded     bool           `json:"refunded"`
	RefundFailed bool           `json:"refundFailed"`
	RefundedAt   time.Time      `json:"refundedAt"`
}

// HasWon reports whether the player already claimed a round.
func (p PlayerRecord) HasWon() bool {
	return !p.WonAt.IsZero()
}

// Params describes a mission to be created by the registry.
type Params struct {
	Type                   Type           `json:"type"`
	Name                   string         `json:"name"`
	Creator                common.Address `json:"creator"`
	EnrollmentStart        time.Time      `json:"enrollmentStart"`
	EnrollmentEnd          time.Time      `json:"enrollmentEnd"`
	MissionStart           time.Time      `json:"missionStart"`
	MissionEnd             time.Time      `json:"missionEnd"`
	MissionRounds          int            `json:"missionRounds"`
	RoundPauseDuration     time.Duration  `json:"roundPauseDuration"`
	LastRoundPauseDuration time.Duration  `json:"lastRoundPauseDuration"`
	EnrollmentAmount       *uint256.Int   `json:"enrollmentAmount"`
	EnrollmentMinPlayers   int            `json:"enrollmentMinPlayers"`
	EnrollmentMaxPlayers   int            `json:"enrollmentMaxPlayers"`
	Commitment             common.Hash    `json:"commitment"`
	FundFromReserve        bool           `json:"fundFromReserve"`
}

// Data is the full state of a single mission.
type Data struct {
	ID      common.Address `json:"id"`
	Type    Type           `json:"type"`
	Name    string         `json:"name"`
	Creator common.Address `json:"creator"`

	EnrollmentStart        time.Time     `json:"enrollmentStart"`
	EnrollmentEnd          time.Time     `json:"enrollmentEnd"`
	MissionStart           time.Time     `json:"missionStart"`
	MissionEnd             time.Time     `json:"missionEnd"`
	MissionRounds          int           `json:"missionRounds"`
	RoundPauseDuration     time.Duration `json:"roundPauseDuration"`
	LastRoundPauseDuration time.Duration `json:"lastRoundPauseDuration"`

	EnrollmentAmount     *uint256.Int `json:"enrollmentAmount"`
	EnrollmentMinPlayers int          `json:"enrollmentMinPlayers"`
	EnrollmentMaxPlayers int          `json:"enrollmentMaxPlayers"`

	// croStart = croInitial + enrollmentAmount * len(Players); croCurrent <= croStart.
	CroInitial *uint256.Int `json:"croInitial"`
	CroStart   *uint256.Int `json:"croStart"`
	CroCurrent *uint256.Int `json:"croCurrent"`
	Balance    *uint256.Int `json:"balance"`

	RoundCount     int            `json:"roundCount"`
	PauseTimestamp time.Time      `json:"pauseTimestamp"`
	Players        []PlayerRecord `json:"players"`

	Commitment   common.Hash      `json:"commitment"`
	FinalStatus  Status           `json:"finalStatus"`
	StartChecked bool             `json:"startChecked"`
	Shares       settlement.Split `json:"shares"`
	CreatedAt    time.Time        `json:"createdAt"`

	// PendingShares are split amounts still owed after a failed settlement
	// transfer. They stay in Balance until paid.
	PendingShares settlement.Split `json:"pendingShares"`
}

// NewData builds the initial state of a mission from validated params.
func NewData(id common.Address, p Params, seed *uint256.Int, now time.Time) Data {
	initial := amountOrZero(seed)
	return Data{
		ID:                     id,
		Type:                   p.Type,
		Name:                   p.Name,
		Creator:                p.Creator,
		EnrollmentStart:        p.EnrollmentStart,
		EnrollmentEnd:          p.EnrollmentEnd,
		MissionStart:           p.MissionStart,
		MissionEnd:             p.MissionEnd,
		MissionRounds:          p.MissionRounds,
		RoundPauseDuration:     p.RoundPauseDuration,
		LastRoundPauseDuration: p.LastRoundPauseDuration,
		EnrollmentAmount:       amountOrZero(p.EnrollmentAmount),
		EnrollmentMinPlayers:   p.EnrollmentMinPlayers,
		EnrollmentMaxPlayers:   p.EnrollmentMaxPlayers,
		CroInitial:             initial,
		CroStart:               initial.Clone(),
		CroCurrent:             initial.Clone(),
		Balance:                initial.Clone(),
		Players:                []PlayerRecord{},
		Commitment:             p.Commitment,
		Shares:                 settlement.Zero(),
		CreatedAt:              now,
		PendingShares:          settlement.Zero(),
	}
}

// Clone returns a deep copy safe to hand to other goroutines.
func (d *Data) Clone() Data {
	c := *d
	c.EnrollmentAmount = amountOrZero(d.EnrollmentAmount)
	c.CroInitial = amountOrZero(d.CroInitial)
	c.CroStart = amountOrZero(d.CroStart)
	c.CroCurrent = amountOrZero(d.CroCurrent)
	c.Balance = amountOrZero(d.Balance)
	c.Shares = d.Shares.Clone()
	c.PendingShares = d.PendingShares.Clone()
	c.Players = make([]PlayerRecord, len(d.Players))
	for i, p := range d.Players {
		p.Won = amountOrZero(p.Won)
		c.Players[i] = p
	}
	return c
}

func (d *Data) failedRefundCount() int {
	n := 0
	for _, p := range d.Players {
		if p.RefundFailed && !p.Refunded {
			n++
		}
	}
	return n
}

// Snapshot is a point-in-time copy of a mission with its derived status.
type Snapshot struct {
	Data
	Status Status `json:"status"`
}

// Rollup is the lightweight summary used for reconciliation.
type Rollup struct {
	Status        Status       `json:"status"`
	RoundCount    int          `json:"roundCount"`
	CroCurrent    *uint256.Int `json:"croCurrent"`
	PlayersCount  int          `json:"playersCount"`
	WinnersCount  int          `json:"winnersCount"`
	RefundedCount int          `json:"refundedCount"`
}

// RoundResult describes a successfully claimed round.
type RoundResult struct {
	Payout *uint256.Int `json:"payout"`
	Round  int          `json:"round"`
	Status Status       `json:"status"`
}

// RefundReport describes one refund pass.
type RefundReport struct {
	Refunded   []common.Address `json:"refunded"`
	Failed     []common.Address `json:"failed"`
	Settlement settlement.Split `json:"settlement"`
}

func amountOrZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v.Clone()
}
