// Package game defines the domain model for the longshot jackpot contract:
// its configuration, per-player shoot deadlines, and settlement transfers.
package game

import "time"

// Default configuration applied at initialization.
const (
	DefaultTicketPrice      uint64 = 0
	DefaultRewardPercentage uint8  = 80
	DefaultAdminPercentage  uint8  = 4
	DefaultRoundDuration    int64  = 90 // seconds
)

// Config is the singleton contract configuration. The denom is fixed at
// initialization; everything else is mutable by the owner.
type Config struct {
	Owner            string
	TicketPrice      uint64
	RewardPercentage uint8
	AdminPercentage  uint8
	RoundDuration    int64
	Denom            string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Deadline records a player's shoot deadline as an absolute unix timestamp.
// Entries are upserted on every successful shoot and never deleted.
type Deadline struct {
	Player    string
	ExpiresAt int64
	UpdatedAt time.Time
}

// PlayerStatus classifies a player's eligibility at a point in time.
type PlayerStatus string

const (
	StatusUnjoined PlayerStatus = "unjoined"
	StatusActive   PlayerStatus = "active"
	StatusExpired  PlayerStatus = "expired"
)

// StatusAt derives the eligibility state from the stored deadline.
func (d Deadline) StatusAt(now int64) PlayerStatus {
	if now < d.ExpiresAt {
		return StatusActive
	}
	return StatusExpired
}

// Payment is the funds attached to a shoot request.
type Payment struct {
	Denom  string `json:"denom"`
	Amount uint64 `json:"amount"`
}

// TransferKind distinguishes the two settlement legs.
type TransferKind string

const (
	TransferReward TransferKind = "reward"
	TransferAdmin  TransferKind = "admin"
)

// TransferStatus is the lifecycle state of a queued transfer intent.
type TransferStatus string

const (
	TransferPending   TransferStatus = "pending"
	TransferCompleted TransferStatus = "completed"
	TransferFailed    TransferStatus = "failed"
)

// Transfer is a declared payout intent. The service only records intents; the
// external ledger moves the funds after the declaring invocation returns.
type Transfer struct {
	ID        string
	Kind      TransferKind
	Recipient string
	Denom     string
	Amount    uint64
	Status    TransferStatus
	Message   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Settlement is the outcome of a successful goal shot.
type Settlement struct {
	Player       string
	PoolBalance  uint64
	RewardAmount uint64
	AdminAmount  uint64
	Transfers    []Transfer
}
