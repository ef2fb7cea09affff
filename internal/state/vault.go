package state

import "github.com/google/uuid"

// VaultID identifies an open vault. Liquidation is terminal: once a vault is
// removed its ID is never reused.
type VaultID = uuid.UUID

// Vault is a user's locked collateral against minted liability. Amounts are in
// collateral units and liability units respectively; the price converts
// between them.
type Vault struct {
	ID         VaultID
	Owner      string
	Collateral float64
	Liability  float64
}
