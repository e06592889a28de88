package adapter

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/solana"
)

// SPL mint account layout:
// mintAuthorityOption(4) | mintAuthority(32) | supply(8 LE) | decimals(1) |
// isInitialized(1) | freezeAuthorityOption(4) | freezeAuthority(32)
const mintAccountSize = 82

// MintInspector reads the mint account directly from chain. It is the
// cheapest security check the system has: one getAccountInfo call tells us
// whether supply is still mintable and whether transfers can be frozen,
// before any paid provider is touched.
type MintInspector struct {
	rpc solana.RPCClient
}

// NewMintInspector creates a mint inspector over the given RPC client.
func NewMintInspector(rpc solana.RPCClient) *MintInspector {
	return &MintInspector{rpc: rpc}
}

// Compile-time interface check.
var _ Adapter = (*MintInspector)(nil)

// Name identifies the source.
func (m *MintInspector) Name() string { return "mint_inspector" }

// Fetch inspects the mint account layout and the creator address.
func (m *MintInspector) Fetch(ctx context.Context, ref domain.TokenRef) (*Partial, error) {
	if err := ValidateAddress(ref.Mint); err != nil {
		return nil, fmt.Errorf("mint address: %w", err)
	}

	info, err := m.rpc.GetAccountInfo(ctx, ref.Mint)
	if err != nil {
		return nil, fmt.Errorf("%w: get mint account: %v", ErrUnavailable, err)
	}
	if info == nil {
		return nil, fmt.Errorf("%w: mint account %s not found", ErrUnavailable, ref.Mint)
	}

	data, err := base64.StdEncoding.DecodeString(info.Data)
	if err != nil {
		return nil, fmt.Errorf("decode mint account data: %w", err)
	}
	if len(data) < mintAccountSize {
		return nil, fmt.Errorf("mint account data too short: %d", len(data))
	}

	p := &Partial{Source: m.Name()}

	// COption<Pubkey>: 4-byte little-endian tag, 1 means present.
	if binary.LittleEndian.Uint32(data[0:4]) == 1 {
		p.MintAuthority = true
		p.Flags = append(p.Flags, domain.FlagMintableSupply)
	}

	supply := float64(binary.LittleEndian.Uint64(data[36:44]))
	p.SupplyRaw = &supply

	if binary.LittleEndian.Uint32(data[46:50]) == 1 {
		p.FreezeAuthority = true
	}

	// A creator that is not on the ed25519 curve is a program-derived
	// address, which launch factories use. Recorded, not judged here.
	if ref.Creator != "" {
		if onCurve, err := IsOnCurve(ref.Creator); err == nil && !onCurve {
			p.Flags = append(p.Flags, domain.FlagSharedFunder)
		}
	}

	return p, nil
}

// ValidateAddress checks that an address is valid base58 of 32 bytes.
func ValidateAddress(addr string) error {
	decoded, err := base58.Decode(addr)
	if err != nil {
		return fmt.Errorf("decode base58: %w", err)
	}
	if len(decoded) != 32 {
		return fmt.Errorf("address must be 32 bytes, got %d", len(decoded))
	}
	return nil
}

// IsOnCurve reports whether the address is a valid ed25519 curve point.
// Wallet keys are on-curve; program-derived addresses are not.
func IsOnCurve(addr string) (bool, error) {
	decoded, err := base58.Decode(addr)
	if err != nil {
		return false, fmt.Errorf("decode base58: %w", err)
	}
	if len(decoded) != 32 {
		return false, fmt.Errorf("address must be 32 bytes, got %d", len(decoded))
	}
	_, err = new(edwards25519.Point).SetBytes(decoded)
	return err == nil, nil
}
