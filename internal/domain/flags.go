package domain

// RiskFlag marks one individually-weak risk observation. No single flag is
// disqualifying; the signal engine's compound gate forces the lowest action
// when several co-occur, because activity-mimicking launches and genuine
// fraud are indistinguishable flag-by-flag.
type RiskFlag string

const (
	FlagUnsecuredLiquidity RiskFlag = "UNSECURED_LIQUIDITY" // LP tokens not locked or burned
	FlagMintableSupply     RiskFlag = "MINTABLE_SUPPLY"     // mint authority retained
	FlagFirstBlockCluster  RiskFlag = "FIRST_BLOCK_CLUSTER" // coordinated buying in the first block
	FlagRepeatCreator      RiskFlag = "REPEAT_CREATOR"      // creator previously launched a confirmed loss
	FlagSharedFunder       RiskFlag = "SHARED_FUNDER"       // early buyers funded by one wallet
	FlagCopycatSymbol      RiskFlag = "COPYCAT_SYMBOL"      // symbol recently tied to a confirmed loss
	FlagSellSimFailed      RiskFlag = "SELL_SIM_FAILED"     // simulated sell did not succeed
)

// CompoundFlags lists the flags counted by the compound-risk gate.
func CompoundFlags() []RiskFlag {
	return []RiskFlag{
		FlagUnsecuredLiquidity,
		FlagMintableSupply,
		FlagFirstBlockCluster,
		FlagRepeatCreator,
		FlagSharedFunder,
		FlagCopycatSymbol,
		FlagSellSimFailed,
	}
}

// IsValid checks if the flag is a known value.
func (f RiskFlag) IsValid() bool {
	for _, v := range CompoundFlags() {
		if v == f {
			return true
		}
	}
	return false
}

// HasFlag reports whether f is present in flags.
func HasFlag(flags []RiskFlag, f RiskFlag) bool {
	for _, v := range flags {
		if v == f {
			return true
		}
	}
	return false
}

// MergeFlags returns the union of two flag sets, preserving first-seen order.
func MergeFlags(a, b []RiskFlag) []RiskFlag {
	out := make([]RiskFlag, 0, len(a)+len(b))
	out = append(out, a...)
	for _, f := range b {
		if !HasFlag(out, f) {
			out = append(out, f)
		}
	}
	return out
}
