// Copyright (c) 2024 Thereisnosecondbest
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package policy

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
)

// Config houses the tunable policy parameters which control the evaluator.
// The zero value is not useful; start from DefaultConfig.
type Config struct {
	// MaxTxWeight is the maximum permitted sigop-adjusted virtual size of
	// a transaction.
	MaxTxWeight int64

	// MaxScriptSize is the maximum size in bytes allowed for an output
	// script.
	MaxScriptSize int

	// DustRelayFee is the fee in satoshi per 1000 bytes used to compute
	// the dust threshold of an output.
	DustRelayFee btcutil.Amount

	// BytesPerSigOp is the number of script bytes assumed to correspond
	// to one potentially-executed signature operation.  It is used both
	// to inflate the virtual size of sigop-heavy transactions and as the
	// minimum signature script length per input.
	BytesPerSigOp int64

	// MaxAncestors is the maximum number of unconfirmed ancestors a
	// transaction may have in the mempool.
	MaxAncestors int64

	// MaxAncestorSizeKB is the maximum total size in kilobytes of a
	// transaction's unconfirmed ancestors.
	MaxAncestorSizeKB int64

	// MaxDescendants is the maximum number of unconfirmed descendants a
	// transaction may have in the mempool.
	MaxDescendants int64

	// MaxDescendantSizeKB is the maximum total size in kilobytes of a
	// transaction's unconfirmed descendants.
	MaxDescendantSizeKB int64

	// MinFeeRate is the minimum fee rate in satoshi per 1000 virtual
	// bytes required of a transaction.
	MinFeeRate btcutil.Amount

	// OverlayMarkers is the set of byte patterns whose presence in a data
	// carrier output flags a third-party asset overlay protocol.
	OverlayMarkers [][]byte

	// RejectParasites, when true, refuses every transaction
	// unconditionally.  It reproduces the blanket rejection stance of the
	// strictest Knots-style filters and is on by default; disable it to
	// let the remaining checks decide.
	RejectParasites bool
}

// DefaultConfig returns a Config populated with the default Knots-style
// policy values.
func DefaultConfig() *Config {
	return &Config{
		MaxTxWeight:         DefaultMaxTxWeight,
		MaxScriptSize:       DefaultMaxScriptSize,
		DustRelayFee:        DefaultDustRelayFee,
		BytesPerSigOp:       DefaultBytesPerSigOp,
		MaxAncestors:        DefaultMaxAncestors,
		MaxAncestorSizeKB:   DefaultMaxAncestorSizeKB,
		MaxDescendants:      DefaultMaxDescendants,
		MaxDescendantSizeKB: DefaultMaxDescendantSizeKB,
		MinFeeRate:          DefaultMinFeeRate,
		OverlayMarkers:      DefaultOverlayMarkers,
		RejectParasites:     true,
	}
}

// Verdict is the outcome of evaluating a single transaction against the
// policy.  When Accept is false, Reason holds the kind of the first check
// that failed and Detail a human-readable description of it.
type Verdict struct {
	Accept bool
	Reason ErrorKind
	Detail string
}

// Evaluate runs the full battery of standardness checks against the passed
// transaction and caller-supplied context, stopping at the first failure.
// The returned error is non-nil only for caller faults such as an incomplete
// context (ContextError); a transaction that merely fails policy yields a
// rejecting Verdict and a nil error.
//
// The evaluator reads the transaction and context but never mutates or
// retains them, so it is safe for concurrent use on independent inputs.
func (c *Config) Evaluate(tx *btcutil.Tx, evalCtx *Context) (Verdict, error) {
	err := c.checkStandard(tx, evalCtx)
	if err == nil {
		log.Tracef("Transaction %v accepted", tx.Hash())
		return Verdict{Accept: true}, nil
	}

	var rerr RuleError
	if errors.As(err, &rerr) {
		var kind ErrorKind
		if !errors.As(rerr.Err, &kind) {
			return Verdict{}, err
		}
		log.Debugf("Transaction %v rejected: %v", tx.Hash(),
			rerr.Description)
		return Verdict{Reason: kind, Detail: rerr.Description}, nil
	}

	return Verdict{}, err
}

// checkStandard applies the policy checks in their fixed order and returns
// the first failure as a RuleError, or a ContextError when the context lacks
// required data.
func (c *Config) checkStandard(tx *btcutil.Tx, evalCtx *Context) error {
	if evalCtx == nil {
		return contextError("no evaluation context for transaction %v",
			tx.Hash())
	}
	msgTx := tx.MsgTx()

	// Every output script must be of a recognized form.  Bare pubkey and
	// bare multisig scripts are recognized here so the dedicated checks
	// further down can report them with their own reasons.
	for i, txOut := range msgTx.TxOut {
		if ClassifyScript(txOut.PkScript) != Unrecognized {
			continue
		}
		if isBarePubKeyScript(txOut.PkScript) ||
			isBareMultisigScript(txOut.PkScript) {

			continue
		}
		str := fmt.Sprintf("transaction output %d: unrecognized "+
			"script form", i)
		return ruleError(ErrUnrecognizedScript, str)
	}

	// A blanket rejection stance refuses everything regardless of the
	// remaining checks.
	if c.RejectParasites {
		return ruleError(ErrPolicyDisabled,
			"all transactions rejected by parasite policy")
	}

	// No output may embed a recognized asset overlay marker.
	if marker, ok := CarriesOverlayMarker(tx, c.OverlayMarkers); ok {
		str := fmt.Sprintf("transaction carries asset overlay "+
			"marker %q", marker)
		return ruleError(ErrOverlayProtocolDetected, str)
	}

	// The transaction must pay at least the minimum relay fee rate.
	// Computing the fee requires the value of every referenced previous
	// output; an incomplete view is a caller fault, not a rejection.
	fee, err := TxFee(tx, evalCtx.PrevOuts)
	if err != nil {
		return err
	}
	vsize := GetTxVirtualSize(tx)
	if !meetsMinFeeRate(fee, vsize, c.MinFeeRate) {
		str := fmt.Sprintf("transaction fee %d for %d virtual bytes "+
			"is under the minimum rate of %d sat/kvB", fee, vsize,
			c.MinFeeRate)
		return ruleError(ErrFeeRateTooLow, str)
	}

	// Limit the virtual size inflated by the estimated signature
	// operation cost.
	adjustedVSize := AdjustedVSize(tx, c.BytesPerSigOp)
	if adjustedVSize > c.MaxTxWeight {
		str := fmt.Sprintf("sigop-adjusted virtual size %d is larger "+
			"than max allowed %d", adjustedVSize, c.MaxTxWeight)
		return ruleError(ErrWeightExceeded, str)
	}

	// Each input must carry at least the minimum number of bytes per
	// potentially-executed signature operation.
	for i, txIn := range msgTx.TxIn {
		if int64(len(txIn.SignatureScript)) < c.BytesPerSigOp {
			str := fmt.Sprintf("transaction input %d: signature "+
				"script of %d bytes is under the minimum of %d "+
				"bytes per sigop", i, len(txIn.SignatureScript),
				c.BytesPerSigOp)
			return ruleError(ErrScriptSigTooSmall, str)
		}
	}

	// The transaction's unconfirmed ancestry must stay within the
	// configured mempool chain limits.
	if err := c.checkAncestorLimits(evalCtx.Stats); err != nil {
		return err
	}
	if err := c.checkDescendantLimits(evalCtx.Stats); err != nil {
		return err
	}

	// No output may expose a bare public key or a bare multi-signature
	// script, and no output script may exceed the maximum standard size.
	for i, txOut := range msgTx.TxOut {
		if isBarePubKeyScript(txOut.PkScript) {
			str := fmt.Sprintf("transaction output %d: pays to a "+
				"bare public key", i)
			return ruleError(ErrBarePubkey, str)
		}
	}
	for i, txOut := range msgTx.TxOut {
		if isBareMultisigScript(txOut.PkScript) {
			str := fmt.Sprintf("transaction output %d: bare "+
				"multi-signature script", i)
			return ruleError(ErrBareMultisig, str)
		}
	}
	for i, txOut := range msgTx.TxOut {
		if len(txOut.PkScript) > c.MaxScriptSize {
			str := fmt.Sprintf("transaction output %d: script of "+
				"%d bytes is larger than max allowed %d bytes",
				i, len(txOut.PkScript), c.MaxScriptSize)
			return ruleError(ErrScriptTooLarge, str)
		}
	}

	return nil
}
