// Copyright (c) 2024 Thereisnosecondbest
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package policy

import (
	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
)

const (
	// DefaultMaxTxWeight is the default maximum permitted weight of a
	// standard transaction.  The sigop-adjusted virtual size of a
	// transaction is compared against this limit.
	DefaultMaxTxWeight = 400000

	// DefaultMaxScriptSize is the default maximum size allowed for an
	// output script to be considered standard.  This value allows for a
	// 15-of-15 CHECKMULTISIG pay-to-script-hash redemption with
	// compressed keys.
	DefaultMaxScriptSize = 1650

	// DefaultDustRelayFee is the default fee, in satoshi per 1000 bytes,
	// used to compute the dust threshold of an output.
	DefaultDustRelayFee = btcutil.Amount(3000)

	// DefaultBytesPerSigOp is the default number of script bytes assumed
	// to correspond to one potentially-executed signature operation.
	DefaultBytesPerSigOp = 20

	// DefaultMinFeeRate is the default minimum fee rate, in satoshi per
	// 1000 virtual bytes, required of a standard transaction.  It is
	// equivalent to 1 satoshi per virtual byte.
	DefaultMinFeeRate = btcutil.Amount(1000)

	// DefaultMaxAncestors is the default maximum number of unconfirmed
	// ancestors a transaction may have in the mempool.
	DefaultMaxAncestors = 25

	// DefaultMaxAncestorSizeKB is the default maximum total size, in
	// kilobytes, of a transaction's unconfirmed ancestors.
	DefaultMaxAncestorSizeKB = 101

	// DefaultMaxDescendants is the default maximum number of unconfirmed
	// descendants a transaction may have in the mempool.
	DefaultMaxDescendants = 25

	// DefaultMaxDescendantSizeKB is the default maximum total size, in
	// kilobytes, of a transaction's unconfirmed descendants.
	DefaultMaxDescendantSizeKB = 101
)

// DefaultOverlayMarkers is the default set of byte patterns whose presence
// in a data carrier output flags a third-party asset overlay protocol.
var DefaultOverlayMarkers = [][]byte{
	[]byte("Omni"),
	[]byte("RSK"),
}

// IsDust returns whether or not the passed transaction output amount is
// considered dust based on the passed dust relay fee.  An output is dust
// when its value is strictly below the cost of relaying it, which is its
// serialized size times the relay fee per 1000 bytes.
func IsDust(txOut *wire.TxOut, dustRelayFee btcutil.Amount) bool {
	// dustRelayFee is in satoshi/kB, so multiply by the serialized size
	// (which is in bytes) and divide by 1000 to get the threshold in
	// satoshi.
	threshold := int64(txOut.SerializeSize()) * int64(dustRelayFee) / 1000
	return txOut.Value < threshold
}

// GetTxVirtualSize computes the virtual size of the given transaction.  A
// transaction's virtual size is based off its weight, creating a discount
// for any witness data it contains.
func GetTxVirtualSize(tx *btcutil.Tx) int64 {
	// vSize := (weight(tx) + 3) / 4
	return (blockchain.GetTransactionWeight(tx) +
		(blockchain.WitnessScaleFactor - 1)) /
		blockchain.WitnessScaleFactor
}

// estimateSigOps approximates the number of potentially-executed signature
// operations in the transaction as the sum over its inputs of the signature
// script length divided by bytesPerSigOp.  This is a heuristic, not an exact
// sigop count.
func estimateSigOps(tx *btcutil.Tx, bytesPerSigOp int64) int64 {
	var total int64
	for _, txIn := range tx.MsgTx().TxIn {
		total += int64(len(txIn.SignatureScript)) / bytesPerSigOp
	}
	return total
}

// AdjustedVSize returns the transaction's virtual size inflated by its
// estimated signature operation cost, with each estimated sigop costed at
// bytesPerSigOp bytes.
func AdjustedVSize(tx *btcutil.Tx, bytesPerSigOp int64) int64 {
	return GetTxVirtualSize(tx) + estimateSigOps(tx, bytesPerSigOp)*bytesPerSigOp
}

// TxFeeRate returns the fee rate paid by the passed transaction in satoshi
// per 1000 virtual bytes.  It returns a ContextError if the view lacks a
// value for any referenced input.
func TxFeeRate(tx *btcutil.Tx, view *PrevOutView) (btcutil.Amount, error) {
	fee, err := TxFee(tx, view)
	if err != nil {
		return 0, err
	}

	// Any serializable transaction has a nonzero virtual size.
	return btcutil.Amount(int64(fee) * 1000 / GetTxVirtualSize(tx)), nil
}

// meetsMinFeeRate returns whether or not a fee covers the passed minimum fee
// rate for a transaction of the passed virtual size.  minFeeRate is in
// satoshi/kvB so the comparison is fee*1000 >= vsize*minFeeRate, avoiding
// floating point math.
func meetsMinFeeRate(fee btcutil.Amount, vsize int64, minFeeRate btcutil.Amount) bool {
	return int64(fee)*1000 >= vsize*int64(minFeeRate)
}
