// Copyright (c) 2024 Thereisnosecondbest
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package policy

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
)

// PrevOutView holds the values of the previous outputs referenced by a
// transaction's inputs.  It is populated by the caller, typically from a full
// node, before evaluation.  A view never fetches anything itself.
type PrevOutView struct {
	entries map[wire.OutPoint]btcutil.Amount
}

// NewPrevOutView returns a new empty view of previous output values.
func NewPrevOutView() *PrevOutView {
	return &PrevOutView{
		entries: make(map[wire.OutPoint]btcutil.Amount),
	}
}

// AddEntry records the value of the output identified by the passed
// outpoint, replacing any existing entry.
func (v *PrevOutView) AddEntry(outpoint wire.OutPoint, value btcutil.Amount) {
	v.entries[outpoint] = value
}

// LookupValue returns the value of the output identified by the passed
// outpoint along with whether the view contains an entry for it.
func (v *PrevOutView) LookupValue(outpoint wire.OutPoint) (btcutil.Amount, bool) {
	value, ok := v.entries[outpoint]
	return value, ok
}

// MempoolStats describes the unconfirmed ancestry of a transaction from the
// point of view of a mempool: how many unconfirmed transactions it depends
// on, how many depend on it, and their total sizes in bytes.  The stats are
// supplied by the caller; the evaluator only compares them against limits.
type MempoolStats struct {
	AncestorCount   int64
	AncestorSize    int64
	DescendantCount int64
	DescendantSize  int64
}

// Context bundles the caller-supplied facts that are not derivable from the
// transaction alone.  A fresh Context is constructed per evaluation and
// discarded along with the verdict.
type Context struct {
	// PrevOuts supplies the value of every output spent by the
	// transaction's inputs.  A missing entry for any referenced input is
	// reported as a ContextError, never as a policy rejection.
	PrevOuts *PrevOutView

	// Stats describes the transaction's own unconfirmed ancestry.
	Stats MempoolStats
}

// TxFee returns the total fee paid by the passed transaction, which is the
// sum of the values of its referenced previous outputs less the sum of the
// values of its own outputs.  It returns a ContextError if the view lacks a
// value for any referenced input.
func TxFee(tx *btcutil.Tx, view *PrevOutView) (btcutil.Amount, error) {
	if view == nil {
		return 0, contextError("no previous output view for "+
			"transaction %v", tx.Hash())
	}

	var totalIn btcutil.Amount
	for i, txIn := range tx.MsgTx().TxIn {
		value, ok := view.LookupValue(txIn.PreviousOutPoint)
		if !ok {
			return 0, contextError("input %d references output %v "+
				"with no known value", i, txIn.PreviousOutPoint)
		}
		totalIn += value
	}

	var totalOut btcutil.Amount
	for _, txOut := range tx.MsgTx().TxOut {
		totalOut += btcutil.Amount(txOut.Value)
	}

	return totalIn - totalOut, nil
}
