// Copyright (c) 2024 Thereisnosecondbest
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chainquery assembles the evaluation context a policy check needs
// from a data source, typically the JSON-RPC interface of a full node.
package chainquery

import (
	"context"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/Thereisnosecondbest/knotsspamchecker/policy"
)

// ContextSource supplies the facts about a transaction that cannot be
// derived from the transaction itself.  Implementations typically query a
// full node, but anything able to answer the two questions works, which also
// keeps the evaluator trivially testable.
type ContextSource interface {
	// PrevOutValues returns a view holding the value of every output
	// spent by the passed transaction's inputs.  An implementation must
	// either supply a complete view or return an error; it must never
	// silently omit a referenced output.
	PrevOutValues(ctx context.Context, tx *btcutil.Tx) (*policy.PrevOutView, error)

	// MempoolStats returns the unconfirmed ancestry statistics for the
	// transaction with the passed hash.  A transaction unknown to the
	// mempool has zero stats.
	MempoolStats(ctx context.Context, hash *chainhash.Hash) (policy.MempoolStats, error)
}

// BuildContext assembles a complete evaluation context for the passed
// transaction from the passed source.  It fails rather than returning a
// partially populated context.
func BuildContext(ctx context.Context, src ContextSource,
	tx *btcutil.Tx) (*policy.Context, error) {

	view, err := src.PrevOutValues(ctx, tx)
	if err != nil {
		return nil, err
	}

	stats, err := src.MempoolStats(ctx, tx.Hash())
	if err != nil {
		return nil, err
	}

	log.Debugf("Built context for %v: %d prev outs, %d/%d ancestors, "+
		"%d/%d descendants", tx.Hash(), len(tx.MsgTx().TxIn),
		stats.AncestorCount, stats.AncestorSize, stats.DescendantCount,
		stats.DescendantSize)

	return &policy.Context{PrevOuts: view, Stats: stats}, nil
}
