// Copyright (c) 2024 Thereisnosecondbest
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainquery

import (
	"context"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/rpcclient"

	"github.com/Thereisnosecondbest/knotsspamchecker/policy"
)

// RPCSource is a ContextSource backed by the JSON-RPC interface of a full
// node.  Previous output values come from getrawtransaction, which requires
// the node to either have txindex enabled or still hold the funding
// transactions in its mempool.
type RPCSource struct {
	client *rpcclient.Client
}

// NewRPCSource returns a context source that queries the node behind the
// passed RPC client.
func NewRPCSource(client *rpcclient.Client) *RPCSource {
	return &RPCSource{client: client}
}

// PrevOutValues fetches the funding transaction of every input and records
// the value of the referenced output.  It fails on the first input whose
// funding transaction cannot be retrieved.
//
// This is part of the ContextSource interface implementation.
func (s *RPCSource) PrevOutValues(ctx context.Context,
	tx *btcutil.Tx) (*policy.PrevOutView, error) {

	view := policy.NewPrevOutView()
	for i, txIn := range tx.MsgTx().TxIn {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		prevOut := txIn.PreviousOutPoint
		prevTx, err := s.client.GetRawTransaction(&prevOut.Hash)
		if err != nil {
			return nil, fmt.Errorf("unable to fetch funding "+
				"transaction %v for input %d: %w", prevOut.Hash,
				i, err)
		}

		prevMsgTx := prevTx.MsgTx()
		if prevOut.Index >= uint32(len(prevMsgTx.TxOut)) {
			return nil, fmt.Errorf("input %d references output "+
				"%d of transaction %v which only has %d outputs",
				i, prevOut.Index, prevOut.Hash,
				len(prevMsgTx.TxOut))
		}

		value := btcutil.Amount(prevMsgTx.TxOut[prevOut.Index].Value)
		view.AddEntry(prevOut, value)
	}

	return view, nil
}

// MempoolStats fetches the unconfirmed ancestry statistics for the passed
// transaction hash via getmempoolentry.  A transaction the node's mempool
// does not know about yields zero stats rather than an error, since a
// transaction being checked before broadcast has no unconfirmed relatives by
// definition.
//
// This is part of the ContextSource interface implementation.
func (s *RPCSource) MempoolStats(ctx context.Context,
	hash *chainhash.Hash) (policy.MempoolStats, error) {

	if err := ctx.Err(); err != nil {
		return policy.MempoolStats{}, err
	}

	entry, err := s.client.GetMempoolEntry(hash.String())
	if err != nil {
		var rpcErr *btcjson.RPCError
		if errors.As(err, &rpcErr) &&
			rpcErr.Code == btcjson.ErrRPCNoTxInfo {

			log.Debugf("Transaction %v not in mempool, using "+
				"zero ancestry stats", hash)
			return policy.MempoolStats{}, nil
		}
		return policy.MempoolStats{}, fmt.Errorf("unable to fetch "+
			"mempool entry for %v: %w", hash, err)
	}

	return policy.MempoolStats{
		AncestorCount:   entry.AncestorCount,
		AncestorSize:    entry.AncestorSize,
		DescendantCount: entry.DescendantCount,
		DescendantSize:  entry.DescendantSize,
	}, nil
}

// Ensure RPCSource implements the ContextSource interface.
var _ ContextSource = (*RPCSource)(nil)
