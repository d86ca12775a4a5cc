// Copyright (c) 2024 Thereisnosecondbest
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainquery

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/Thereisnosecondbest/knotsspamchecker/policy"
)

// mockSource is a ContextSource serving canned answers for testing the
// context assembly without a node.
type mockSource struct {
	view     *policy.PrevOutView
	viewErr  error
	stats    policy.MempoolStats
	statsErr error
}

func (m *mockSource) PrevOutValues(_ context.Context,
	_ *btcutil.Tx) (*policy.PrevOutView, error) {

	return m.view, m.viewErr
}

func (m *mockSource) MempoolStats(_ context.Context,
	_ *chainhash.Hash) (policy.MempoolStats, error) {

	return m.stats, m.statsErr
}

// testTx returns a minimal one-input one-output transaction.
func testTx() *btcutil.Tx {
	msgTx := wire.NewMsgTx(wire.TxVersion)
	msgTx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Index: 0},
		SignatureScript:  bytes.Repeat([]byte{0x51}, 25),
	})
	msgTx.AddTxOut(&wire.TxOut{Value: 1000, PkScript: []byte{0x6a}})
	return btcutil.NewTx(msgTx)
}

// TestBuildContext ensures a complete context is assembled from the source
// and that either failing query aborts assembly.
func TestBuildContext(t *testing.T) {
	tx := testTx()

	view := policy.NewPrevOutView()
	view.AddEntry(tx.MsgTx().TxIn[0].PreviousOutPoint, 5000)
	wantStats := policy.MempoolStats{
		AncestorCount:   3,
		AncestorSize:    700,
		DescendantCount: 1,
		DescendantSize:  250,
	}

	evalCtx, err := BuildContext(context.Background(), &mockSource{
		view:  view,
		stats: wantStats,
	}, tx)
	require.NoError(t, err)
	require.Equal(t, wantStats, evalCtx.Stats)

	value, ok := evalCtx.PrevOuts.LookupValue(
		tx.MsgTx().TxIn[0].PreviousOutPoint)
	require.True(t, ok)
	require.Equal(t, btcutil.Amount(5000), value)

	// A failed previous output query aborts assembly.
	errFetch := errors.New("fetch failed")
	_, err = BuildContext(context.Background(), &mockSource{
		viewErr: errFetch,
	}, tx)
	require.ErrorIs(t, err, errFetch)

	// A failed mempool stats query aborts assembly.
	errStats := errors.New("stats failed")
	_, err = BuildContext(context.Background(), &mockSource{
		view:     view,
		statsErr: errStats,
	}, tx)
	require.ErrorIs(t, err, errStats)
}

// TestRPCSourceHonorsCancellation ensures the RPC-backed source fails fast
// once the caller's context is cancelled instead of issuing further calls.
func TestRPCSourceHonorsCancellation(t *testing.T) {
	src := NewRPCSource(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := src.PrevOutValues(ctx, testTx())
	require.ErrorIs(t, err, context.Canceled)

	var hash chainhash.Hash
	_, err = src.MempoolStats(ctx, &hash)
	require.ErrorIs(t, err, context.Canceled)
}
