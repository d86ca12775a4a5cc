// Copyright (c) 2024 Thereisnosecondbest
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package policy

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// testConfig returns the default policy config with the blanket parasite
// rejection disabled so the remaining checks are reachable.
func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.RejectParasites = false
	return cfg
}

// standardTxAndContext returns a transaction that passes every check under
// testConfig along with a complete context: one well-funded input with a
// plausible p2pkh redemption script and one p2pkh output.
func standardTxAndContext() (*btcutil.Tx, *Context) {
	prevOut := testOutPoint(0xaa, 0)
	tx := spendingTx(prevOut, 90000)

	view := NewPrevOutView()
	view.AddEntry(prevOut, 100000)
	return tx, &Context{PrevOuts: view}
}

// TestEvaluateStandard ensures a plain well-funded p2pkh transaction with no
// unconfirmed relatives is accepted.
func TestEvaluateStandard(t *testing.T) {
	tx, evalCtx := standardTxAndContext()

	verdict, err := testConfig().Evaluate(tx, evalCtx)
	require.NoError(t, err)
	require.True(t, verdict.Accept, "detail: %s", verdict.Detail)
	require.Equal(t, ErrorKind(""), verdict.Reason)
}

// TestEvaluateRejections exercises each rejection reason through the full
// evaluator, one mutated transaction or context per reason.
func TestEvaluateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *Config, tx *btcutil.Tx, evalCtx *Context)
		reason ErrorKind
	}{
		{
			name: "unrecognized output script",
			mutate: func(_ *Config, tx *btcutil.Tx, _ *Context) {
				tx.MsgTx().TxOut[0].PkScript = []byte{0x01, 0x02}
			},
			reason: ErrUnrecognizedScript,
		},
		{
			name: "parasite policy enabled",
			mutate: func(cfg *Config, _ *btcutil.Tx, _ *Context) {
				cfg.RejectParasites = true
			},
			reason: ErrPolicyDisabled,
		},
		{
			name: "overlay marker in data carrier",
			mutate: func(_ *Config, tx *btcutil.Tx, _ *Context) {
				tx.MsgTx().AddTxOut(&wire.TxOut{
					Value:    0,
					PkScript: dataCarrierScript([]byte("Omni")),
				})
			},
			reason: ErrOverlayProtocolDetected,
		},
		{
			name: "fee rate under minimum",
			mutate: func(_ *Config, tx *btcutil.Tx, evalCtx *Context) {
				prevOut := tx.MsgTx().TxIn[0].PreviousOutPoint
				evalCtx.PrevOuts.AddEntry(prevOut, 90000)
			},
			reason: ErrFeeRateTooLow,
		},
		{
			name: "sigop-adjusted size over weight limit",
			mutate: func(cfg *Config, _ *btcutil.Tx, _ *Context) {
				cfg.MaxTxWeight = 100
			},
			reason: ErrWeightExceeded,
		},
		{
			name: "signature script under bytes per sigop",
			mutate: func(_ *Config, tx *btcutil.Tx, _ *Context) {
				tx.MsgTx().TxIn[0].SignatureScript =
					bytes.Repeat([]byte{0x6a}, 19)
			},
			reason: ErrScriptSigTooSmall,
		},
		{
			name: "too many ancestors",
			mutate: func(_ *Config, _ *btcutil.Tx, evalCtx *Context) {
				evalCtx.Stats.AncestorCount = 25
			},
			reason: ErrTooManyAncestors,
		},
		{
			name: "ancestor size too large",
			mutate: func(_ *Config, _ *btcutil.Tx, evalCtx *Context) {
				evalCtx.Stats.AncestorSize = 101001
			},
			reason: ErrAncestorSizeTooLarge,
		},
		{
			name: "too many descendants",
			mutate: func(_ *Config, _ *btcutil.Tx, evalCtx *Context) {
				evalCtx.Stats.DescendantCount = 25
			},
			reason: ErrTooManyDescendants,
		},
		{
			name: "descendant size too large",
			mutate: func(_ *Config, _ *btcutil.Tx, evalCtx *Context) {
				evalCtx.Stats.DescendantSize = 101001
			},
			reason: ErrDescendantSizeTooLarge,
		},
		{
			name: "bare pubkey output",
			mutate: func(_ *Config, tx *btcutil.Tx, _ *Context) {
				tx.MsgTx().TxOut[0].PkScript = barePubKeyScript()
			},
			reason: ErrBarePubkey,
		},
		{
			name: "bare multisig output",
			mutate: func(_ *Config, tx *btcutil.Tx, _ *Context) {
				tx.MsgTx().TxOut[0].PkScript = bareMultisigScript()
			},
			reason: ErrBareMultisig,
		},
		{
			name: "data carrier script over size limit",
			mutate: func(cfg *Config, tx *btcutil.Tx, _ *Context) {
				cfg.MaxScriptSize = 40
				tx.MsgTx().TxOut[0].PkScript =
					dataCarrierScript(bytes.Repeat([]byte{0x33}, 50))
			},
			reason: ErrScriptTooLarge,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := testConfig()
			tx, evalCtx := standardTxAndContext()
			test.mutate(cfg, tx, evalCtx)

			verdict, err := cfg.Evaluate(tx, evalCtx)
			require.NoError(t, err)
			require.False(t, verdict.Accept)
			require.Equal(t, test.reason, verdict.Reason)
			require.NotEmpty(t, verdict.Detail)
		})
	}
}

// TestEvaluateMissingContext ensures an incomplete previous output view is
// surfaced as an error, not folded into a rejecting verdict.
func TestEvaluateMissingContext(t *testing.T) {
	tx, _ := standardTxAndContext()

	// Empty view: the spent output's value is unknown.
	_, err := testConfig().Evaluate(tx, &Context{PrevOuts: NewPrevOutView()})
	require.Error(t, err)
	require.ErrorIs(t, err, ErrMissingContext)

	var cerr ContextError
	require.ErrorAs(t, err, &cerr)

	// A nil context is equally a caller fault.
	_, err = testConfig().Evaluate(tx, nil)
	require.ErrorIs(t, err, ErrMissingContext)
}

// TestUnrecognizedScriptDominates ensures that any transaction with an
// unrecognized output script is rejected for that reason no matter what the
// rest of the context looks like, even when the context is incomplete.
func TestUnrecognizedScriptDominates(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tx, evalCtx := standardTxAndContext()
		tx.MsgTx().AddTxOut(&wire.TxOut{
			Value: rapid.Int64Range(0, 1000000).Draw(t, "value"),
			// OP_NOP can never begin a recognized form.
			PkScript: append([]byte{0x61},
				rapid.SliceOfN(rapid.Byte(), 0, 50).Draw(t, "tail")...),
		})
		evalCtx.Stats = MempoolStats{
			AncestorCount:   rapid.Int64Range(0, 100).Draw(t, "anc_count"),
			AncestorSize:    rapid.Int64Range(0, 200000).Draw(t, "anc_size"),
			DescendantCount: rapid.Int64Range(0, 100).Draw(t, "desc_count"),
			DescendantSize:  rapid.Int64Range(0, 200000).Draw(t, "desc_size"),
		}
		if rapid.Bool().Draw(t, "drop_view") {
			evalCtx.PrevOuts = NewPrevOutView()
		}

		verdict, err := testConfig().Evaluate(tx, evalCtx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if verdict.Reason != ErrUnrecognizedScript {
			t.Fatalf("got reason %v, want %v", verdict.Reason,
				ErrUnrecognizedScript)
		}
	})
}

// TestParasiteRejectionDominates ensures the blanket rejection fires before
// every later check, including the overlay and fee checks, for any
// transaction whose outputs are all recognized.
func TestParasiteRejectionDominates(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := DefaultConfig()
		require.True(t, cfg.RejectParasites)

		tx, evalCtx := standardTxAndContext()
		if rapid.Bool().Draw(t, "add_overlay_output") {
			tx.MsgTx().AddTxOut(&wire.TxOut{
				Value:    0,
				PkScript: dataCarrierScript([]byte("Omni")),
			})
		}
		if rapid.Bool().Draw(t, "drop_view") {
			evalCtx.PrevOuts = NewPrevOutView()
		}

		verdict, err := cfg.Evaluate(tx, evalCtx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if verdict.Reason != ErrPolicyDisabled {
			t.Fatalf("got reason %v, want %v", verdict.Reason,
				ErrPolicyDisabled)
		}
	})
}

// TestOverlayCheckedBeforeFees ensures an overlay marker rejection does not
// require fee information: the overlay check precedes the fee rate check, so
// an empty previous output view must not matter.
func TestOverlayCheckedBeforeFees(t *testing.T) {
	tx, _ := standardTxAndContext()
	tx.MsgTx().AddTxOut(&wire.TxOut{
		Value:    0,
		PkScript: dataCarrierScript([]byte("xxRSKxx")),
	})

	verdict, err := testConfig().Evaluate(tx, &Context{
		PrevOuts: NewPrevOutView(),
	})
	require.NoError(t, err)
	require.Equal(t, ErrOverlayProtocolDetected, verdict.Reason)
}

// TestEvaluateNoStateAcrossCalls ensures the evaluator does not carry state
// between calls: the same inputs produce the same verdict when evaluated
// repeatedly and concurrently.
func TestEvaluateNoStateAcrossCalls(t *testing.T) {
	cfg := testConfig()
	tx, evalCtx := standardTxAndContext()

	done := make(chan Verdict, 16)
	for i := 0; i < 16; i++ {
		go func() {
			verdict, err := cfg.Evaluate(tx, evalCtx)
			require.NoError(t, err)
			done <- verdict
		}()
	}
	for i := 0; i < 16; i++ {
		require.True(t, (<-done).Accept)
	}
}
