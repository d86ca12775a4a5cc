// Copyright (c) 2024 Thereisnosecondbest
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/rpcclient"

	"github.com/Thereisnosecondbest/knotsspamchecker/chainquery"
	"github.com/Thereisnosecondbest/knotsspamchecker/policy"
)

// cfg is the loaded configuration.  It is set in checkMain and must not be
// accessed before then.
var cfg *config

// loadTxHex returns the transaction hex according to the configured input
// source: the --tx flag, a file, stdin, or a bare command line argument.
func loadTxHex(cfg *config, remainingArgs []string) (string, error) {
	switch {
	case cfg.TxHex != "":
		return cfg.TxHex, nil

	case cfg.TxFile == "-":
		serialized, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("unable to read transaction "+
				"from stdin: %w", err)
		}
		return string(serialized), nil

	case cfg.TxFile != "":
		serialized, err := os.ReadFile(cfg.TxFile)
		if err != nil {
			return "", fmt.Errorf("unable to read transaction "+
				"file: %w", err)
		}
		return string(serialized), nil

	case len(remainingArgs) == 1:
		return remainingArgs[0], nil
	}

	return "", errors.New("no transaction specified -- use --tx, " +
		"--txfile, or pass the hex as an argument")
}

// decodeTx decodes a serialized transaction from its hex encoding.
func decodeTx(txHex string) (*btcutil.Tx, error) {
	serialized, err := hex.DecodeString(strings.TrimSpace(txHex))
	if err != nil {
		return nil, fmt.Errorf("invalid transaction hex: %w", err)
	}

	tx, err := btcutil.NewTxFromBytes(serialized)
	if err != nil {
		return nil, fmt.Errorf("unable to deserialize transaction: %w",
			err)
	}

	return tx, nil
}

// reportDustOutputs logs a warning for every output paying below its dust
// threshold.  Dust is a diagnostic here, not part of the verdict, mirroring
// relay implementations that exempt data carrier outputs from the dust rule.
func reportDustOutputs(tx *btcutil.Tx, dustRelayFee btcutil.Amount) {
	for i, txOut := range tx.MsgTx().TxOut {
		if policy.ClassifyScript(txOut.PkScript) == policy.DataCarrier {
			continue
		}
		if policy.IsDust(txOut, dustRelayFee) {
			log.Warnf("Output %d pays %v which is below its dust "+
				"threshold", i, btcutil.Amount(txOut.Value))
		}
	}
}

// checkMain is the real main function for knotsspamchecker.  The verdict is
// only meaningful when the returned error is nil.
func checkMain() (policy.Verdict, error) {
	// Load configuration and parse command line.  This function also
	// initializes logging and configures it accordingly.
	tcfg, remainingArgs, err := loadConfig()
	if err != nil {
		return policy.Verdict{}, err
	}
	cfg = tcfg
	initLogRotator(filepath.Join(cfg.LogDir, defaultLogFilename))

	log.Infof("Version %s", version())

	txHex, err := loadTxHex(cfg, remainingArgs)
	if err != nil {
		log.Errorf("%v", err)
		return policy.Verdict{}, err
	}

	tx, err := decodeTx(txHex)
	if err != nil {
		log.Errorf("%v", err)
		return policy.Verdict{}, err
	}
	log.Debugf("Checking transaction %v (%d inputs, %d outputs)",
		tx.Hash(), len(tx.MsgTx().TxIn), len(tx.MsgTx().TxOut))

	// Connect to the node that supplies previous output values and
	// mempool ancestry statistics.  Core-style RPC endpoints speak plain
	// HTTP POST without TLS.
	client, err := rpcclient.New(&rpcclient.ConnConfig{
		Host:         cfg.RPCServer,
		User:         cfg.RPCUser,
		Pass:         cfg.RPCPass,
		HTTPPostMode: true,
		DisableTLS:   true,
	}, nil)
	if err != nil {
		log.Errorf("Unable to create RPC client: %v", err)
		return policy.Verdict{}, err
	}
	defer client.Shutdown()

	src := chainquery.NewRPCSource(client)
	evalCtx, err := chainquery.BuildContext(context.Background(), src, tx)
	if err != nil {
		log.Errorf("Unable to build evaluation context for %v: %v",
			tx.Hash(), err)
		return policy.Verdict{}, err
	}

	reportDustOutputs(tx, cfg.DustRelayFee)
	if feeRate, err := policy.TxFeeRate(tx, evalCtx.PrevOuts); err == nil {
		log.Debugf("Transaction %v pays %d sat/kvB over %d virtual "+
			"bytes", tx.Hash(), int64(feeRate),
			policy.GetTxVirtualSize(tx))
	}

	verdict, err := cfg.policyConfig().Evaluate(tx, evalCtx)
	if err != nil {
		log.Errorf("Unable to evaluate transaction %v: %v", tx.Hash(),
			err)
		return policy.Verdict{}, err
	}

	if verdict.Accept {
		log.Infof("Transaction %v is standard and passes all relay "+
			"policy checks", tx.Hash())
	} else {
		log.Infof("Transaction %v fails relay policy: %v (%s)",
			tx.Hash(), verdict.Reason, verdict.Detail)
	}

	return verdict, nil
}

func main() {
	verdict, err := checkMain()

	// The log rotator is closed here rather than deferred in checkMain so
	// the exit paths below do not lose buffered log output.
	if logRotator != nil {
		logRotator.Close()
	}

	switch {
	case err != nil:
		os.Exit(2)
	case !verdict.Accept:
		os.Exit(1)
	}
}
