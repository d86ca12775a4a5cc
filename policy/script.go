// Copyright (c) 2024 Thereisnosecondbest
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package policy

import (
	"github.com/btcsuite/btcd/txscript"
)

// ScriptKind is an enumeration for the list of output script forms the
// checker recognizes.
type ScriptKind byte

// Kinds of output script recognized by the classifier.
const (
	// Unrecognized is any script that does not match one of the
	// recognized forms below.
	Unrecognized ScriptKind = iota

	// PubKeyHash is a pay-to-pubkey-hash script.
	PubKeyHash

	// ScriptHash is a pay-to-script-hash script.
	ScriptHash

	// DataCarrier is a provably unspendable data carrier script.
	DataCarrier
)

// scriptKindToName houses the human-readable strings which describe each
// script kind.
var scriptKindToName = []string{
	Unrecognized: "unrecognized",
	PubKeyHash:   "pubkeyhash",
	ScriptHash:   "scripthash",
	DataCarrier:  "datacarrier",
}

// String implements the Stringer interface by returning the name of the enum
// script kind.  If the enum is invalid then "Invalid" will be returned.
func (k ScriptKind) String() string {
	if int(k) >= len(scriptKindToName) {
		return "Invalid"
	}
	return scriptKindToName[k]
}

// scriptHashTrailer is the opcode required at the final position of a
// pay-to-script-hash script.  The canonical template ends in OP_EQUAL, but
// the Knots filter this checker mirrors matches OP_EQUALVERIFY there, so the
// same opcode is matched here to keep verdicts identical.  Switching to the
// canonical template is a one-line change.
const scriptHashTrailer = txscript.OP_EQUALVERIFY

// isPubKeyHashScript returns whether or not the passed script is a
// pay-to-pubkey-hash script per the fixed 25-byte template.
func isPubKeyHashScript(script []byte) bool {
	return len(script) == 25 &&
		script[0] == txscript.OP_DUP &&
		script[1] == txscript.OP_HASH160 &&
		script[2] == txscript.OP_DATA_20 &&
		script[23] == txscript.OP_EQUALVERIFY &&
		script[24] == txscript.OP_CHECKSIG
}

// isScriptHashScript returns whether or not the passed script is a
// pay-to-script-hash script per the fixed 23-byte template.  See the
// scriptHashTrailer comment regarding the final opcode.
func isScriptHashScript(script []byte) bool {
	return len(script) == 23 &&
		script[0] == txscript.OP_HASH160 &&
		script[1] == txscript.OP_DATA_20 &&
		script[22] == scriptHashTrailer
}

// isDataCarrierScript returns whether or not the passed script is a data
// carrier script, meaning it starts with OP_RETURN.  The remainder of the
// script is not inspected.
func isDataCarrierScript(script []byte) bool {
	return len(script) > 0 && script[0] == txscript.OP_RETURN
}

// ClassifyScript returns the kind of the passed output script.  It is a
// total function: every byte sequence, including an empty one, maps to
// exactly one kind.
//
// Witness program templates are intentionally not recognized, matching the
// filter whose verdicts this package reproduces.
func ClassifyScript(script []byte) ScriptKind {
	switch {
	case isPubKeyHashScript(script):
		return PubKeyHash
	case isScriptHashScript(script):
		return ScriptHash
	case isDataCarrierScript(script):
		return DataCarrier
	}
	return Unrecognized
}

// isBarePubKeyScript returns whether or not the passed script pays directly
// to an exposed public key.  Recognition is delegated to the script engine's
// standard script analysis.
func isBarePubKeyScript(script []byte) bool {
	return txscript.GetScriptClass(script) == txscript.PubKeyTy
}

// isBareMultisigScript returns whether or not the passed script is a bare
// multi-signature script.  Recognition is delegated to the script engine's
// standard script analysis.
func isBareMultisigScript(script []byte) bool {
	return txscript.GetScriptClass(script) == txscript.MultiSigTy
}
