// Copyright (c) 2024 Thereisnosecondbest
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package policy

import (
	"bytes"

	"github.com/btcsuite/btcd/btcutil"
)

// CarriesOverlayMarker returns whether or not any data carrier output of the
// passed transaction contains one of the passed marker byte patterns, along
// with the marker that matched.
//
// Detection is a raw substring scan over the script bytes and is therefore
// best-effort: an overlay protocol using an unlisted marker is not detected,
// and unrelated data can produce a false positive.
func CarriesOverlayMarker(tx *btcutil.Tx, markers [][]byte) ([]byte, bool) {
	for _, txOut := range tx.MsgTx().TxOut {
		if ClassifyScript(txOut.PkScript) != DataCarrier {
			continue
		}

		for _, marker := range markers {
			if len(marker) == 0 {
				continue
			}
			if bytes.Contains(txOut.PkScript, marker) {
				return marker, true
			}
		}
	}

	return nil, false
}
