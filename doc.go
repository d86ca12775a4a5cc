// Copyright (c) 2024 Thereisnosecondbest
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
knotsspamchecker checks whether a Bitcoin transaction would be relayed under
a Bitcoin Knots-style standardness policy.

The transaction is supplied as serialized hex and judged against an ordered
battery of structural, economic, and topological checks.  Previous output
values and mempool ancestry statistics are fetched from a full node over
JSON-RPC, so the node must either have txindex enabled or still hold the
funding transactions in its mempool.

The exit code is 0 when the transaction passes every check, 1 when it is
rejected by policy, and 2 on an operational failure such as an unreachable
node or undecodable input.

Usage:

	knotsspamchecker [OPTIONS] [TXHEX]

Use knotsspamchecker -h to show the available options.
*/
package main
