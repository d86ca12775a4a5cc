// Copyright (c) 2024 Thereisnosecondbest
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package policy implements a Bitcoin Knots-style relay standardness policy
evaluator.

Standardness is a local relay notion that is stricter than consensus
validity: a transaction can be perfectly valid yet still be refused by a
node's mempool.  This package judges a single parsed transaction against a
fixed, ordered battery of structural, economic, and topological checks and
returns either an accepting verdict or the reason of the first check that
failed.

The evaluator is pure.  It performs no I/O and holds no state across calls;
the values it cannot derive from the transaction itself (previous output
values and mempool ancestry statistics) are supplied by the caller through a
Context.  An incomplete Context is reported as a ContextError, which is
deliberately distinct from a policy rejection.
*/
package policy
