// Copyright (c) 2024 Thereisnosecondbest
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package policy

import "fmt"

// checkAncestorLimits compares the passed mempool stats against the
// configured unconfirmed ancestor limits.
func (c *Config) checkAncestorLimits(stats MempoolStats) error {
	if stats.AncestorCount >= c.MaxAncestors {
		str := fmt.Sprintf("transaction has %d unconfirmed ancestors "+
			"which is at or above the max of %d",
			stats.AncestorCount, c.MaxAncestors)
		return ruleError(ErrTooManyAncestors, str)
	}

	maxSize := c.MaxAncestorSizeKB * 1000
	if stats.AncestorSize > maxSize {
		str := fmt.Sprintf("transaction ancestor size %d bytes is "+
			"larger than max allowed %d bytes", stats.AncestorSize,
			maxSize)
		return ruleError(ErrAncestorSizeTooLarge, str)
	}

	return nil
}

// checkDescendantLimits compares the passed mempool stats against the
// configured unconfirmed descendant limits.
func (c *Config) checkDescendantLimits(stats MempoolStats) error {
	if stats.DescendantCount >= c.MaxDescendants {
		str := fmt.Sprintf("transaction has %d unconfirmed "+
			"descendants which is at or above the max of %d",
			stats.DescendantCount, c.MaxDescendants)
		return ruleError(ErrTooManyDescendants, str)
	}

	maxSize := c.MaxDescendantSizeKB * 1000
	if stats.DescendantSize > maxSize {
		str := fmt.Sprintf("transaction descendant size %d bytes is "+
			"larger than max allowed %d bytes", stats.DescendantSize,
			maxSize)
		return ruleError(ErrDescendantSizeTooLarge, str)
	}

	return nil
}
