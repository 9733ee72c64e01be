package btree

import (
	"fmt"

	"github.com/ryogrid/pagestore/pagestoreerr"
)

var errEmptyInternal = fmt.Errorf("btree: internal page has no entries: %w", pagestoreerr.ErrInvariantViolation)
