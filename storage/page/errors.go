package page

import (
	"fmt"

	"github.com/ryogrid/pagestore/pagestoreerr"
)

var errCodecWrongType = fmt.Errorf("page: type byte does not match decoder: %w", pagestoreerr.ErrCodec)
