package queryfilters

import (
	"github.com/rzpsarthak13/query-filters/internal/core"
)

// Error kinds returned by the client. Match them with errors.Is.
var (
	ErrBadLoadFormat  = core.ErrBadLoadFormat
	ErrBadQuery       = core.ErrBadQuery
	ErrBadSpec        = core.ErrBadSpec
	ErrFieldNotFound  = core.ErrFieldNotFound
	ErrInvalidPage    = core.ErrInvalidPage
	ErrInvalidRequest = core.ErrInvalidRequest
	ErrKeyNotFound    = core.ErrKeyNotFound
	ErrCatalogFrozen  = core.ErrCatalogFrozen
)
