package core

import "errors"

// ErrBadLoadFormat is returned when a load spec element is not a mapping or
// lacks the mandatory fields attribute.
var ErrBadLoadFormat = errors.New("bad load format")

// ErrBadQuery is returned when entity resolution runs against a statement
// that references no mapped entities.
var ErrBadQuery = errors.New("bad query")

// ErrBadSpec is returned when a spec names an entity absent from the
// statement, or omits the entity while several are present.
var ErrBadSpec = errors.New("bad spec")

// ErrFieldNotFound is returned when a field is neither a column nor a
// computed accessor of the resolved entity.
var ErrFieldNotFound = errors.New("field not found")

// ErrInvalidPage is returned for a negative page size or a non-positive
// page number.
var ErrInvalidPage = errors.New("invalid page")

// ErrInvalidRequest is returned by statement compilation when a join cannot
// be built, e.g. no foreign key path or more than one.
var ErrInvalidRequest = errors.New("invalid request")

// ErrKeyNotFound is returned by a KVStore when the key is missing or expired.
var ErrKeyNotFound = errors.New("key not found")

// ErrCatalogFrozen is returned when registering into a frozen catalog.
var ErrCatalogFrozen = errors.New("catalog is frozen")
