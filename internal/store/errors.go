package store

import "errors"

// ErrorNotFound is returned by repository Get/Update/Delete calls when
// sql.ErrNoRows (or an empty affected-rows RETURNING) is hit.
var ErrorNotFound = errors.New("store: resource not found")
