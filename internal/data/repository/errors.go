package repository

import "errors"

// ErrNoRows is returned by writes that matched nothing.
var ErrNoRows = errors.New("no rows affected")
