package keys

import "errors"

var ErrKeyNotFound = errors.New("api key not found")
