package gateway

import "errors"

var (
	errTxClosed  = errors.New("transaction already finished")
	errDuplicate = errors.New("duplicate key")
)
