package exception

import "github.com/yanun0323/errors"

// Store errors
var (
	ErrStoreClosed  = errors.New("store: closed")
	ErrStoreOpen    = errors.New("store: open")
	ErrStoreMigrate = errors.New("store: migrate")
	ErrStoreInsert  = errors.New("store: insert")
)
