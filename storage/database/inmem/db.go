package inmemdb

import (
	"sync"

	"github.com/trezcool/partnerships/core/partnership"
)

type DB struct {
	sync.RWMutex
	partners     map[string]*partnership.Partner
	partnerships map[string]*partnership.Partnership
	agreements   map[string]*partnership.Agreement
}

func Open() (*DB, error) {
	db := &DB{
		partners:     make(map[string]*partnership.Partner),
		partnerships: make(map[string]*partnership.Partnership),
		agreements:   make(map[string]*partnership.Agreement),
	}
	return db, nil
}
