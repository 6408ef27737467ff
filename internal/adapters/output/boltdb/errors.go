package boltdb

import (
	"errors"
	"fmt"

	"playlist-bot/internal/domain"
)

// wrapStorage tags err as a storage failure unless it already is one
func wrapStorage(err error) error {
	if errors.Is(err, domain.ErrStorage) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrStorage, err)
}
