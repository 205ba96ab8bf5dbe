// Package services holds the server's business logic: authentication, the
// authorization guard, transaction and profile management and exports.
package services

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/finwise/internal/common"
)

// storeError passes domain sentinels through and marks anything else as
// internal, keeping the cause for logs.
func storeError(op string, err error) error {
	for _, known := range []error{
		common.ErrorNotFound,
		common.ErrorAlreadyExists,
		common.ErrorValidation,
		common.ErrorForbidden,
		common.ErrorUnauthenticated,
		common.ErrorAuthentication,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%s: %w: %w", op, common.ErrorInternal, err)
}
