package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/storewatch/backend/internal/models"
)

// translate maps gorm errors onto the model error taxonomy. The database must be opened with
// TranslateError so constraint violations arrive as gorm errors.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %s", models.ErrNotFound, what)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %s", models.ErrDuplicateID, what)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %s references a missing record", models.ErrValidation, what)
	}
	return err
}
