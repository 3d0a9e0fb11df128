// Package repo holds the pieces every domain repository shares.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Base provides a shared foundation for domain repositories.
type Base struct {
	db *gorm.DB
}

// NewBase constructs a Base repository backed by the provided GORM connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the GORM connection bound to the supplied context (if any).
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// WithTx rebinds the base to a transaction.
func (b Base) WithTx(tx *gorm.DB) Base {
	if tx == nil {
		return b
	}
	return Base{db: tx}
}

// IsPostgres reports whether row locks and ILIKE are available.
func (b Base) IsPostgres() bool {
	return b.db != nil && b.db.Dialector.Name() == "postgres"
}

// Classify turns a repository error into a typed error: missing rows become
// NOT_FOUND with notFound as message, unique violations become CONFLICT, and
// everything else is a DEPENDENCY_ERROR labelled op. Typed errors pass through.
func Classify(err error, notFound, op string) error {
	if err == nil {
		return nil
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, op+": duplicate value")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}
