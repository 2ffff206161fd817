package repositories

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// Store-independent failures. Both the Postgres and Mongo repositories
// translate driver errors into these so callers never import a driver.
var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record conflict")
)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// isDuplicate reports whether err is a uniqueness violation from either store.
func isDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	return mongo.IsDuplicateKeyError(err)
}
