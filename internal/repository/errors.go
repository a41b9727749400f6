// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as services
// and handlers to distinguish between different failure scenarios without
// inspecting driver errors themselves.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when no row matches the requested key.
var ErrNotFound = errors.New("not found")

// ErrUsernameExists is returned when a user is created with a username that
// is already taken.
var ErrUsernameExists = errors.New("username already exists")

// ErrValidation marks a record rejected because required fields are
// missing.  It is matched with errors.Is; the concrete value is a
// *ValidationError naming the fields.
var ErrValidation = errors.New("validation failed")

// ValidationError lists the required fields a record was missing.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	return "validation failed: missing " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// MySQL server error numbers the repositories translate.
const (
	mysqlDuplicateEntry   = 1062
	mysqlColumnCannotNull = 1048
	mysqlNoDefaultForCol  = 1364
)

func mysqlErrNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

// translate maps constraint violations reported by the server onto the
// package sentinels so callers never depend on driver types.
func translate(err error) error {
	switch mysqlErrNumber(err) {
	case mysqlColumnCannotNull, mysqlNoDefaultForCol:
		return &ValidationError{}
	}
	return err
}
