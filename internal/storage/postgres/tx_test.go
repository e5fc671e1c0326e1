package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/cimillas/eventtix/internal/domain"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	other := errors.New("syntax error")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}, want: domain.ErrConstraintViolation},
		{name: "foreign key violation", err: &pgconn.PgError{Code: "23503"}, want: domain.ErrConstraintViolation},
		{name: "invalid uuid", err: &pgconn.PgError{Code: "22P02"}, want: domain.ErrInvalidID},
		{name: "connection failure", err: &pgconn.PgError{Code: "08006"}, want: domain.ErrUnavailable},
		{name: "admin shutdown", err: &pgconn.PgError{Code: "57P01"}, want: domain.ErrUnavailable},
		{name: "deadline", err: fmt.Errorf("query: %w", context.DeadlineExceeded), want: domain.ErrTimeout},
		{name: "unrecognised", err: other, want: other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify("get order", tt.err)
			assert.ErrorIs(t, got, tt.want)
			assert.Contains(t, got.Error(), "get order", "operation is kept in the message")
		})
	}
}

func TestClassify_Nil(t *testing.T) {
	t.Parallel()

	assert.NoError(t, classify("get order", nil))
}
