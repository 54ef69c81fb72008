package repository

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

// stubRow assigns its values to Scan destinations in order.
type stubRow []any

func (r stubRow) Scan(dest ...any) error {
	for i, d := range dest {
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(r[i]))
	}
	return nil
}

func TestScansNormaliseTimestampsToUTC(t *testing.T) {
	zone := time.FixedZone("UTC+3", 3*60*60)
	created := time.Date(2024, 3, 1, 15, 0, 0, 0, zone)
	closed := created.Add(time.Hour)
	category := "General"

	ticket, err := scanTicket(stubRow{
		"t-1", "title", "description",
		domain.TicketPriorityHigh, domain.TicketStatusClosed,
		&category, "u-1", (*string)(nil),
		created, created, &closed,
	})
	require.NoError(t, err)
	assert.Equal(t, time.UTC, ticket.CreatedAt.Location())
	assert.Equal(t, time.UTC, ticket.UpdatedAt.Location())
	require.NotNil(t, ticket.ClosedAt)
	assert.Equal(t, time.UTC, ticket.ClosedAt.Location())
	assert.True(t, ticket.CreatedAt.Equal(created))
	assert.Equal(t, 12, ticket.CreatedAt.Hour())

	user, err := scanUser(stubRow{
		"u-1", "reporter@example.com", "Reporter", domain.UserRoleReporter, "hash", created,
	})
	require.NoError(t, err)
	assert.Equal(t, time.UTC, user.CreatedAt.Location())
	assert.True(t, user.CreatedAt.Equal(created))
}
