package postgres

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wodbooker-go/internal/domain/event"
	"wodbooker-go/test/helpers"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestEventRepository_Append(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEventRepository(db)

	mock.ExpectQuery("INSERT INTO events").
		WithArgs(sqlmock.AnyArg(), helpers.TestReservationID, sqlmock.AnyArg(), event.KindBookingSuccess, "done").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("evt-1"))

	id, err := repo.Append(helpers.TestContext(t), event.Event{
		ReservationID: helpers.TestReservationID,
		BookingDate:   helpers.FutureTime(1),
		Kind:          event.KindBookingSuccess,
		Message:       "done",
	})

	require.NoError(t, err)
	assert.Equal(t, "evt-1", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_Last_NoRowsReturnsNilNil(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEventRepository(db)

	mock.ExpectQuery("SELECT \\* FROM events").
		WithArgs(helpers.TestReservationID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "reservation_id", "booking_date", "kind", "message", "created_at"}))

	got, err := repo.Last(helpers.TestContext(t), helpers.TestReservationID)

	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
