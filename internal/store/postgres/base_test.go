package postgres

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"wodbooker-go/internal/store"
)

func TestHandleSQLError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{"nil error returns nil", nil, nil},
		{"sql.ErrNoRows returns store.ErrorNotFound", sql.ErrNoRows, store.ErrorNotFound},
		{"wrapped sql.ErrNoRows returns store.ErrorNotFound", errors.Join(errors.New("query failed"), sql.ErrNoRows), store.ErrorNotFound},
		{"other error passed through", errors.New("some database error"), errors.New("some database error")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HandleSQLError(tt.err)
			if tt.wantErr == nil {
				assert.NoError(t, got)
				return
			}
			if errors.Is(tt.wantErr, store.ErrorNotFound) {
				assert.ErrorIs(t, got, store.ErrorNotFound)
				return
			}
			assert.EqualError(t, got, tt.wantErr.Error())
		})
	}
}
