package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woundtrack/ehr-api/internal/model"
	"github.com/woundtrack/ehr-api/internal/repository"
)

func newMockRepo(t *testing.T) (repository.VisitRepository, *sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")
	return NewVisitRepository(sqlxDB), sqlxDB, mock
}

func TestTransitionStatusTxAppliesCAS(t *testing.T) {
	repo, db, mock := newMockRepo(t)
	defer db.Close()

	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE visits").
		WithArgs(model.VisitStatusSigned, sqlmock.AnyArg(), id, model.VisitStatusReadyForSignature).
		WillReturnResult(sqlmock.NewResult(0, 1))

	tx, err := db.Beginx()
	require.NoError(t, err)

	err = repo.TransitionStatusTx(context.Background(), tx, id, model.VisitStatusReadyForSignature, model.VisitStatusSigned)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionStatusTxConflictOnStaleStatus(t *testing.T) {
	repo, db, mock := newMockRepo(t)
	defer db.Close()

	id := uuid.New()

	mock.ExpectBegin()
	// Another actor already moved the visit; the CAS matches zero rows.
	mock.ExpectExec("UPDATE visits").
		WithArgs(model.VisitStatusSigned, sqlmock.AnyArg(), id, model.VisitStatusReadyForSignature).
		WillReturnResult(sqlmock.NewResult(0, 0))

	tx, err := db.Beginx()
	require.NoError(t, err)

	err = repo.TransitionStatusTx(context.Background(), tx, id, model.VisitStatusReadyForSignature, model.VisitStatusSigned)
	assert.ErrorIs(t, err, repository.ErrStatusConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetVisitNotFound(t *testing.T) {
	repo, db, mock := newMockRepo(t)
	defer db.Close()

	id := uuid.New()
	mock.ExpectQuery("SELECT").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.Get(context.Background(), id)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttachSignatureTxPicksColumnByKind(t *testing.T) {
	repo, db, mock := newMockRepo(t)
	defer db.Close()

	id := uuid.New()
	sigID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE visits SET patient_signature_id").
		WithArgs(sigID, sqlmock.AnyArg(), id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	tx, err := db.Beginx()
	require.NoError(t, err)

	err = repo.AttachSignatureTx(context.Background(), tx, id, model.SignatureKindPatient, sigID)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
