package visit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woundtrack/ehr-api/internal/model"
	"github.com/woundtrack/ehr-api/internal/repository"
	"github.com/woundtrack/ehr-api/internal/service/audit"
	"github.com/woundtrack/ehr-api/internal/service/event"
	"github.com/woundtrack/ehr-api/internal/service/notification"
	"github.com/woundtrack/ehr-api/internal/service/procedurescope"
	"github.com/woundtrack/ehr-api/pkg/metrics"
)

// fakeVisitRepo keeps visits in memory and honors the compare-and-swap
// contract of TransitionStatusTx.
type fakeVisitRepo struct {
	visits map[uuid.UUID]*model.Visit
	notes  []*model.VisitNote
}

func newFakeVisitRepo() *fakeVisitRepo {
	return &fakeVisitRepo{visits: map[uuid.UUID]*model.Visit{}}
}

func (r *fakeVisitRepo) Create(_ context.Context, v *model.Visit) error {
	cp := *v
	r.visits[v.ID] = &cp
	return nil
}

func (r *fakeVisitRepo) Get(_ context.Context, id uuid.UUID) (*model.Visit, error) {
	v, ok := r.visits[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (r *fakeVisitRepo) Update(_ context.Context, v *model.Visit) error {
	if _, ok := r.visits[v.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *v
	r.visits[v.ID] = &cp
	return nil
}

func (r *fakeVisitRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.visits[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.visits, id)
	return nil
}

func (r *fakeVisitRepo) List(_ context.Context, _ *model.VisitFilters) ([]*model.Visit, error) {
	out := make([]*model.Visit, 0, len(r.visits))
	for _, v := range r.visits {
		cp := *v
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeVisitRepo) WithTx(_ context.Context, fn func(tx *sqlx.Tx) error) error {
	return fn(nil)
}

func (r *fakeVisitRepo) TransitionStatusTx(_ context.Context, _ *sqlx.Tx, id uuid.UUID, from, to model.VisitStatus) error {
	v, ok := r.visits[id]
	if !ok || v.Status != from {
		return repository.ErrStatusConflict
	}
	v.Status = to
	return nil
}

func (r *fakeVisitRepo) AttachSignatureTx(_ context.Context, _ *sqlx.Tx, id uuid.UUID, kind model.SignatureKind, sigID uuid.UUID) error {
	v, ok := r.visits[id]
	if !ok {
		return repository.ErrNotFound
	}
	if kind == model.SignatureKindPatient {
		v.PatientSignatureID = &sigID
	} else {
		v.ProviderSignatureID = &sigID
	}
	return nil
}

func (r *fakeVisitRepo) AppendNoteTx(_ context.Context, _ *sqlx.Tx, note *model.VisitNote) error {
	r.notes = append(r.notes, note)
	return nil
}

func (r *fakeVisitRepo) IncrementAddendaTx(_ context.Context, _ *sqlx.Tx, id uuid.UUID) error {
	v, ok := r.visits[id]
	if !ok {
		return repository.ErrNotFound
	}
	v.NumberOfAddenda++
	return nil
}

func (r *fakeVisitRepo) ListNotes(_ context.Context, visitID uuid.UUID) ([]*model.VisitNote, error) {
	var out []*model.VisitNote
	for _, n := range r.notes {
		if n.VisitID == visitID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *fakeVisitRepo) ListPendingReview(_ context.Context, _ uuid.UUID) ([]*model.Visit, error) {
	return nil, nil
}

func (r *fakeVisitRepo) ListApprovedUnclaimed(_ context.Context, _ int) ([]*model.Visit, error) {
	return nil, nil
}

func (r *fakeVisitRepo) MarkClaimed(_ context.Context, _ uuid.UUID) error { return nil }

type fakeBillingRepo struct {
	rows map[uuid.UUID]*model.Billing
}

func newFakeBillingRepo() *fakeBillingRepo {
	return &fakeBillingRepo{rows: map[uuid.UUID]*model.Billing{}}
}

func (r *fakeBillingRepo) Upsert(_ context.Context, b *model.Billing) error {
	r.rows[b.VisitID] = b
	return nil
}

func (r *fakeBillingRepo) GetByVisit(_ context.Context, visitID uuid.UUID) (*model.Billing, error) {
	b, ok := r.rows[visitID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return b, nil
}

func (r *fakeBillingRepo) DeleteByVisit(_ context.Context, visitID uuid.UUID) error {
	if _, ok := r.rows[visitID]; !ok {
		return repository.ErrNotFound
	}
	delete(r.rows, visitID)
	return nil
}

func (r *fakeBillingRepo) MarkValidatedTx(_ context.Context, _ *sqlx.Tx, visitID, validatorID uuid.UUID) error {
	if b, ok := r.rows[visitID]; ok {
		b.ValidatedBy = &validatorID
	}
	return nil
}

type fakeSignatureRepo struct {
	sigs map[uuid.UUID]*model.Signature
}

func newFakeSignatureRepo() *fakeSignatureRepo {
	return &fakeSignatureRepo{sigs: map[uuid.UUID]*model.Signature{}}
}

func (r *fakeSignatureRepo) Create(_ context.Context, s *model.Signature) error {
	r.sigs[s.ID] = s
	return nil
}

func (r *fakeSignatureRepo) Get(_ context.Context, id uuid.UUID) (*model.Signature, error) {
	s, ok := r.sigs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s, nil
}

type fakeScopeRepo struct {
	scopes []*model.ProcedureScope
}

func (r *fakeScopeRepo) Create(_ context.Context, s *model.ProcedureScope) error {
	r.scopes = append(r.scopes, s)
	return nil
}

func (r *fakeScopeRepo) Update(_ context.Context, _ *model.ProcedureScope) error { return nil }

func (r *fakeScopeRepo) Get(_ context.Context, _ uuid.UUID) (*model.ProcedureScope, error) {
	return nil, repository.ErrNotFound
}

func (r *fakeScopeRepo) ListByTenant(_ context.Context, _ uuid.UUID) ([]*model.ProcedureScope, error) {
	return r.scopes, nil
}

type fakeAuditRepo struct{}

func (fakeAuditRepo) Create(_ context.Context, _ *model.AuditLog) error { return nil }
func (fakeAuditRepo) List(_ context.Context, _ *model.AuditFilters) ([]*model.AuditLog, error) {
	return nil, nil
}

type fakeOutboxRepo struct {
	events []*model.OutboxEvent
}

func (r *fakeOutboxRepo) Create(_ context.Context, e *model.OutboxEvent) error {
	r.events = append(r.events, e)
	return nil
}

func (r *fakeOutboxRepo) CreateTx(_ context.Context, _ *sqlx.Tx, e *model.OutboxEvent) error {
	r.events = append(r.events, e)
	return nil
}

func (r *fakeOutboxRepo) GetPendingEvents(_ context.Context, _ int) ([]*model.OutboxEvent, error) {
	return r.events, nil
}

func (r *fakeOutboxRepo) UpdateStatus(_ context.Context, _ uuid.UUID, _ model.OutboxStatus, _ *string) error {
	return nil
}

type fixture struct {
	svc     *Service
	repo    *fakeVisitRepo
	billing *fakeBillingRepo
	sigs    *fakeSignatureRepo
	outbox  *fakeOutboxRepo
	scopes  *fakeScopeRepo
}

func newFixture() *fixture {
	return newFixtureWithMetrics(nil)
}

func newFixtureWithMetrics(m *metrics.Metrics) *fixture {
	repo := newFakeVisitRepo()
	billing := newFakeBillingRepo()
	sigs := newFakeSignatureRepo()
	outbox := &fakeOutboxRepo{}
	scopes := &fakeScopeRepo{}

	auditor := audit.NewService(fakeAuditRepo{})
	events := event.NewService(outbox)
	scopeSvc := procedurescope.NewService(scopes, auditor)

	return &fixture{
		svc:     NewService(repo, billing, sigs, scopeSvc, auditor, events, notification.NoopNotifier{}, m),
		repo:    repo,
		billing: billing,
		sigs:    sigs,
		outbox:  outbox,
		scopes:  scopes,
	}
}

func clinicianActor(credential model.Credential) *model.TokenClaims {
	return &model.TokenClaims{
		UserID:     uuid.New(),
		TenantID:   uuid.New(),
		Email:      "clinician@example.com",
		Credential: credential,
		Role:       model.RoleClinician,
	}
}

func (f *fixture) createVisit(t *testing.T, actor *model.TokenClaims) *model.Visit {
	t.Helper()
	v := &model.Visit{
		PatientID:  uuid.New(),
		FacilityID: uuid.New(),
		VisitDate:  time.Now(),
		VisitType:  model.VisitTypeInitial,
	}
	require.NoError(t, f.svc.CreateVisit(context.Background(), actor, v))
	return v
}

func (f *fixture) attachProviderSignature(t *testing.T, actor *model.TokenClaims, visitID uuid.UUID) {
	t.Helper()
	sig := &model.Signature{ID: uuid.New(), Kind: model.SignatureKindProvider}
	require.NoError(t, f.sigs.Create(context.Background(), sig))
	require.NoError(t, f.svc.AttachSignature(context.Background(), actor, visitID, model.SignatureKindProvider, sig.ID))
}

func (f *fixture) attachPatientSignature(t *testing.T, actor *model.TokenClaims, visitID uuid.UUID) {
	t.Helper()
	sig := &model.Signature{ID: uuid.New(), Kind: model.SignatureKindPatient}
	require.NoError(t, f.sigs.Create(context.Background(), sig))
	require.NoError(t, f.svc.AttachSignature(context.Background(), actor, visitID, model.SignatureKindPatient, sig.ID))
}

func TestCreateVisitDerivesPatientSignatureRequirement(t *testing.T) {
	f := newFixture()

	rn := clinicianActor(model.CredentialRN)
	v := f.createVisit(t, rn)
	assert.True(t, v.RequiresPatientSignature)
	assert.Equal(t, model.VisitStatusDraft, v.Status)
	assert.Equal(t, model.CredentialRN, v.ClinicianCredential)

	md := clinicianActor(model.CredentialMD)
	v = f.createVisit(t, md)
	assert.False(t, v.RequiresPatientSignature)
}

func TestSignRequiresSignatures(t *testing.T) {
	f := newFixture()
	rn := clinicianActor(model.CredentialRN)
	v := f.createVisit(t, rn)

	err := f.svc.Sign(context.Background(), rn, v.ID)
	rej, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, RejectMissingSignature, rej.Kind)

	f.attachProviderSignature(t, rn, v.ID)
	err = f.svc.Sign(context.Background(), rn, v.ID)
	rej, ok = AsRejection(err)
	require.True(t, ok, "RN visit still needs the patient countersignature")
	assert.Equal(t, RejectMissingSignature, rej.Kind)

	f.attachPatientSignature(t, rn, v.ID)
	require.NoError(t, f.svc.Sign(context.Background(), rn, v.ID))

	signed, err := f.svc.GetVisit(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VisitStatusSigned, signed.Status)
}

func TestSignBlockedByOutOfScopeBilling(t *testing.T) {
	f := newFixture()
	rn := clinicianActor(model.CredentialRN)

	f.scopes.scopes = []*model.ProcedureScope{{
		TenantID:           rn.TenantID,
		ProcedureCode:      "11042",
		ProcedureName:      "Debridement, subcutaneous tissue",
		AllowedCredentials: []string{"MD", "DO", "PA", "NP"},
	}}

	v := f.createVisit(t, rn)
	require.NoError(t, f.billing.Upsert(context.Background(), &model.Billing{
		VisitID:  v.ID,
		TenantID: rn.TenantID,
		CPTCodes: []string{"11042"},
	}))

	f.attachProviderSignature(t, rn, v.ID)
	f.attachPatientSignature(t, rn, v.ID)

	err := f.svc.Sign(context.Background(), rn, v.ID)
	rej, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, RejectAuthorizationDenied, rej.Kind)
	assert.Equal(t,
		"Cannot document CPT 11042 (Debridement, subcutaneous tissue): Requires MD, DO, PA, NP credentials",
		rej.Reason,
	)
}

func TestSignEmitsOutboxEventAndMarksBillingValidated(t *testing.T) {
	f := newFixture()
	md := clinicianActor(model.CredentialMD)

	v := f.createVisit(t, md)
	require.NoError(t, f.billing.Upsert(context.Background(), &model.Billing{
		VisitID:  v.ID,
		TenantID: md.TenantID,
		CPTCodes: []string{"99213"},
	}))
	f.attachProviderSignature(t, md, v.ID)

	require.NoError(t, f.svc.Sign(context.Background(), md, v.ID))

	require.Len(t, f.outbox.events, 1)
	assert.Equal(t, model.EventVisitSigned, f.outbox.events[0].EventType)

	b, err := f.billing.GetByVisit(context.Background(), v.ID)
	require.NoError(t, err)
	require.NotNil(t, b.ValidatedBy)
	assert.Equal(t, md.UserID, *b.ValidatedBy)
}

func TestFullReviewCycle(t *testing.T) {
	f := newFixture()
	md := clinicianActor(model.CredentialMD)
	reviewer := &model.TokenClaims{
		UserID:   uuid.New(),
		TenantID: md.TenantID,
		Role:     model.RoleOfficeReviewer,
	}

	v := f.createVisit(t, md)
	f.attachProviderSignature(t, md, v.ID)
	require.NoError(t, f.svc.Sign(context.Background(), md, v.ID))
	require.NoError(t, f.svc.Submit(context.Background(), md, v.ID))

	// Reviewer bounces the visit back.
	require.NoError(t, f.svc.RequestCorrection(context.Background(), reviewer, v.ID, "diagnosis code missing"))
	got, err := f.svc.GetVisit(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VisitStatusCorrectionRequested, got.Status)

	notes, err := f.svc.ListNotes(context.Background(), v.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, model.VisitNoteCorrection, notes[0].Type)
	assert.Equal(t, "diagnosis code missing", notes[0].Note)

	// Clinician re-signs and resubmits; reviewer approves.
	require.NoError(t, f.svc.Sign(context.Background(), md, v.ID))
	require.NoError(t, f.svc.Submit(context.Background(), md, v.ID))
	require.NoError(t, f.svc.Approve(context.Background(), reviewer, v.ID))

	got, err = f.svc.GetVisit(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VisitStatusApproved, got.Status)
}

func TestRequestCorrectionRequiresNote(t *testing.T) {
	f := newFixture()
	reviewer := &model.TokenClaims{UserID: uuid.New(), TenantID: uuid.New(), Role: model.RoleOfficeReviewer}

	err := f.svc.RequestCorrection(context.Background(), reviewer, uuid.New(), "")
	assert.Error(t, err)
	_, ok := AsRejection(err)
	assert.False(t, ok, "a missing note is a caller bug, not a business rejection")
}

func TestVoidAppendsNoteAndIsTerminal(t *testing.T) {
	f := newFixture()
	md := clinicianActor(model.CredentialMD)
	admin := &model.TokenClaims{UserID: uuid.New(), TenantID: md.TenantID, Role: model.RoleTenantAdmin}

	v := f.createVisit(t, md)
	require.NoError(t, f.svc.Void(context.Background(), admin, v.ID, "duplicate entry"))

	got, err := f.svc.GetVisit(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VisitStatusVoided, got.Status)

	notes, err := f.svc.ListNotes(context.Background(), v.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, model.VisitNoteVoid, notes[0].Type)

	// No action is legal afterwards.
	err = f.svc.Void(context.Background(), admin, v.ID, "again")
	_, ok := AsRejection(err)
	assert.True(t, ok)

	_, err = f.svc.UpdateVisit(context.Background(), md, v.ID, &model.UpdateVisitRequest{})
	_, ok = AsRejection(err)
	assert.True(t, ok)
}

func TestVoidedVisitRefusesSignatureAttachment(t *testing.T) {
	f := newFixture()
	rn := clinicianActor(model.CredentialRN)
	admin := &model.TokenClaims{UserID: uuid.New(), TenantID: rn.TenantID, Role: model.RoleTenantAdmin}

	v := f.createVisit(t, rn)
	require.NoError(t, f.svc.Void(context.Background(), admin, v.ID, "entered against wrong patient"))

	sig := &model.Signature{ID: uuid.New(), Kind: model.SignatureKindProvider}
	require.NoError(t, f.sigs.Create(context.Background(), sig))

	err := f.svc.AttachSignature(context.Background(), rn, v.ID, model.SignatureKindProvider, sig.ID)
	rej, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, RejectIllegalTransition, rej.Kind)

	got, err := f.svc.GetVisit(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ProviderSignatureID, "voided visits stay frozen")
	assert.Nil(t, got.PatientSignatureID)
}

func TestTransitionMetricsRecorded(t *testing.T) {
	m := metrics.NewMetrics("ehrtest", "visit")
	f := newFixtureWithMetrics(m)
	md := clinicianActor(model.CredentialMD)

	v := f.createVisit(t, md)
	f.attachProviderSignature(t, md, v.ID)
	require.NoError(t, f.svc.Sign(context.Background(), md, v.ID))
	require.NoError(t, f.svc.Submit(context.Background(), md, v.ID))

	// A signed visit cannot be signed again.
	require.Error(t, f.svc.Sign(context.Background(), md, v.ID))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.VisitTransitions.WithLabelValues("sign")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.VisitTransitions.WithLabelValues("submit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.VisitRejections.WithLabelValues("illegal_transition")))
}

func TestAddendumIncrementsCounter(t *testing.T) {
	f := newFixture()
	md := clinicianActor(model.CredentialMD)

	v := f.createVisit(t, md)
	f.attachProviderSignature(t, md, v.ID)
	require.NoError(t, f.svc.Sign(context.Background(), md, v.ID))

	require.NoError(t, f.svc.AddAddendum(context.Background(), md, v.ID, "patient called with follow-up question"))
	require.NoError(t, f.svc.AddAddendum(context.Background(), md, v.ID, "dressing supplies ordered"))

	got, err := f.svc.GetVisit(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.NumberOfAddenda)
	assert.Equal(t, model.VisitStatusSigned, got.Status, "addenda never change status")

	notes, err := f.svc.ListNotes(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Len(t, notes, 2)
}

func TestAddendumRefusedOnDraft(t *testing.T) {
	f := newFixture()
	md := clinicianActor(model.CredentialMD)
	v := f.createVisit(t, md)

	err := f.svc.AddAddendum(context.Background(), md, v.ID, "too early")
	rej, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, RejectIllegalTransition, rej.Kind)
}

func TestDeleteOnlyInDraftRemovesBilling(t *testing.T) {
	f := newFixture()
	md := clinicianActor(model.CredentialMD)

	v := f.createVisit(t, md)
	require.NoError(t, f.billing.Upsert(context.Background(), &model.Billing{VisitID: v.ID, TenantID: md.TenantID}))

	require.NoError(t, f.svc.DeleteVisit(context.Background(), md, v.ID))
	_, err := f.svc.GetVisit(context.Background(), v.ID)
	assert.Error(t, err)
	_, err = f.billing.GetByVisit(context.Background(), v.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestConcurrentTransitionSurfacesConflict(t *testing.T) {
	f := newFixture()
	md := clinicianActor(model.CredentialMD)

	v := f.createVisit(t, md)
	f.attachProviderSignature(t, md, v.ID)
	require.NoError(t, f.svc.Sign(context.Background(), md, v.ID))

	// Simulate a stale caller: the repo row is already signed, but force the
	// CAS to run against a stale expected status by voiding first.
	admin := &model.TokenClaims{UserID: uuid.New(), TenantID: md.TenantID, Role: model.RoleTenantAdmin}
	stale := f.repo.visits[v.ID]
	require.NoError(t, f.svc.Submit(context.Background(), md, v.ID))
	stale.Status = model.VisitStatusSigned

	err := f.svc.Void(context.Background(), admin, v.ID, "cleanup")
	require.NoError(t, err)

	// Direct CAS with a stale expectation reports the conflict rejection.
	casErr := f.repo.TransitionStatusTx(context.Background(), nil, v.ID, model.VisitStatusSigned, model.VisitStatusSubmitted)
	assert.ErrorIs(t, casErr, repository.ErrStatusConflict)

	mapped := f.svc.transitionErr(casErr)
	rej, ok := AsRejection(mapped)
	require.True(t, ok)
	assert.Equal(t, "visit status changed while you were working, please reload and try again", rej.Reason)
}

func TestAttachPatientSignatureRefusedWhenNotRequired(t *testing.T) {
	f := newFixture()
	md := clinicianActor(model.CredentialMD)
	v := f.createVisit(t, md)

	sig := &model.Signature{ID: uuid.New(), Kind: model.SignatureKindPatient}
	require.NoError(t, f.sigs.Create(context.Background(), sig))

	err := f.svc.AttachSignature(context.Background(), md, v.ID, model.SignatureKindPatient, sig.ID)
	rej, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, RejectIllegalTransition, rej.Kind)
}
