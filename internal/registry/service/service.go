// Package service orchestrates admission, reconciliation, and the query
// surface of the registry. Age eligibility is a two-phase check: admission
// stores the encrypted fields untouched, reconciliation enforces the
// category's minimum age once plaintext is disclosed.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"sealedreg/internal/audit"
	"sealedreg/internal/enclave"
	"sealedreg/internal/registry/metrics"
	"sealedreg/internal/registry/models"
	"sealedreg/internal/registry/policy"
	"sealedreg/internal/registry/stats"
	dErrors "sealedreg/pkg/domain-errors"
	"sealedreg/pkg/requestcontext"
)

// MaxBatchSize bounds one batch admission so a single call stays cheap and
// boundable in cost.
const MaxBatchSize = 10

// Store is the record store as consumed by this service.
type Store interface {
	Exists(ctx context.Context, owner string) (bool, error)
	Insert(ctx context.Context, record *models.Record) error
	InsertBatch(ctx context.Context, records []*models.Record) error
	Get(ctx context.Context, owner string) (*models.Record, error)
	MarkDecrypted(ctx context.Context, owner, plainName string, plainAge int, plainContact string, now time.Time) (*models.Record, error)
	ListOwners(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int, error)
}

// AuditPublisher receives domain audit events. Emission is best-effort and
// never fails the triggering operation.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service implements the registry operations over a Store, a proof Verifier,
// and the statistics aggregator.
type Service struct {
	store    Store
	verifier enclave.Verifier
	agg      *stats.Aggregator

	// binder, when set, ties disclosed plaintext to the stored ciphertext at
	// finalize time. Nil means that check stays with the external collaborator.
	binder enclave.Binder

	// mu serializes mutations so each store write and its aggregator update
	// land in one critical section. Store-wide exclusion also covers racing
	// admissions for the same owner.
	mu sync.Mutex

	logger  *slog.Logger
	metrics *metrics.Metrics
	audit   AuditPublisher
	tracer  trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.audit = publisher }
}

// WithDisclosureBinder enables in-core plaintext-to-ciphertext binding checks
// at finalize time.
func WithDisclosureBinder(binder enclave.Binder) Option {
	return func(s *Service) { s.binder = binder }
}

// New constructs a Service.
func New(store Store, verifier enclave.Verifier, agg *stats.Aggregator, opts ...Option) *Service {
	s := &Service{
		store:    store,
		verifier: verifier,
		agg:      agg,
		logger:   slog.Default(),
		tracer:   otel.Tracer("sealedreg/registry"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register admits a single participant. The proof gate is the only external
// call; everything after it is one all-or-nothing store mutation.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.Record, error) {
	ctx, span := s.tracer.Start(ctx, "registry.Register")
	defer span.End()

	category, err := req.Validate()
	if err != nil {
		return nil, err
	}

	if err := s.verifier.VerifyAndBind(ctx, req.Handles(), req.Proof); err != nil {
		s.reject(ctx, dErrors.CodeInvalidProof, "owner", req.Owner)
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidProof, "proof verification failed")
	}

	record := &models.Record{
		Owner:             req.Owner,
		EncryptedName:     req.EncryptedName,
		EncryptedAge:      req.EncryptedAge,
		EncryptedContact:  req.EncryptedContact,
		EncryptedCategory: req.EncryptedCategory,
		Category:          category,
		SubmittedAt:       requestcontext.Now(ctx),
		State:             models.StateSubmitted,
	}

	s.mu.Lock()
	err = s.store.Insert(ctx, record)
	if err == nil {
		s.agg.RecordAdmitted(1)
	}
	s.mu.Unlock()
	if err != nil {
		err = translateStoreErr(err)
		s.reject(ctx, dErrors.CodeOf(err), "owner", req.Owner)
		return nil, err
	}

	s.observeAdmission(1, false)
	s.emit(ctx, audit.ActionRegistered, req.Owner)
	s.logger.InfoContext(ctx, "participant admitted",
		"owner", req.Owner, "category", string(category))
	return record, nil
}

// RegisterBatch admits up to MaxBatchSize participants under one shared proof.
// The batch is validated fully before any mutation; a failing element rejects
// the whole batch with the store unchanged.
func (s *Service) RegisterBatch(ctx context.Context, req models.BatchRegisterRequest) ([]string, error) {
	ctx, span := s.tracer.Start(ctx, "registry.RegisterBatch")
	defer span.End()

	if err := req.CheckLengths(); err != nil {
		s.reject(ctx, dErrors.CodeArrayLengthMismatch)
		return nil, err
	}
	if req.Len() == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "batch must not be empty")
	}
	if req.Len() > MaxBatchSize {
		s.reject(ctx, dErrors.CodeBatchTooLarge)
		return nil, dErrors.New(dErrors.CodeBatchTooLarge, "batch exceeds maximum size")
	}

	now := requestcontext.Now(ctx)
	records := make([]*models.Record, 0, req.Len())
	for i := 0; i < req.Len(); i++ {
		elem := req.Element(i)
		category, err := elem.Validate()
		if err != nil {
			return nil, err
		}
		records = append(records, &models.Record{
			Owner:             elem.Owner,
			EncryptedName:     elem.EncryptedName,
			EncryptedAge:      elem.EncryptedAge,
			EncryptedContact:  elem.EncryptedContact,
			EncryptedCategory: elem.EncryptedCategory,
			Category:          category,
			SubmittedAt:       now,
			State:             models.StateSubmitted,
		})
	}

	// One proof covers every handle in the batch.
	if err := s.verifier.VerifyAndBind(ctx, req.Handles(), req.Proof); err != nil {
		s.reject(ctx, dErrors.CodeInvalidProof)
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidProof, "proof verification failed")
	}

	s.mu.Lock()
	err := s.store.InsertBatch(ctx, records)
	if err == nil {
		s.agg.RecordAdmitted(len(records))
	}
	s.mu.Unlock()
	if err != nil {
		err = translateStoreErr(err)
		s.reject(ctx, dErrors.CodeOf(err))
		return nil, err
	}

	s.observeAdmission(len(records), true)
	for _, record := range records {
		s.emit(ctx, audit.ActionRegistered, record.Owner)
	}
	s.logger.InfoContext(ctx, "batch admitted", "size", len(records))
	return req.Owners, nil
}

// Finalize reconciles one record with its authorized plaintext disclosure.
// This is the only point where age eligibility can be enforced, and the only
// mutation a record ever sees after admission.
func (s *Service) Finalize(ctx context.Context, owner string, req models.FinalizeRequest) (*models.Record, error) {
	ctx, span := s.tracer.Start(ctx, "registry.Finalize")
	defer span.End()
	start := time.Now()
	defer s.observeFinalizeDuration(start)

	if err := req.Validate(); err != nil {
		return nil, err
	}

	record, err := s.store.Get(ctx, owner)
	if err != nil {
		err = translateStoreErr(err)
		s.reject(ctx, dErrors.CodeOf(err), "owner", owner)
		return nil, err
	}
	if record.Decrypted() {
		s.reject(ctx, dErrors.CodeAlreadyDecrypted, "owner", owner)
		return nil, dErrors.New(dErrors.CodeAlreadyDecrypted, "record already finalized")
	}

	// Eligibility: the record's category is immutable, so this check needs no
	// lock even under racing finalize calls.
	if minAge := policy.MinimumAge(record.Category); req.PlainAge < minAge {
		s.reject(ctx, dErrors.CodeAgeRequirementNotMet, "owner", owner)
		return nil, dErrors.New(dErrors.CodeAgeRequirementNotMet, "disclosed age below category minimum")
	}

	if s.binder != nil {
		handles := []enclave.Ciphertext{record.EncryptedName, record.EncryptedAge, record.EncryptedContact}
		disclosure := enclave.Disclosure{Name: req.PlainName, Age: req.PlainAge, Contact: req.PlainContact}
		if err := s.binder.BindDisclosure(ctx, handles, disclosure); err != nil {
			s.reject(ctx, dErrors.CodeInvalidProof, "owner", owner)
			return nil, dErrors.Wrap(err, dErrors.CodeInvalidProof, "disclosure does not match stored ciphertext")
		}
	}

	now := requestcontext.Now(ctx)
	s.mu.Lock()
	updated, err := s.store.MarkDecrypted(ctx, owner, req.PlainName, req.PlainAge, req.PlainContact, now)
	if err == nil {
		s.agg.RecordDecrypted(now.Sub(updated.SubmittedAt))
	}
	s.mu.Unlock()
	if err != nil {
		err = translateStoreErr(err)
		s.reject(ctx, dErrors.CodeOf(err), "owner", owner)
		return nil, err
	}

	s.observeFinalize(now.Sub(updated.SubmittedAt))
	s.emit(ctx, audit.ActionFinalized, owner)
	s.logger.InfoContext(ctx, "participant finalized", "owner", owner)
	return updated, nil
}

// IsRegistered reports whether an owner has ever been admitted.
func (s *Service) IsRegistered(ctx context.Context, owner string) (bool, error) {
	return s.store.Exists(ctx, owner)
}

// ListRegistered returns all owners in admission order.
func (s *Service) ListRegistered(ctx context.Context) ([]string, error) {
	return s.store.ListOwners(ctx)
}

// GetInfo returns the caller-facing snapshot of one record. Plaintext fields
// appear only after reconciliation.
func (s *Service) GetInfo(ctx context.Context, owner string) (models.Snapshot, error) {
	record, err := s.store.Get(ctx, owner)
	if err != nil {
		return models.Snapshot{}, translateStoreErr(err)
	}
	return models.SnapshotOf(record), nil
}

// Statistics returns the running aggregates in O(1).
func (s *Service) Statistics(_ context.Context) stats.Snapshot {
	return s.agg.Snapshot()
}
