package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"sealedreg/internal/audit"
	"sealedreg/internal/enclave"
	"sealedreg/internal/enclave/mocks"
	"sealedreg/internal/registry/models"
	"sealedreg/internal/registry/stats"
	"sealedreg/internal/registry/store"
	dErrors "sealedreg/pkg/domain-errors"
	"sealedreg/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	verifier *mocks.MockVerifier
	store    *store.InMemory
	agg      *stats.Aggregator
	sink     *audit.MemorySink
	svc      *Service
	ctx      context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.verifier = mocks.NewMockVerifier(s.ctrl)
	s.store = store.NewInMemory()
	s.agg = stats.New()
	s.sink = audit.NewMemorySink()
	s.svc = New(s.store, s.verifier, s.agg,
		WithAuditPublisher(audit.NewPublisher(s.sink)))
	s.ctx = context.Background()
}

func (s *ServiceSuite) newRequest(owner, category string) models.RegisterRequest {
	return models.RegisterRequest{
		Owner:             owner,
		EncryptedName:     enclave.Ciphertext("enc-name-" + owner),
		EncryptedAge:      enclave.Ciphertext("enc-age-" + owner),
		EncryptedContact:  enclave.Ciphertext("enc-contact-" + owner),
		EncryptedCategory: enclave.Ciphertext("enc-category-" + owner),
		Category:          category,
		Proof:             []byte("proof"),
	}
}

func (s *ServiceSuite) newBatch(size int, category string) models.BatchRegisterRequest {
	req := models.BatchRegisterRequest{Proof: []byte("proof")}
	for i := 0; i < size; i++ {
		owner := fmt.Sprintf("owner-%d", i)
		req.Owners = append(req.Owners, owner)
		req.EncryptedNames = append(req.EncryptedNames, enclave.Ciphertext("n"+owner))
		req.EncryptedAges = append(req.EncryptedAges, enclave.Ciphertext("a"+owner))
		req.EncryptedContacts = append(req.EncryptedContacts, enclave.Ciphertext("c"+owner))
		req.EncryptedCategories = append(req.EncryptedCategories, enclave.Ciphertext("k"+owner))
		req.Categories = append(req.Categories, category)
	}
	return req
}

func (s *ServiceSuite) expectVerify() {
	s.verifier.EXPECT().VerifyAndBind(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
}

func (s *ServiceSuite) TestRegister() {
	s.Run("admits a participant and becomes registered forever", func() {
		registered, err := s.svc.IsRegistered(s.ctx, "alice")
		s.Require().NoError(err)
		s.False(registered)

		s.expectVerify()
		record, err := s.svc.Register(s.ctx, s.newRequest("alice", "individual"))
		s.Require().NoError(err)
		s.Equal(models.StateSubmitted, record.State)
		s.False(record.SubmittedAt.IsZero())

		registered, err = s.svc.IsRegistered(s.ctx, "alice")
		s.Require().NoError(err)
		s.True(registered)
	})

	s.Run("rejects an invalid proof with no state change", func() {
		s.verifier.EXPECT().VerifyAndBind(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(enclave.ErrProofRejected)
		_, err := s.svc.Register(s.ctx, s.newRequest("bob", "team"))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidProof))

		registered, err := s.svc.IsRegistered(s.ctx, "bob")
		s.Require().NoError(err)
		s.False(registered)
	})

	s.Run("rejects a duplicate owner and leaves the first admission untouched", func() {
		s.expectVerify()
		first, err := s.svc.Register(s.ctx, s.newRequest("carol", "combat"))
		s.Require().NoError(err)

		s.expectVerify()
		_, err = s.svc.Register(s.ctx, s.newRequest("carol", "team"))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeDuplicateOwner))

		snap, err := s.svc.GetInfo(s.ctx, "carol")
		s.Require().NoError(err)
		s.Equal(models.CategoryCombat, snap.Category)
		s.Equal(first.SubmittedAt, snap.SubmittedAt)
	})

	s.Run("rejects an unknown category", func() {
		_, err := s.svc.Register(s.ctx, s.newRequest("dave", "esports"))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestBatchAdmission() {
	s.expectVerify()
	owners, err := s.svc.RegisterBatch(s.ctx, s.newBatch(3, "team"))
	s.Require().NoError(err)
	s.Len(owners, 3)

	snap := s.svc.Statistics(s.ctx)
	s.Equal(uint64(3), snap.TotalRecords)

	listed, err := s.svc.ListRegistered(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"owner-0", "owner-1", "owner-2"}, listed)
}

func (s *ServiceSuite) TestBatchTooLarge() {
	// No verifier expectation: the size gate fires before the proof call.
	_, err := s.svc.RegisterBatch(s.ctx, s.newBatch(11, "team"))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeBatchTooLarge))

	listed, err := s.svc.ListRegistered(s.ctx)
	s.Require().NoError(err)
	s.Empty(listed)
}

func (s *ServiceSuite) TestBatchLengthMismatch() {
	req := s.newBatch(2, "team")
	req.EncryptedAges = append(req.EncryptedAges, enclave.Ciphertext("extra"))
	_, err := s.svc.RegisterBatch(s.ctx, req)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeArrayLengthMismatch))

	listed, err := s.svc.ListRegistered(s.ctx)
	s.Require().NoError(err)
	s.Empty(listed)
}

func (s *ServiceSuite) TestBatchRejectsExistingOwner() {
	s.expectVerify()
	_, err := s.svc.Register(s.ctx, s.newRequest("owner-1", "other"))
	s.Require().NoError(err)

	s.expectVerify()
	_, err = s.svc.RegisterBatch(s.ctx, s.newBatch(3, "team"))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeDuplicateOwner))

	listed, err := s.svc.ListRegistered(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"owner-1"}, listed)
	snap := s.svc.Statistics(s.ctx)
	s.Equal(uint64(1), snap.TotalRecords)
}

func (s *ServiceSuite) TestBatchRejectsInternalDuplicate() {
	req := s.newBatch(2, "team")
	req.Owners[1] = req.Owners[0]
	s.expectVerify()
	_, err := s.svc.RegisterBatch(s.ctx, req)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeDuplicateOwner))

	listed, err := s.svc.ListRegistered(s.ctx)
	s.Require().NoError(err)
	s.Empty(listed)
}

func (s *ServiceSuite) TestFinalize() {
	disclosure := models.FinalizeRequest{PlainName: "Ada", PlainAge: 18, PlainContact: "ada@example.com"}

	s.Run("enforces the endurance minimum age at reconciliation", func() {
		s.expectVerify()
		_, err := s.svc.Register(s.ctx, s.newRequest("ada", "endurance"))
		s.Require().NoError(err)

		tooYoung := disclosure
		tooYoung.PlainAge = 17
		_, err = s.svc.Finalize(s.ctx, "ada", tooYoung)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeAgeRequirementNotMet))

		snap := s.svc.Statistics(s.ctx)
		s.Equal(uint64(0), snap.DecryptedRecords)

		record, err := s.svc.Finalize(s.ctx, "ada", disclosure)
		s.Require().NoError(err)
		s.Equal(models.StateDecrypted, record.State)
		s.Require().NotNil(record.DecryptedAt)
		s.False(record.SubmittedAt.After(*record.DecryptedAt))

		snap = s.svc.Statistics(s.ctx)
		s.Equal(uint64(1), snap.DecryptedRecords)
	})

	s.Run("fails for an unknown owner", func() {
		_, err := s.svc.Finalize(s.ctx, "ghost", disclosure)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("fails the second finalize and keeps the first plaintext", func() {
		s.expectVerify()
		_, err := s.svc.Register(s.ctx, s.newRequest("bea", "individual"))
		s.Require().NoError(err)

		first := models.FinalizeRequest{PlainName: "Bea", PlainAge: 21, PlainContact: "bea@example.com"}
		_, err = s.svc.Finalize(s.ctx, "bea", first)
		s.Require().NoError(err)

		second := models.FinalizeRequest{PlainName: "Mallory", PlainAge: 30, PlainContact: "evil@example.com"}
		_, err = s.svc.Finalize(s.ctx, "bea", second)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyDecrypted))

		snap, err := s.svc.GetInfo(s.ctx, "bea")
		s.Require().NoError(err)
		s.Equal("Bea", snap.PlainName)
		s.Equal(21, snap.PlainAge)
	})

	s.Run("rejects a disclosure the binder cannot tie to the ciphertext", func() {
		binder := mocks.NewMockBinder(s.ctrl)
		svc := New(s.store, s.verifier, s.agg, WithDisclosureBinder(binder))

		s.expectVerify()
		_, err := svc.Register(s.ctx, s.newRequest("cam", "other"))
		s.Require().NoError(err)

		binder.EXPECT().BindDisclosure(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(enclave.ErrProofRejected)
		_, err = svc.Finalize(s.ctx, "cam", disclosure)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidProof))

		snap, err := svc.GetInfo(s.ctx, "cam")
		s.Require().NoError(err)
		s.False(snap.IsDecrypted)
	})
}

func (s *ServiceSuite) TestStatistics() {
	s.Run("counts admissions and reconciliations with a non-negative average", func() {
		submitted := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		decrypted := submitted.Add(90 * time.Minute)

		s.expectVerify()
		_, err := s.svc.Register(requestcontext.WithTime(s.ctx, submitted), s.newRequest("a", "individual"))
		s.Require().NoError(err)
		s.expectVerify()
		_, err = s.svc.Register(requestcontext.WithTime(s.ctx, submitted), s.newRequest("b", "individual"))
		s.Require().NoError(err)

		_, err = s.svc.Finalize(requestcontext.WithTime(s.ctx, decrypted), "a",
			models.FinalizeRequest{PlainName: "A", PlainAge: 20, PlainContact: "a@example.com"})
		s.Require().NoError(err)

		snap := s.svc.Statistics(s.ctx)
		s.Equal(uint64(2), snap.TotalRecords)
		s.Equal(uint64(1), snap.DecryptedRecords)
		s.Equal(90*time.Minute, snap.AverageLatency)
	})
}

func (s *ServiceSuite) TestGetInfo() {
	s.Run("hides plaintext until reconciliation", func() {
		s.expectVerify()
		req := s.newRequest("eve", "team")
		_, err := s.svc.Register(s.ctx, req)
		s.Require().NoError(err)

		snap, err := s.svc.GetInfo(s.ctx, "eve")
		s.Require().NoError(err)
		s.False(snap.IsDecrypted)
		s.Empty(snap.PlainName)
		s.True(req.EncryptedName.Equal(snap.EncryptedName))

		_, err = s.svc.Finalize(s.ctx, "eve",
			models.FinalizeRequest{PlainName: "Eve", PlainAge: 15, PlainContact: "eve@example.com"})
		s.Require().NoError(err)

		snap, err = s.svc.GetInfo(s.ctx, "eve")
		s.Require().NoError(err)
		s.True(snap.IsDecrypted)
		s.Equal("Eve", snap.PlainName)
		s.Empty(snap.EncryptedName)
	})

	s.Run("returns not found for unknown owners", func() {
		_, err := s.svc.GetInfo(s.ctx, "nobody")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestAuditTrail() {
	s.Run("emits events for admission and reconciliation", func() {
		s.expectVerify()
		_, err := s.svc.Register(s.ctx, s.newRequest("fay", "other"))
		s.Require().NoError(err)
		_, err = s.svc.Finalize(s.ctx, "fay",
			models.FinalizeRequest{PlainName: "Fay", PlainAge: 16, PlainContact: "fay@example.com"})
		s.Require().NoError(err)

		events := s.sink.Events()
		s.Require().Len(events, 2)
		s.Equal(audit.ActionRegistered, events[0].Action)
		s.Equal(audit.ActionFinalized, events[1].Action)
		s.Equal("fay", events[0].Owner)
		s.NotEmpty(events[0].ID)
	})
}
