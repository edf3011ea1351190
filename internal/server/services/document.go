package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/avolkov/docvault/internal/common"
	"github.com/avolkov/docvault/internal/cryptox"
	"github.com/avolkov/docvault/internal/logging"
	"github.com/avolkov/docvault/internal/server/blobstore"
	"github.com/avolkov/docvault/internal/server/models"
	"github.com/avolkov/docvault/internal/server/policy"
	"github.com/avolkov/docvault/internal/server/repositories/repomanager"
)

// DocumentService implements the upload/list/download/delete pipeline:
// policy checks, whole-file encryption and the metadata plane.
type DocumentService struct {
	db     *sql.DB
	rm     repomanager.RepositoryManager
	blobs  blobstore.Store
	cipher *cryptox.Cipher
	audit  *AuditService
	logger logging.Logger
}

// NewDocumentService constructs a DocumentService.
func NewDocumentService(db *sql.DB, rm repomanager.RepositoryManager, blobs blobstore.Store, cipher *cryptox.Cipher, audit *AuditService, logger logging.Logger) *DocumentService {
	return &DocumentService{
		db:     db,
		rm:     rm,
		blobs:  blobs,
		cipher: cipher,
		audit:  audit,
		logger: logger.With("component", "documents"),
	}
}

// SanitizeFilename reduces a client-supplied filename to a safe display
// name: base name only, conservative character set. The result never
// reaches the filesystem (storage keys are generated) but it does reach
// Content-Disposition headers and listings.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	name = strings.Trim(name, "._")
	if name == "" {
		return "file"
	}
	return name
}

// newStorageKey returns an opaque blob key. Keys never derive from the
// user-supplied filename, so collisions across users are impossible.
func newStorageKey() string {
	return fmt.Sprintf("documents/%s", uuid.New())
}

// Upload encrypts content and stores it under a fresh storage key, then
// inserts the metadata row. The blob write strictly precedes the insert:
// a failed write leaves no metadata behind. The reverse failure, an insert
// failing after a successful write, orphans one blob, which is logged for
// manual cleanup and surfaced to the caller.
func (s *DocumentService) Upload(ctx context.Context, p *models.Principal, filename string, content []byte) (*models.Document, error) {
	if filename == "" {
		return nil, fmt.Errorf("%w: no file name", common.ErrorInvalidInput)
	}

	ciphertext, err := s.cipher.Encrypt(content)
	if err != nil {
		return nil, err
	}

	key := newStorageKey()
	if err := s.blobs.Put(ctx, key, ciphertext); err != nil {
		return nil, err
	}

	doc, err := s.rm.Documents(s.db).Create(ctx, &models.Document{
		Name:       SanitizeFilename(filename),
		StorageKey: key,
		OwnerID:    p.UserID,
		Status:     models.DocumentActive,
	})
	if err != nil {
		s.logger.Error(ctx, "metadata insert failed after blob write, orphaned blob needs cleanup",
			"storage_key", key, "owner", p.UserID, "error", err.Error())
		return nil, err
	}

	s.audit.Record(ctx, p.UserID, "Uploaded a document")
	return doc, nil
}

// List returns one page of active documents visible to p (all of them for
// admins, own only otherwise), most recent first, plus the total count.
func (s *DocumentService) List(ctx context.Context, p *models.Principal, page, limit int) ([]*models.Document, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	owner := policy.ListScopeOwner(p)
	repo := s.rm.Documents(s.db)

	docs, err := repo.ListActive(ctx, owner, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := repo.CountActive(ctx, owner)
	if err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

// Download returns the decrypted content and display name. An absent
// document and a document p may not access answer identically with
// ErrorNotFound, so existence leaks to nobody. Metadata without a backing
// blob is ErrorFileMissing.
func (s *DocumentService) Download(ctx context.Context, p *models.Principal, docID int64) (string, []byte, error) {
	doc, err := s.resolveForAccess(ctx, p, docID)
	if err != nil {
		return "", nil, err
	}

	ciphertext, err := s.blobs.Get(ctx, doc.StorageKey)
	if err != nil {
		return "", nil, err
	}

	plaintext, err := s.cipher.Decrypt(ciphertext)
	if err != nil {
		return "", nil, err
	}

	return doc.Name, plaintext, nil
}

// Delete removes the blob and the metadata row. A blob already gone is
// fine, deletion is idempotent on the storage side. Access failures
// follow the same ErrorNotFound conflation as Download.
func (s *DocumentService) Delete(ctx context.Context, p *models.Principal, docID int64) error {
	doc, err := s.resolveForAccess(ctx, p, docID)
	if err != nil {
		return err
	}

	if err := s.blobs.Delete(ctx, doc.StorageKey); err != nil {
		return err
	}

	if err := s.rm.Documents(s.db).Delete(ctx, doc.ID); err != nil {
		return err
	}

	action := fmt.Sprintf("Deleted document %d", doc.ID)
	if p.IsAdmin && doc.OwnerID != p.UserID {
		action = fmt.Sprintf("Admin deleted document %d", doc.ID)
	}
	s.audit.Record(ctx, p.UserID, action)
	return nil
}

// resolveForAccess loads the document and applies the access policy,
// conflating "absent" and "denied" into ErrorNotFound.
func (s *DocumentService) resolveForAccess(ctx context.Context, p *models.Principal, docID int64) (*models.Document, error) {
	doc, err := s.rm.Documents(s.db).GetByID(ctx, docID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, err
	}
	if !policy.CanAccessDocument(p, doc) {
		return nil, common.ErrorNotFound
	}
	return doc, nil
}
