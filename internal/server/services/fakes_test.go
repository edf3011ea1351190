package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/avolkov/docvault/internal/common"
	"github.com/avolkov/docvault/internal/dbx"
	"github.com/avolkov/docvault/internal/logging"
	"github.com/avolkov/docvault/internal/server/models"
	"github.com/avolkov/docvault/internal/server/repositories/activitylogs"
	"github.com/avolkov/docvault/internal/server/repositories/documents"
	"github.com/avolkov/docvault/internal/server/repositories/sessions"
	"github.com/avolkov/docvault/internal/server/repositories/users"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// memStore holds the in-memory state the fake repositories share. The fakes
// ignore the DBTX they are vended with, so transactional and plain calls see
// the same data.
type memStore struct {
	users      map[int64]*models.User
	documents  map[int64]*models.Document
	sessions   map[string]*models.Session
	activities []*models.ActivityLogEntry

	nextUserID     int64
	nextDocumentID int64
	nextActivityID int64

	auditErr error

	// userCountOverride, when set, is what fakeUsers.Count reports instead
	// of the live map size.
	userCountOverride *int64
	// lastListLimit records the limit passed to the most recent List call.
	lastListLimit int
}

func newMemStore() *memStore {
	return &memStore{
		users:          make(map[int64]*models.User),
		documents:      make(map[int64]*models.Document),
		sessions:       make(map[string]*models.Session),
		nextUserID:     1,
		nextDocumentID: 1,
		nextActivityID: 1,
	}
}

type fakeRepoManager struct{ s *memStore }

func (m *fakeRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository                  { return &fakeUsers{s: m.s} }
func (m *fakeRepoManager) Documents(db dbx.DBTX) documents.Repository {
	return &fakeDocuments{s: m.s}
}
func (m *fakeRepoManager) Sessions(db dbx.DBTX) sessions.Repository { return &fakeSessions{s: m.s} }
func (m *fakeRepoManager) ActivityLogs(db dbx.DBTX) activitylogs.Repository {
	return &fakeActivityLogs{s: m.s}
}

type fakeUsers struct{ s *memStore }

func (r *fakeUsers) Create(ctx context.Context, user *models.User) (*models.User, error) {
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return nil, common.ErrorEmailExists
		}
		if user.IsAdmin && u.IsAdmin {
			return nil, common.ErrorAdminExists
		}
	}
	u := *user
	u.ID = r.s.nextUserID
	u.CreatedAt = time.Now()
	r.s.nextUserID++
	r.s.users[u.ID] = &u
	return &u, nil
}

func (r *fakeUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.s.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeUsers) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *fakeUsers) Count(ctx context.Context) (int64, error) {
	if r.s.userCountOverride != nil {
		return *r.s.userCountOverride, nil
	}
	return int64(len(r.s.users)), nil
}

func (r *fakeUsers) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	r.s.lastListLimit = limit
	ids := make([]int64, 0, len(r.s.users))
	for id := range r.s.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []*models.User
	for i, id := range ids {
		if i < offset || len(out) >= limit {
			continue
		}
		clone := *r.s.users[id]
		out = append(out, &clone)
	}
	return out, nil
}

func (r *fakeUsers) SetActive(ctx context.Context, id int64, active bool) error {
	u, ok := r.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.IsActive = active
	return nil
}

func (r *fakeUsers) Delete(ctx context.Context, id int64) error {
	if _, ok := r.s.users[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.users, id)
	return nil
}

type fakeDocuments struct{ s *memStore }

func (r *fakeDocuments) Create(ctx context.Context, doc *models.Document) (*models.Document, error) {
	d := *doc
	d.ID = r.s.nextDocumentID
	d.UploadDate = time.Now()
	r.s.nextDocumentID++
	r.s.documents[d.ID] = &d
	return &d, nil
}

func (r *fakeDocuments) GetByID(ctx context.Context, id int64) (*models.Document, error) {
	d, ok := r.s.documents[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	clone := *d
	return &clone, nil
}

func (r *fakeDocuments) ListActive(ctx context.Context, ownerID int64, limit, offset int) ([]*models.Document, error) {
	r.s.lastListLimit = limit
	ids := make([]int64, 0, len(r.s.documents))
	for id, d := range r.s.documents {
		if d.Status != models.DocumentActive {
			continue
		}
		if ownerID != documents.AllOwners && d.OwnerID != ownerID {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })

	var out []*models.Document
	for i, id := range ids {
		if i < offset || len(out) >= limit {
			continue
		}
		clone := *r.s.documents[id]
		out = append(out, &clone)
	}
	return out, nil
}

func (r *fakeDocuments) CountActive(ctx context.Context, ownerID int64) (int64, error) {
	var n int64
	for _, d := range r.s.documents {
		if d.Status != models.DocumentActive {
			continue
		}
		if ownerID != documents.AllOwners && d.OwnerID != ownerID {
			continue
		}
		n++
	}
	return n, nil
}

func (r *fakeDocuments) Count(ctx context.Context) (int64, error) {
	return int64(len(r.s.documents)), nil
}

func (r *fakeDocuments) Delete(ctx context.Context, id int64) error {
	if _, ok := r.s.documents[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.documents, id)
	return nil
}

type fakeSessions struct{ s *memStore }

func (r *fakeSessions) Create(ctx context.Context, id string, userID int64, validity time.Duration) error {
	r.s.sessions[id] = &models.Session{ID: id, UserID: userID, ExpiresAt: time.Now().Add(validity)}
	return nil
}

func (r *fakeSessions) Find(ctx context.Context, id string) (*models.Session, error) {
	sess, ok := r.s.sessions[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	clone := *sess
	return &clone, nil
}

func (r *fakeSessions) Delete(ctx context.Context, id string) error {
	delete(r.s.sessions, id)
	return nil
}

type fakeActivityLogs struct{ s *memStore }

func (r *fakeActivityLogs) Create(ctx context.Context, userID int64, action string) error {
	if r.s.auditErr != nil {
		return r.s.auditErr
	}
	r.s.activities = append(r.s.activities, &models.ActivityLogEntry{
		ID:        r.s.nextActivityID,
		UserID:    userID,
		Action:    action,
		Timestamp: time.Now(),
	})
	r.s.nextActivityID++
	return nil
}

func (r *fakeActivityLogs) Query(ctx context.Context, searchTerm string) ([]*models.ActivityLogEntry, error) {
	var out []*models.ActivityLogEntry
	for i := len(r.s.activities) - 1; i >= 0; i-- {
		out = append(out, r.s.activities[i])
	}
	return out, nil
}

func (r *fakeActivityLogs) Recent(ctx context.Context, limit int) ([]*models.ActivityLogEntry, error) {
	var out []*models.ActivityLogEntry
	for i := len(r.s.activities) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.s.activities[i])
	}
	return out, nil
}

func (s *memStore) actions() []string {
	out := make([]string, 0, len(s.activities))
	for _, a := range s.activities {
		out = append(out, a.Action)
	}
	return out
}
