package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/avolkov/docvault/internal/common"
	"github.com/avolkov/docvault/internal/dbx"
	"github.com/avolkov/docvault/internal/logging"
	"github.com/avolkov/docvault/internal/server/auth"
	"github.com/avolkov/docvault/internal/server/config"
	"github.com/avolkov/docvault/internal/server/models"
	"github.com/avolkov/docvault/internal/server/repositories/repomanager"
)

// sessionIDBytes is the number of random bytes behind a session id
// (the cookie value is twice as long, hex-encoded).
const sessionIDBytes = 32

// LoginResult is what a successful login hands back to the HTTP layer:
// the server-held session id for the cookie and the independent bearer token.
type LoginResult struct {
	SessionID string
	Token     string
	User      *models.User
}

// AuthService implements registration, login/logout and session resolution.
type AuthService struct {
	db              *sql.DB
	rm              repomanager.RepositoryManager
	audit           *AuditService
	logger          logging.Logger
	jwtSecret       []byte
	tokenValidity   time.Duration
	sessionValidity time.Duration
}

// NewAuthService constructs an AuthService.
func NewAuthService(db *sql.DB, rm repomanager.RepositoryManager, audit *AuditService, cfg *config.Config, logger logging.Logger) *AuthService {
	return &AuthService{
		db:              db,
		rm:              rm,
		audit:           audit,
		logger:          logger.With("component", "auth"),
		jwtSecret:       []byte(cfg.SecretKey),
		tokenValidity:   cfg.TokenValidityDuration,
		sessionValidity: cfg.SessionValidityDuration,
	}
}

// Register creates an account. The first account ever created becomes admin.
// The count check, the insert and the audit entries share one transaction so
// the audit trail cannot drift from the rows it describes. Two concurrent
// first registrations can both see a zero count at read-committed isolation;
// the users_single_admin index then rejects the second insert and the loser
// reruns the transaction as a regular user.
func (s *AuthService) Register(ctx context.Context, email, password string) (*models.User, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", common.ErrorInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user, err := s.registerTx(ctx, email, string(hash), true)
	if errors.Is(err, common.ErrorAdminExists) {
		user, err = s.registerTx(ctx, email, string(hash), false)
	}
	if err != nil {
		if errors.Is(err, common.ErrorEmailExists) {
			return nil, common.ErrorEmailExists
		}
		return nil, err
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID, "is_admin", user.IsAdmin)
	return user, nil
}

// registerTx runs one registration attempt in its own transaction. With
// allowAdmin the new account claims the admin seat when the user table reads
// empty; the claim can still lose to a concurrent insert, which surfaces as
// common.ErrorAdminExists from the users repository.
func (s *AuthService) registerTx(ctx context.Context, email, hash string, allowAdmin bool) (*models.User, error) {
	var user *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		isAdmin := false
		if allowAdmin {
			count, err := s.rm.Users(tx).Count(ctx)
			if err != nil {
				return err
			}
			isAdmin = count == 0
		}

		role := models.RoleUser
		if isAdmin {
			role = models.RoleAdmin
		}

		var err error
		user, err = s.rm.Users(tx).Create(ctx, &models.User{
			Email:        email,
			PasswordHash: hash,
			Role:         role,
			IsActive:     true,
			IsAdmin:      isAdmin,
		})
		if err != nil {
			return err
		}

		if err := s.audit.RecordTx(ctx, tx, user.ID, fmt.Sprintf("Registered new user with email %s", email)); err != nil {
			return err
		}
		if isAdmin {
			if err := s.audit.RecordTx(ctx, tx, user.ID, fmt.Sprintf("Promoted user with email %s to admin", email)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and the claimed role, then establishes a
// session and issues a bearer token. Failure modes, in order:
// ErrorNotFound (no such account), ErrorAccountDisabled,
// ErrorInvalidCredentials, ErrorRoleMismatch.
func (s *AuthService) Login(ctx context.Context, email, password, claimedRole string) (*LoginResult, error) {
	user, err := s.rm.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}

	if !user.IsActive {
		return nil, common.ErrorAccountDisabled
	}

	// bcrypt compare is constant-time with respect to the password
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, common.ErrorInvalidCredentials
	}

	if claimedRole != "" {
		if claimedRole == models.RoleAdmin && !user.IsAdmin {
			return nil, common.ErrorRoleMismatch
		}
		if claimedRole == models.RoleUser && user.IsAdmin {
			return nil, common.ErrorRoleMismatch
		}
	}

	sessionID, err := common.MakeRandHexString(sessionIDBytes)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if err := s.rm.Sessions(s.db).Create(ctx, sessionID, user.ID, s.sessionValidity); err != nil {
		return nil, common.ErrorInternal
	}

	token, err := auth.GenerateToken(user.ID, user.Email, user.IsAdmin, s.jwtSecret, s.tokenValidity)
	if err != nil {
		return nil, common.ErrorInternal
	}

	action := "logged in as user"
	if user.IsAdmin {
		action = "logged in as admin"
	}
	s.audit.Record(ctx, user.ID, action)

	return &LoginResult{SessionID: sessionID, Token: token, User: user}, nil
}

// Logout destroys the session. Logging out twice, or with no session at
// all, is not an error.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.rm.Sessions(s.db).Delete(ctx, sessionID)
}

// ResolveSession turns a session id into the request principal. Expired
// sessions are removed on sight. Any failure (unknown id, expiry, a
// deactivated or deleted account) comes back as ErrorUnauthorized.
func (s *AuthService) ResolveSession(ctx context.Context, sessionID string) (*models.Principal, error) {
	if sessionID == "" {
		return nil, common.ErrorUnauthorized
	}

	session, err := s.rm.Sessions(s.db).Find(ctx, sessionID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	if time.Now().After(session.ExpiresAt) {
		_ = s.rm.Sessions(s.db).Delete(ctx, sessionID)
		return nil, common.ErrorUnauthorized
	}

	user, err := s.rm.Users(s.db).GetByID(ctx, session.UserID)
	if err != nil || !user.IsActive {
		return nil, common.ErrorUnauthorized
	}

	return &models.Principal{
		UserID:  user.ID,
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
		Role:    user.Role,
	}, nil
}

// ResolveToken turns a bearer token into the request principal, for clients
// that hold the login token instead of the session cookie. Same failure
// contract as ResolveSession: anything wrong is ErrorUnauthorized.
func (s *AuthService) ResolveToken(ctx context.Context, tokenString string) (*models.Principal, error) {
	if tokenString == "" {
		return nil, common.ErrorUnauthorized
	}

	claims, err := auth.ParseToken(tokenString, s.jwtSecret)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}

	user, err := s.rm.Users(s.db).GetByID(ctx, claims.UserID)
	if err != nil || !user.IsActive {
		return nil, common.ErrorUnauthorized
	}

	return &models.Principal{
		UserID:  user.ID,
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
		Role:    user.Role,
	}, nil
}
