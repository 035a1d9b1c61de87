package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	inOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/repository"
	"github.com/Alturino/storefront/internal/token"
	"github.com/Alturino/storefront/user/internal/otel"
	"github.com/Alturino/storefront/user/pkg/request"
	"github.com/Alturino/storefront/user/pkg/response"
)

const pgUniqueViolation = "23505"

type Revoker interface {
	Revoke(c context.Context, tokenID string, expiresAt time.Time) error
}

type UserService struct {
	queries  *repository.Queries
	revoker  Revoker
	secret   string
	tokenTTL time.Duration
	now      func() time.Time
}

func NewUserService(
	queries *repository.Queries,
	revoker Revoker,
	secret string,
	tokenTTL time.Duration,
) *UserService {
	return &UserService{
		queries:  queries,
		revoker:  revoker,
		secret:   secret,
		tokenTTL: tokenTTL,
		now:      time.Now,
	}
}

// Register creates the account and signs it in straight away.
func (svc *UserService) Register(c context.Context, param request.Register) (response.Session, error) {
	c, span := otel.Tracer.Start(c, "UserService Register")
	defer span.End()

	email := strings.ToLower(strings.TrimSpace(param.Email))
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserService Register").
		Str(log.KeyEmail, email).
		Str(log.KeyProcess, "hashing password").
		Logger()

	logger.Trace().Msg("hashing password")
	hashed, err := bcrypt.GenerateFromPassword([]byte(param.Password), bcrypt.DefaultCost)
	if err != nil {
		err = fmt.Errorf("failed hashing password with error=%w", errors.Join(err, inErrors.ErrFailedHashToken))
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Session{}, err
	}
	logger.Trace().Msg("hashed password")

	logger = logger.With().Str(log.KeyProcess, "inserting user").Logger()
	logger.Trace().Msg("inserting user")
	username := strings.TrimSpace(param.Username)
	user, err := svc.queries.InsertUser(c, repository.InsertUserParams{
		Username: pgtype.Text{String: username, Valid: username != ""},
		Email:    email,
		Password: string(hashed),
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			err = errors.Join(err, inErrors.ErrEmailExist)
		}
		err = fmt.Errorf("failed inserting user with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Session{}, err
	}
	logger = logger.With().Str(log.KeyUserID, user.ID.String()).Logger()
	logger.Info().Msg("inserted user")

	c = logger.WithContext(c)
	return svc.session(c, user)
}

func (svc *UserService) Login(c context.Context, param request.Login) (response.Session, error) {
	c, span := otel.Tracer.Start(c, "UserService Login")
	defer span.End()

	email := strings.ToLower(strings.TrimSpace(param.Email))
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserService Login").
		Str(log.KeyEmail, email).
		Str(log.KeyProcess, "finding user").
		Logger()

	logger.Trace().Msg("finding user by email")
	user, err := svc.queries.FindUserByEmail(c, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = errors.Join(err, inErrors.ErrUserNotFound)
		}
		err = fmt.Errorf("failed finding user by email=%s with error=%w", email, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Session{}, err
	}
	logger.Trace().Msg("found user by email")

	logger = logger.With().Str(log.KeyProcess, "verifying password").Logger()
	if err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(param.Password)); err != nil {
		err = fmt.Errorf("failed verifying password with error=%w", inErrors.ErrPasswordMismatch)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Session{}, err
	}
	logger.Trace().Msg("verified password")

	c = logger.WithContext(c)
	return svc.session(c, user)
}

func (svc *UserService) Profile(c context.Context, userID uuid.UUID) (response.User, error) {
	c, span := otel.Tracer.Start(c, "UserService Profile")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserService Profile").
		Str(log.KeyUserID, userID.String()).
		Logger()

	user, err := svc.queries.FindUserById(c, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = errors.Join(err, inErrors.ErrUserNotFound)
		}
		err = fmt.Errorf("failed finding userId=%s with error=%w", userID, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, err
	}

	return user.Response(), nil
}

func (svc *UserService) UpdateColorMode(
	c context.Context,
	userID uuid.UUID,
	param request.ColorMode,
) (response.User, error) {
	c, span := otel.Tracer.Start(c, "UserService UpdateColorMode")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserService UpdateColorMode").
		Str(log.KeyUserID, userID.String()).
		Str(log.KeyColorMode, param.ColorMode).
		Logger()

	logger.Trace().Msg("updating color mode")
	user, err := svc.queries.UpdateUserColorMode(c, repository.UpdateUserColorModeParams{
		ID:        userID,
		ColorMode: repository.ColorMode(param.ColorMode),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = errors.Join(err, inErrors.ErrUserNotFound)
		}
		err = fmt.Errorf("failed updating color mode with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, err
	}
	logger.Info().Msg("updated color mode")

	return user.Response(), nil
}

// Logout revokes the token attached to c until it would have expired anyway.
func (svc *UserService) Logout(c context.Context) error {
	c, span := otel.Tracer.Start(c, "UserService Logout")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserService Logout").
		Str(log.KeyProcess, "revoking token").
		Logger()

	claims, err := token.ClaimsFromContext(c)
	if err != nil {
		err = fmt.Errorf("failed getting claims with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	if claims.ExpiresAt == nil {
		err = fmt.Errorf("failed revoking token with error=%w", inErrors.ErrTokenInvalid)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger = logger.With().Str(log.KeyTokenID, claims.ID).Logger()

	if err = svc.revoker.Revoke(c, claims.ID, claims.ExpiresAt.Time); err != nil {
		err = fmt.Errorf("failed revoking token with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("revoked token")

	return nil
}

func (svc *UserService) session(c context.Context, user repository.User) (response.Session, error) {
	c, span := otel.Tracer.Start(c, "UserService session")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyProcess, "issuing token").Logger()

	signed, claims, err := token.Issue(svc.secret, user.ID, svc.now(), svc.tokenTTL)
	if err != nil {
		err = fmt.Errorf("failed issuing token with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Session{}, err
	}
	logger.Trace().Str(log.KeyTokenID, claims.ID).Msg("issued token")

	return response.Session{
		User:      user.Response(),
		Token:     signed,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
