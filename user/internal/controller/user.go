package controller

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
	inOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/token"
	"github.com/Alturino/storefront/internal/validate"
	"github.com/Alturino/storefront/user/internal/otel"
	"github.com/Alturino/storefront/user/internal/service"
	"github.com/Alturino/storefront/user/pkg/request"
)

type UserController struct {
	service *service.UserService
}

// AttachUserController registers the public account routes on router and the
// routes that need a signed-in user behind auth.
func AttachUserController(
	router *mux.Router,
	service *service.UserService,
	auth mux.MiddlewareFunc,
) {
	controller := UserController{service: service}

	users := router.PathPrefix("/users").Subrouter()
	users.HandleFunc("/register", controller.Register).Methods(http.MethodPost)
	users.HandleFunc("/login", controller.Login).Methods(http.MethodPost)

	me := users.NewRoute().Subrouter()
	me.Use(auth)
	me.HandleFunc("/me", controller.Profile).Methods(http.MethodGet)
	me.HandleFunc("/me/color-mode", controller.UpdateColorMode).Methods(http.MethodPut)
	me.HandleFunc("/logout", controller.Logout).Methods(http.MethodPost)
}

func (ctrl UserController) Register(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController Register")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserController Register").
		Str(log.KeyProcess, "validating request body").
		Logger()

	reqBody := request.Register{}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		err = fmt.Errorf("failed decoding request body with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err)
		return
	}
	logger = logger.With().Object(log.KeyRequestBody, reqBody).Logger()

	if err := validate.Get().StructCtx(c, reqBody); err != nil {
		err = fmt.Errorf("failed validating request body with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err)
		return
	}
	logger.Trace().Msg("validated request body")

	logger = logger.With().Str(log.KeyProcess, "registering user").Logger()
	c = logger.WithContext(c)
	session, err := ctrl.service.Register(c, reqBody)
	if err != nil {
		err = fmt.Errorf("failed registering user with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, inHttp.StatusCodeFromError(err), err)
		return
	}
	logger.Info().Msg("registered user")

	inHttp.WriteSuccess(c, w, "registered user", map[string]interface{}{"session": session})
}

func (ctrl UserController) Login(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController Login")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserController Login").
		Str(log.KeyProcess, "validating request body").
		Logger()

	reqBody := request.Login{}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		err = fmt.Errorf("failed decoding request body with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err)
		return
	}
	logger = logger.With().Object(log.KeyRequestBody, reqBody).Logger()

	if err := validate.Get().StructCtx(c, reqBody); err != nil {
		err = fmt.Errorf("failed validating request body with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "login").Logger()
	c = logger.WithContext(c)
	session, err := ctrl.service.Login(c, reqBody)
	if err != nil {
		err = fmt.Errorf("failed login with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, inHttp.StatusCodeFromError(err), err)
		return
	}
	logger.Info().Msg("login success")

	inHttp.WriteSuccess(c, w, "login success", map[string]interface{}{"session": session})
}

func (ctrl UserController) Profile(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController Profile")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "UserController Profile").Logger()

	userID, err := token.UserIdFromJwtToken(c)
	if err != nil {
		err = fmt.Errorf("failed getting userId from token with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusUnauthorized, err)
		return
	}

	user, err := ctrl.service.Profile(c, userID)
	if err != nil {
		err = fmt.Errorf("failed finding profile with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, inHttp.StatusCodeFromError(err), err)
		return
	}

	inHttp.WriteSuccess(c, w, "found profile", map[string]interface{}{"user": user})
}

func (ctrl UserController) UpdateColorMode(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController UpdateColorMode")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserController UpdateColorMode").
		Str(log.KeyProcess, "validating request body").
		Logger()

	userID, err := token.UserIdFromJwtToken(c)
	if err != nil {
		err = fmt.Errorf("failed getting userId from token with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusUnauthorized, err)
		return
	}

	reqBody := request.ColorMode{}
	if err = json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		err = fmt.Errorf("failed decoding request body with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err)
		return
	}
	if err = validate.Get().StructCtx(c, reqBody); err != nil {
		err = fmt.Errorf("failed validating request body with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "updating color mode").Logger()
	c = logger.WithContext(c)
	user, err := ctrl.service.UpdateColorMode(c, userID, reqBody)
	if err != nil {
		err = fmt.Errorf("failed updating color mode with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, inHttp.StatusCodeFromError(err), err)
		return
	}

	inHttp.WriteSuccess(c, w, "updated color mode", map[string]interface{}{"user": user})
}

func (ctrl UserController) Logout(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController Logout")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "UserController Logout").Logger()

	if err := ctrl.service.Logout(c); err != nil {
		err = fmt.Errorf("failed logout with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, inHttp.StatusCodeFromError(err), err)
		return
	}
	logger.Info().Msg("logout success")

	inHttp.WriteSuccess(c, w, "logout success", map[string]interface{}{})
}
