package controller

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/cart/internal/otel"
	"github.com/Alturino/storefront/cart/internal/service"
	"github.com/Alturino/storefront/cart/pkg/request"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
	inOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/token"
	"github.com/Alturino/storefront/internal/validate"
)

type CartController struct {
	service *service.CartService
}

func AttachCartController(router *mux.Router, service *service.CartService) {
	controller := CartController{service: service}

	carts := router.PathPrefix("/carts").Subrouter()
	carts.HandleFunc("", controller.GetCart).Methods(http.MethodGet)
	carts.HandleFunc("", controller.ResetCart).Methods(http.MethodDelete)
	carts.HandleFunc("/items", controller.AddItem).Methods(http.MethodPost)
	carts.HandleFunc("/items/{productId}/decrement", controller.DecrementItem).Methods(http.MethodPost)
	carts.HandleFunc("/items/{productId}", controller.RemoveItem).Methods(http.MethodDelete)
	carts.HandleFunc("/checkout", controller.Checkout).Methods(http.MethodPost)
	carts.HandleFunc("/checkouts", controller.FindCheckouts).Methods(http.MethodGet)
}

func (ctrl CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController GetCart")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "CartController GetCart").Logger()

	userID, err := token.UserIdFromJwtToken(c)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusUnauthorized, err)
		return
	}

	logger = logger.With().Str(log.KeyUserID, userID.String()).Str(log.KeyProcess, "getting cart").Logger()
	c = logger.WithContext(c)
	cart, err := ctrl.service.GetCart(c, userID)
	if err != nil {
		err = fmt.Errorf("failed getting cart with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, inHttp.StatusCodeFromError(err), err)
		return
	}

	inHttp.WriteSuccess(c, w, "found cart", map[string]interface{}{"cart": cart})
}

func (ctrl CartController) AddItem(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController AddItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController AddItem").
		Str(log.KeyProcess, "decoding request body").
		Logger()

	logger.Trace().Msg("decoding request body")
	reqBody := request.AddItem{}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		err = fmt.Errorf("failed decoding request body with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err)
		return
	}
	logger.Trace().Msg("decoded request body")

	logger = logger.With().Str(log.KeyProcess, "validating request body").Logger()
	if err := validate.Get().StructCtx(c, reqBody); err != nil {
		err = fmt.Errorf("failed validating request body with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err)
		return
	}
	logger.Trace().Msg("validated request body")

	userID, err := token.UserIdFromJwtToken(c)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusUnauthorized, err)
		return
	}

	logger = logger.With().
		Str(log.KeyUserID, userID.String()).
		Str(log.KeyProductID, reqBody.ProductID.String()).
		Str(log.KeyProcess, "adding item to cart").
		Logger()
	logger.Info().Msg("adding item to cart")
	c = logger.WithContext(c)
	cart, err := ctrl.service.AddItem(c, userID, reqBody.ProductID)
	if err != nil {
		err = fmt.Errorf("failed adding productId=%s to cart with error=%w", reqBody.ProductID, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, inHttp.StatusCodeFromError(err), err)
		return
	}
	logger.Info().Msg("added item to cart")

	inHttp.WriteSuccess(c, w, "added item to cart", map[string]interface{}{"cart": cart})
}

func (ctrl CartController) DecrementItem(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController DecrementItem")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "CartController DecrementItem").Logger()

	userID, productID, ok := ctrl.itemTarget(w, r)
	if !ok {
		return
	}

	logger = logger.With().
		Str(log.KeyUserID, userID.String()).
		Str(log.KeyProductID, productID.String()).
		Str(log.KeyProcess, "decrementing item").
		Logger()
	c = logger.WithContext(c)
	cart, err := ctrl.service.DecrementItem(c, userID, productID)
	if err != nil {
		err = fmt.Errorf("failed decrementing productId=%s with error=%w", productID, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, inHttp.StatusCodeFromError(err), err)
		return
	}
	logger.Info().Msg("decremented item")

	inHttp.WriteSuccess(c, w, "decremented item", map[string]interface{}{"cart": cart})
}

func (ctrl CartController) RemoveItem(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController RemoveItem")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "CartController RemoveItem").Logger()

	userID, productID, ok := ctrl.itemTarget(w, r)
	if !ok {
		return
	}

	logger = logger.With().
		Str(log.KeyUserID, userID.String()).
		Str(log.KeyProductID, productID.String()).
		Str(log.KeyProcess, "removing item").
		Logger()
	c = logger.WithContext(c)
	cart, err := ctrl.service.RemoveItem(c, userID, productID)
	if err != nil {
		err = fmt.Errorf("failed removing productId=%s with error=%w", productID, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, inHttp.StatusCodeFromError(err), err)
		return
	}
	logger.Info().Msg("removed item")

	inHttp.WriteSuccess(c, w, "removed item", map[string]interface{}{"cart": cart})
}

func (ctrl CartController) ResetCart(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController ResetCart")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "CartController ResetCart").Logger()

	userID, err := token.UserIdFromJwtToken(c)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusUnauthorized, err)
		return
	}

	logger = logger.With().Str(log.KeyUserID, userID.String()).Str(log.KeyProcess, "resetting cart").Logger()
	c = logger.WithContext(c)
	if err = ctrl.service.ResetCart(c, userID); err != nil {
		err = fmt.Errorf("failed resetting cart with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, inHttp.StatusCodeFromError(err), err)
		return
	}
	logger.Info().Msg("reset cart")

	inHttp.WriteSuccess(c, w, "reset cart", map[string]interface{}{})
}

func (ctrl CartController) Checkout(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController Checkout")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "CartController Checkout").Logger()

	userID, err := token.UserIdFromJwtToken(c)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusUnauthorized, err)
		return
	}

	logger = logger.With().Str(log.KeyUserID, userID.String()).Str(log.KeyProcess, "checking out cart").Logger()
	logger.Info().Msg("checking out cart")
	c = logger.WithContext(c)
	checkout, err := ctrl.service.Checkout(c, userID)
	if err != nil {
		err = fmt.Errorf("failed checking out cart with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, inHttp.StatusCodeFromError(err), err)
		return
	}
	logger.Info().Str(log.KeyCheckoutID, checkout.ID.String()).Msg("checked out cart")

	inHttp.WriteSuccess(c, w, "checked out cart", map[string]interface{}{"checkout": checkout})
}

func (ctrl CartController) FindCheckouts(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController FindCheckouts")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "CartController FindCheckouts").Logger()

	userID, err := token.UserIdFromJwtToken(c)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusUnauthorized, err)
		return
	}

	c = logger.With().Str(log.KeyUserID, userID.String()).Logger().WithContext(c)
	checkouts, err := ctrl.service.FindCheckouts(c, userID)
	if err != nil {
		err = fmt.Errorf("failed finding checkouts with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, inHttp.StatusCodeFromError(err), err)
		return
	}

	inHttp.WriteSuccess(c, w, "found checkouts", map[string]interface{}{"checkouts": checkouts})
}

// itemTarget reads the caller and the {productId} path value, writing the failure
// response itself when either is missing.
func (ctrl CartController) itemTarget(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	c := r.Context()
	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "CartController itemTarget").Logger()

	userID, err := token.UserIdFromJwtToken(c)
	if err != nil {
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusUnauthorized, err)
		return uuid.Nil, uuid.Nil, false
	}

	pathValues := mux.Vars(r)
	productID, err := uuid.Parse(pathValues["productId"])
	if err != nil {
		err = fmt.Errorf("failed parsing productId=%s with error=%w", pathValues["productId"], err)
		logger.Error().Err(err).Any(log.KeyPathValues, pathValues).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err)
		return uuid.Nil, uuid.Nil, false
	}
	return userID, productID, true
}
