package controller

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
	inOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/validate"
	"github.com/Alturino/storefront/product/internal/otel"
	"github.com/Alturino/storefront/product/internal/service"
	"github.com/Alturino/storefront/product/pkg/request"
)

type ProductController struct {
	service *service.ProductService
}

func AttachProductController(
	router *mux.Router,
	service *service.ProductService,
	searchLimit mux.MiddlewareFunc,
) {
	controller := ProductController{service: service}

	products := router.PathPrefix("/products").Subrouter()
	products.HandleFunc("", controller.FindProducts).Methods(http.MethodGet)
	products.Handle(
		"/search",
		searchLimit(http.HandlerFunc(controller.SearchProducts)),
	).Methods(http.MethodGet)
	products.HandleFunc("/{productId}", controller.FindProductById).Methods(http.MethodGet)

	router.HandleFunc("/categories", controller.FindCategories).Methods(http.MethodGet)
	router.HandleFunc("/deals", controller.FindDeals).Methods(http.MethodGet)
}

func (ctrl ProductController) FindProducts(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController FindProducts")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductController FindProducts").
		Str(log.KeyProcess, "parsing query").
		Logger()

	param := request.FindProducts{}
	if raw := r.URL.Query().Get("category_id"); raw != "" {
		categoryID, err := uuid.Parse(raw)
		if err != nil {
			err = fmt.Errorf("failed parsing category_id=%s with error=%w", raw, err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			inHttp.WriteFailed(c, w, http.StatusBadRequest, err)
			return
		}
		param.CategoryID = uuid.NullUUID{UUID: categoryID, Valid: true}
	}

	logger = logger.With().Str(log.KeyProcess, "finding products").Logger()
	c = logger.WithContext(c)
	products, err := ctrl.service.FindProducts(c, param)
	if err != nil {
		err = fmt.Errorf("failed finding products with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, inHttp.StatusCodeFromError(err), err)
		return
	}
	logger.Info().Msg("found products")

	inHttp.WriteSuccess(c, w, "found products", map[string]interface{}{"products": products})
}

func (ctrl ProductController) FindProductById(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController FindProductById")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductController FindProductById").
		Str(log.KeyProcess, "validating productId").
		Logger()

	pathValues := mux.Vars(r)
	productID, err := uuid.Parse(pathValues["productId"])
	if err != nil {
		err = fmt.Errorf("failed parsing productId=%s with error=%w", pathValues["productId"], err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Any(log.KeyPathValues, pathValues).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err)
		return
	}

	logger = logger.With().
		Str(log.KeyProductID, productID.String()).
		Str(log.KeyProcess, "finding product").
		Logger()
	c = logger.WithContext(c)
	product, err := ctrl.service.FindProductById(c, productID)
	if err != nil {
		err = fmt.Errorf("failed finding productId=%s with error=%w", productID, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, inHttp.StatusCodeFromError(err), err)
		return
	}
	logger.Info().Msg("found product")

	inHttp.WriteSuccess(c, w, "found product", map[string]interface{}{"product": product})
}

func (ctrl ProductController) SearchProducts(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController SearchProducts")
	defer span.End()

	param := request.SearchProducts{Query: r.URL.Query().Get("q")}
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductController SearchProducts").
		Str(log.KeyQuery, param.Query).
		Str(log.KeyProcess, "validating query").
		Logger()

	if err := validate.Get().StructCtx(c, param); err != nil {
		err = fmt.Errorf("failed validating query with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "searching products").Logger()
	c = logger.WithContext(c)
	products, err := ctrl.service.SearchProducts(c, param)
	if err != nil {
		err = fmt.Errorf("failed searching products with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, inHttp.StatusCodeFromError(err), err)
		return
	}
	logger.Info().Msg("searched products")

	inHttp.WriteSuccess(c, w, "searched products", map[string]interface{}{"products": products})
}

func (ctrl ProductController) FindCategories(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController FindCategories")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "ProductController FindCategories").Logger()

	categories, err := ctrl.service.FindCategories(c)
	if err != nil {
		err = fmt.Errorf("failed finding categories with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, inHttp.StatusCodeFromError(err), err)
		return
	}

	inHttp.WriteSuccess(c, w, "found categories", map[string]interface{}{"categories": categories})
}

func (ctrl ProductController) FindDeals(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController FindDeals")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "ProductController FindDeals").Logger()

	deals, err := ctrl.service.FindDeals(c)
	if err != nil {
		err = fmt.Errorf("failed finding deals with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, inHttp.StatusCodeFromError(err), err)
		return
	}

	inHttp.WriteSuccess(c, w, "found deals", map[string]interface{}{"deals": deals})
}
