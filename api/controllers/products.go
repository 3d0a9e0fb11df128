package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	productsvc "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// ProductList serves the public catalog; only active products are returned.
func ProductList(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return productList(svc, logg, false)
}

// AdminProductList includes inactive products.
func AdminProductList(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return productList(svc, logg, true)
}

func productList(svc productsvc.Service, logg *logger.Logger, includeInactive bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}

		input, err := parseProductListQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.IncludeInactive = includeInactive

		result, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func parseProductListQuery(r *http.Request) (productsvc.ListInput, error) {
	q := r.URL.Query()
	var input productsvc.ListInput

	page, err := validators.ParseQueryInt(r, "page", 1, 1, 100000)
	if err != nil {
		return input, err
	}
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultPageLimit, 1, pagination.MaxLimit)
	if err != nil {
		return input, err
	}
	input.Page = pagination.Page{Page: page, Limit: limit}

	if raw := strings.TrimSpace(q.Get("categoryId")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return input, pkgerrors.New(pkgerrors.CodeValidation, "invalid categoryId").WithDetails(map[string]any{"field": "categoryId"})
		}
		input.CategoryID = &id
	}
	input.CategorySlug = validators.SanitizeString(q.Get("categorySlug"), 160)
	input.Search = validators.SanitizeString(q.Get("search"), 200)

	if input.MinPrice, err = validators.ParseQueryDecimal(r, "minPrice"); err != nil {
		return input, err
	}
	if input.MaxPrice, err = validators.ParseQueryDecimal(r, "maxPrice"); err != nil {
		return input, err
	}
	if input.MinPrice != nil && input.MaxPrice != nil && input.MinPrice.GreaterThan(*input.MaxPrice) {
		return input, pkgerrors.New(pkgerrors.CodeValidation, "minPrice must not exceed maxPrice")
	}
	if input.InStock, err = validators.ParseQueryBool(r, "inStock"); err != nil {
		return input, err
	}
	if input.Featured, err = validators.ParseQueryBool(r, "featured"); err != nil {
		return input, err
	}

	if raw := strings.TrimSpace(q.Get("sort")); raw != "" {
		sort, err := enums.ParseProductSort(raw)
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sort").WithDetails(map[string]any{"field": "sort"})
		}
		input.Sort = sort
	}
	return input, nil
}

// ProductGet returns an active product by id.
func ProductGet(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}
		id, err := validators.URLParamUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.GetByID(r.Context(), id, false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func ProductGetBySlug(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}
		slug := strings.TrimSpace(chi.URLParam(r, "slug"))
		if slug == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "slug is required"))
			return
		}
		product, err := svc.GetBySlug(r.Context(), slug, false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

type createProductRequest struct {
	CategoryID        *uuid.UUID              `json:"categoryId,omitempty"`
	Name              string                  `json:"name" validate:"required,max=200"`
	Slug              string                  `json:"slug,omitempty" validate:"omitempty,max=220"`
	SKU               *string                 `json:"sku,omitempty" validate:"omitempty,max=64"`
	Description       *string                 `json:"description,omitempty"`
	ShortDescription  *string                 `json:"shortDescription,omitempty" validate:"omitempty,max=500"`
	Price             decimal.Decimal         `json:"price"`
	OriginalPrice     *decimal.Decimal        `json:"originalPrice,omitempty"`
	Stock             int                     `json:"stock" validate:"gte=0"`
	LowStockThreshold *int                    `json:"lowStockThreshold,omitempty" validate:"omitempty,gte=0"`
	TrackQuantity     *bool                   `json:"trackQuantity,omitempty"`
	IsActive          *bool                   `json:"isActive,omitempty"`
	IsFeatured        bool                    `json:"isFeatured"`
	Images            []productsvc.ImageInput `json:"images,omitempty" validate:"omitempty,dive"`
}

func (p createProductRequest) toInput() productsvc.CreateInput {
	return productsvc.CreateInput{
		CategoryID:        p.CategoryID,
		Name:              p.Name,
		Slug:              p.Slug,
		SKU:               p.SKU,
		Description:       p.Description,
		ShortDescription:  p.ShortDescription,
		Price:             p.Price,
		OriginalPrice:     p.OriginalPrice,
		Stock:             p.Stock,
		LowStockThreshold: p.LowStockThreshold,
		TrackQuantity:     p.TrackQuantity,
		IsActive:          p.IsActive,
		IsFeatured:        p.IsFeatured,
		Images:            p.Images,
	}
}

type updateProductRequest struct {
	CategoryID         types.NullableUUID       `json:"categoryId"`
	Name               *string                  `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Slug               *string                  `json:"slug,omitempty" validate:"omitempty,min=1,max=220"`
	SKU                *string                  `json:"sku,omitempty" validate:"omitempty,max=64"`
	Description        *string                  `json:"description,omitempty"`
	ShortDescription   *string                  `json:"shortDescription,omitempty" validate:"omitempty,max=500"`
	Price              *decimal.Decimal         `json:"price,omitempty"`
	OriginalPrice      *decimal.Decimal         `json:"originalPrice,omitempty"`
	ClearOriginalPrice bool                     `json:"clearOriginalPrice"`
	Stock              *int                     `json:"stock,omitempty" validate:"omitempty,gte=0"`
	LowStockThreshold  *int                     `json:"lowStockThreshold,omitempty" validate:"omitempty,gte=0"`
	TrackQuantity      *bool                    `json:"trackQuantity,omitempty"`
	IsActive           *bool                    `json:"isActive,omitempty"`
	IsFeatured         *bool                    `json:"isFeatured,omitempty"`
	Images             *[]productsvc.ImageInput `json:"images,omitempty"`
}

func (p updateProductRequest) toInput() (productsvc.UpdateInput, error) {
	if p.Images != nil {
		for _, img := range *p.Images {
			if err := validators.ValidateStruct(img); err != nil {
				return productsvc.UpdateInput{}, err
			}
		}
	}
	return productsvc.UpdateInput{
		CategoryID:        p.CategoryID,
		Name:              p.Name,
		Slug:              p.Slug,
		SKU:               p.SKU,
		Description:       p.Description,
		ShortDescription:  p.ShortDescription,
		Price:             p.Price,
		OriginalPrice:     p.OriginalPrice,
		ClearOriginal:     p.ClearOriginalPrice,
		Stock:             p.Stock,
		LowStockThreshold: p.LowStockThreshold,
		TrackQuantity:     p.TrackQuantity,
		IsActive:          p.IsActive,
		IsFeatured:        p.IsFeatured,
		Images:            p.Images,
	}, nil
}

// AdminProductCreate handles catalog creation.
func AdminProductCreate(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Create(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func AdminProductGet(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}
		id, err := validators.URLParamUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.GetByID(r.Context(), id, true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func AdminProductUpdate(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}
		id, err := validators.URLParamUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func AdminProductDelete(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}
		id, err := validators.URLParamUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
