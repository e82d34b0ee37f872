package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/nett/internal/api/middleware"
	"github.com/dvloznov/nett/internal/domain"
	"github.com/dvloznov/nett/internal/store"
)

// CategoriesHandler handles category and subcategory management.
type CategoriesHandler struct {
	cats store.CategoryRepository
	txns store.TransactionRepository
	log  zerolog.Logger
}

func NewCategoriesHandler(cats store.CategoryRepository, txns store.TransactionRepository, log zerolog.Logger) *CategoriesHandler {
	return &CategoriesHandler{cats: cats, txns: txns, log: log}
}

type categoryBody struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CategoryID  string `json:"category_id"`
}

func decodeCategoryBody(r *http.Request) (categoryBody, error) {
	var body categoryBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return body, badRequest("Invalid request body")
	}
	body.Name = strings.TrimSpace(body.Name)
	if body.Name == "" {
		return body, badRequest("name is required")
	}
	return body, nil
}

// CreateCategory handles POST /api/category with {name}.
func (h *CategoriesHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	body, err := decodeCategoryBody(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	catalog, ok := h.catalog(w, r)
	if !ok {
		return
	}
	if c, taken := catalog.ByName(body.Name); taken {
		middleware.WriteError(w, http.StatusConflict, fmt.Sprintf("Category %q already exists.", c.Name))
		return
	}

	c := domain.Category{Name: body.Name}
	if err := h.cats.CreateCategory(r.Context(), &c); err != nil {
		h.log.Error().Err(err).Msg("Failed to create category")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to create category")
		return
	}
	h.log.Info().Str("category_id", c.ID).Str("name", c.Name).Msg("Category created")
	middleware.WriteJSON(w, http.StatusCreated, c)
}

// UpdateCategory handles PUT /api/category with {id, name}.
func (h *CategoriesHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	body, err := decodeCategoryBody(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.ID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Category id is required")
		return
	}
	catalog, ok := h.catalog(w, r)
	if !ok {
		return
	}
	if c, taken := catalog.ByName(body.Name); taken && c.ID != body.ID {
		middleware.WriteError(w, http.StatusConflict, fmt.Sprintf("Category %q already exists.", c.Name))
		return
	}

	if err := h.cats.UpdateCategory(r.Context(), domain.Category{ID: body.ID, Name: body.Name}); err != nil {
		h.writeStoreError(w, err, "Category", body.ID, "Failed to update category")
		return
	}
	c, found := catalog.ByID(body.ID)
	if !found {
		c = &domain.Category{ID: body.ID, Subcategories: []domain.Subcategory{}}
	}
	c.Name = body.Name
	middleware.WriteJSON(w, http.StatusOK, c)
}

// DeleteCategory handles DELETE /api/category/{id}. Its subcategories go with it.
func (h *CategoriesHandler) DeleteCategory(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.cats.DeleteCategory(r.Context(), id); err != nil {
		h.writeStoreError(w, err, "Category", id, "Failed to delete category")
		return
	}
	h.log.Info().Str("category_id", id).Msg("Category deleted")
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Category %s deleted successfully.", id),
	})
}

// GetSubcategory handles GET /api/subcategory/{id}
func (h *CategoriesHandler) GetSubcategory(w http.ResponseWriter, r *http.Request, id string) {
	s, err := h.cats.GetSubcategory(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, err, "Subcategory", id, "Failed to load subcategory")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, s)
}

// CreateSubcategory handles POST /api/subcategory with {name, description, category_id}.
func (h *CategoriesHandler) CreateSubcategory(w http.ResponseWriter, r *http.Request) {
	body, err := decodeCategoryBody(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.CategoryID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "category_id is required")
		return
	}
	catalog, ok := h.catalog(w, r)
	if !ok {
		return
	}
	if parent, found := catalog.ByID(body.CategoryID); found && hasSubcategory(parent, body.Name, "") {
		middleware.WriteError(w, http.StatusConflict,
			fmt.Sprintf("Subcategory %q already exists in %s.", body.Name, parent.Name))
		return
	}

	s := domain.Subcategory{Name: body.Name, Description: body.Description, CategoryID: body.CategoryID}
	if err := h.cats.CreateSubcategory(r.Context(), &s); err != nil {
		h.writeStoreError(w, err, "Category", body.CategoryID, "Failed to create subcategory")
		return
	}
	h.log.Info().Str("subcategory_id", s.ID).Str("category_id", s.CategoryID).Msg("Subcategory created")
	middleware.WriteJSON(w, http.StatusCreated, s)
}

// UpdateSubcategory handles PUT /api/subcategory with {id, name, description}.
// A subcategory cannot move to another category.
func (h *CategoriesHandler) UpdateSubcategory(w http.ResponseWriter, r *http.Request) {
	body, err := decodeCategoryBody(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.ID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Subcategory id is required")
		return
	}

	ctx := r.Context()
	current, err := h.cats.GetSubcategory(ctx, body.ID)
	if err != nil {
		h.writeStoreError(w, err, "Subcategory", body.ID, "Failed to update subcategory")
		return
	}
	catalog, ok := h.catalog(w, r)
	if !ok {
		return
	}
	if parent, found := catalog.ByID(current.CategoryID); found && hasSubcategory(parent, body.Name, body.ID) {
		middleware.WriteError(w, http.StatusConflict,
			fmt.Sprintf("Subcategory %q already exists in %s.", body.Name, parent.Name))
		return
	}

	s := domain.Subcategory{ID: body.ID, Name: body.Name, Description: body.Description, CategoryID: current.CategoryID}
	if err := h.cats.UpdateSubcategory(ctx, s); err != nil {
		h.writeStoreError(w, err, "Subcategory", body.ID, "Failed to update subcategory")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, s)
}

// DeleteSubcategory handles DELETE /api/subcategory/{id}
func (h *CategoriesHandler) DeleteSubcategory(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.cats.DeleteSubcategory(r.Context(), id); err != nil {
		h.writeStoreError(w, err, "Subcategory", id, "Failed to delete subcategory")
		return
	}
	h.log.Info().Str("subcategory_id", id).Msg("Subcategory deleted")
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Subcategory %s deleted successfully.", id),
	})
}

func (h *CategoriesHandler) catalog(w http.ResponseWriter, r *http.Request) (domain.Catalog, bool) {
	categories, err := h.txns.ListCategories(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list categories")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list categories")
		return nil, false
	}
	return domain.Catalog(categories), true
}

// hasSubcategory reports whether c has a subcategory named name other than except.
func hasSubcategory(c *domain.Category, name, except string) bool {
	for _, s := range c.Subcategories {
		if s.Name == name && s.ID != except {
			return true
		}
	}
	return false
}

func (h *CategoriesHandler) writeStoreError(w http.ResponseWriter, err error, kind, id, fallback string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		middleware.WriteError(w, http.StatusNotFound, fmt.Sprintf("%s %s not found.", kind, id))
	case errors.Is(err, store.ErrInUse):
		middleware.WriteError(w, http.StatusBadRequest,
			fmt.Sprintf("Cannot delete %s with associated transactions.", strings.ToLower(kind)))
	default:
		h.log.Error().Err(err).Str("id", id).Msg(fallback)
		middleware.WriteError(w, http.StatusInternalServerError, fallback)
	}
}
