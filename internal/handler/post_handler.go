package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"stellar/internal/model"
	"stellar/internal/repository"
	"stellar/internal/response"
	"stellar/internal/service"
)

// PostHandler handles blog post endpoints.
type PostHandler struct {
	postService service.PostService
}

// NewPostHandler creates a new post handler.
func NewPostHandler(postService service.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

// PostRequest carries create/update fields for a post.
type PostRequest struct {
	Title      string  `json:"title" validate:"required,max=200"`
	Content    string  `json:"content" validate:"required"`
	Status     string  `json:"status" validate:"omitempty,oneof=draft published archived"`
	CategoryID *string `json:"category_id" validate:"omitempty,uuid"`
}

func (r PostRequest) toInput() (service.PostInput, error) {
	input := service.PostInput{
		Title:   r.Title,
		Content: r.Content,
		Status:  model.PostStatus(r.Status),
	}
	if r.CategoryID != nil {
		id, err := uuid.Parse(*r.CategoryID)
		if err != nil {
			return input, echo.NewHTTPError(http.StatusBadRequest, "invalid category_id")
		}
		input.CategoryID = &id
	}
	return input, nil
}

// Create godoc
// @Summary Create a post
// @Tags posts
// @Accept json
// @Produce json
// @Param request body PostRequest true "Post data"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /posts [post]
func (h *PostHandler) Create(c echo.Context) error {
	var req PostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	input, err := req.toInput()
	if err != nil {
		return err
	}

	post, err := h.postService.Create(c.Request().Context(), viewer(c).ID, input)
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusCreated, post)
}

// Update godoc
// @Summary Update a post
// @Tags posts
// @Accept json
// @Produce json
// @Param id path string true "Post ID"
// @Param request body PostRequest true "Post data"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /posts/{id} [put]
func (h *PostHandler) Update(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	var req PostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	input, err := req.toInput()
	if err != nil {
		return err
	}

	post, err := h.postService.Update(c.Request().Context(), viewer(c), id, input)
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusOK, post)
}

// Delete godoc
// @Summary Delete a post
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /posts/{id} [delete]
func (h *PostHandler) Delete(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.postService.Delete(c.Request().Context(), viewer(c), id); err != nil {
		return err
	}
	return response.JSON(c, http.StatusOK, map[string]string{"message": "post deleted"})
}

// Get godoc
// @Summary Get a post
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /posts/{id} [get]
func (h *PostHandler) Get(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	post, err := h.postService.Get(c.Request().Context(), viewer(c), id)
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusOK, post)
}

// List godoc
// @Summary List posts
// @Tags posts
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param status query string false "Status filter"
// @Param author_id query string false "Author filter"
// @Param category_id query string false "Category filter"
// @Param search query string false "Search title and content"
// @Success 200 {object} response.Envelope
// @Router /posts [get]
func (h *PostHandler) List(c echo.Context) error {
	p := response.ParsePagination(c)
	filter := repository.PostFilter{
		Status: model.PostStatus(c.QueryParam("status")),
		Search: c.QueryParam("search"),
		Offset: p.Offset(),
		Limit:  p.Limit,
	}
	if raw := c.QueryParam("author_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid author_id")
		}
		filter.AuthorID = &id
	}
	if raw := c.QueryParam("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid category_id")
		}
		filter.CategoryID = &id
	}

	posts, total, err := h.postService.List(c.Request().Context(), viewer(c), filter)
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusOK, response.Page{
		Items: posts, Total: total, Page: p.Page, Limit: p.Limit,
	})
}
