package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/schoolbook/schoolbook/core"
	"github.com/schoolbook/schoolbook/service"
)

// maxImageSize caps uploaded school images at 5MB.
const maxImageSize = 5 << 20

// SchoolHandlers contains HTTP handlers for the school registry endpoints.
type SchoolHandlers struct {
	schools *service.SchoolService
}

// NewSchoolHandlers creates new school handlers.
func NewSchoolHandlers(schools *service.SchoolService) *SchoolHandlers {
	return &SchoolHandlers{schools: schools}
}

// List handles GET /api/schools.
func (h *SchoolHandlers) List(c *gin.Context) {
	list, err := h.schools.ListSchools(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch schools"})
		return
	}
	c.JSON(http.StatusOK, list)
}

// Create handles POST /api/schools (multipart form with an image file).
func (h *SchoolHandlers) Create(c *gin.Context) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image is required"})
		return
	}
	defer file.Close()

	if header.Size > maxImageSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image size must be less than 5MB"})
		return
	}

	in := service.AddSchoolInput{
		Name:      c.PostForm("name"),
		Address:   c.PostForm("address"),
		City:      c.PostForm("city"),
		State:     c.PostForm("state"),
		Contact:   c.PostForm("contact"),
		Email:     c.PostForm("email_id"),
		ImageName: header.Filename,
		Image:     file,
	}

	id, err := h.schools.AddSchool(c.Request.Context(), in)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, gin.H{"id": id, "message": "School added successfully"})
	case errors.Is(err, core.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, core.ErrUploadFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Image upload failed. Please try again."})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add school. Please try again."})
	}
}
