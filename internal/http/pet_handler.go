package http

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/YuviX-514/pawAdopt/internal/domain"
	"github.com/YuviX-514/pawAdopt/internal/imagestore"
	"github.com/YuviX-514/pawAdopt/internal/metrics"
	"github.com/YuviX-514/pawAdopt/internal/service"
)

// PetHandler expone publicaciones, adopción y consulta por adoptante.
type PetHandler struct {
	logger    *zap.Logger
	listings  *service.ListingService
	adoptions *service.AdoptionService
	query     *service.QueryService
	images    imagestore.Store
}

func NewPetHandler(
	logger *zap.Logger,
	listings *service.ListingService,
	adoptions *service.AdoptionService,
	query *service.QueryService,
	images imagestore.Store,
) *PetHandler {
	return &PetHandler{
		logger:    logger,
		listings:  listings,
		adoptions: adoptions,
		query:     query,
		images:    images,
	}
}

// CreatePet maneja POST /pets. Las fotos se suben antes de crear el registro;
// el dueño sale del token, nunca del formulario.
func (h *PetHandler) CreatePet(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		respondFail(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		h.logger.Warn("invalid pet form", zap.Error(err))
		respondFail(c, http.StatusBadRequest, "Invalid request")
		return
	}

	var age *int
	if raw := strings.TrimSpace(formValue(form, "age")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondFail(c, http.StatusBadRequest, "age must be a whole number")
			return
		}
		age = &n
	}

	files := append(append([]*multipart.FileHeader{}, form.File["photos"]...), form.File["photos[]"]...)
	photos, err := saveUploads(c.Request.Context(), h.images, files)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	view, err := h.listings.CreateListing(c.Request.Context(), claims.UserID, service.CreateListingInput{
		Name:        formValue(form, "name"),
		Species:     formValue(form, "species"),
		Breed:       formValue(form, "breed"),
		Age:         age,
		Gender:      formValue(form, "gender"),
		Description: formValue(form, "description"),
		Photos:      photos,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusCreated, "Pet listed", gin.H{"pet": view})
}

// ListPets maneja GET /pets.
func (h *PetHandler) ListPets(c *gin.Context) {
	pets, err := h.listings.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, "", gin.H{"pets": pets})
}

// GetPet maneja GET /pets/:id.
func (h *PetHandler) GetPet(c *gin.Context) {
	view, err := h.listings.GetListing(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, "", gin.H{"pet": view})
}

type adoptRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	Country    string `json:"country"`
	PostalCode string `json:"postalCode"`
	Message    string `json:"message"`
}

// AdoptPet maneja POST /pets/:id/adopt. Un body ilegible se trata como vacío
// para que una mascota ya adoptada responda 409 sin importar el payload.
func (h *PetHandler) AdoptPet(c *gin.Context) {
	var req adoptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("unreadable adoption body", zap.Error(err))
		req = adoptRequest{}
	}

	view, err := h.adoptions.SubmitAdoption(c.Request.Context(), c.Param("id"), domain.AdoptionDetails{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Address:    req.Address,
		City:       req.City,
		State:      req.State,
		Country:    req.Country,
		PostalCode: req.PostalCode,
		Message:    req.Message,
	})
	metrics.ObserveAdoption(adoptionOutcome(err))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, "Adoption successful", gin.H{"pet": view})
}

// AdoptedByEmail maneja POST /pets/adopted.
func (h *PetHandler) AdoptedByEmail(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("unreadable adopted query body", zap.Error(err))
	}
	pets, err := h.query.FindAdoptedBy(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, "", gin.H{"pets": pets})
}

func adoptionOutcome(err error) string {
	switch {
	case err == nil:
		return "adopted"
	case errors.Is(err, service.ErrConflict):
		return "conflict"
	case errors.Is(err, service.ErrValidation):
		return "invalid"
	case errors.Is(err, service.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func formValue(form *multipart.Form, key string) string {
	if form == nil || len(form.Value[key]) == 0 {
		return ""
	}
	return form.Value[key][0]
}
