package v1

import (
	"net/http"
	"strconv"

	"inclusive-matching-api/internal/delivery/http/response"
	"inclusive-matching-api/internal/domain"
	"inclusive-matching-api/pkg/apperror"

	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	profileUC domain.ProfileUsecase
}

func NewProfileHandler(r gin.IRoutes, profileUC domain.ProfileUsecase) {
	handler := &ProfileHandler{profileUC: profileUC}

	// collection routes answer with and without the trailing slash
	r.POST("/profiles", handler.Create)
	r.POST("/profiles/", handler.Create)
	r.GET("/profiles", handler.List)
	r.GET("/profiles/", handler.List)
	r.GET("/profiles/:id", handler.Get)
	r.DELETE("/profiles/:id", handler.Delete)
}

// Create godoc
// @Summary      Create a profile
// @Description  Store a child/family profile and return it with its assigned id
// @Tags         profiles
// @Accept       json
// @Produce      json
// @Param        profile  body      domain.CreateProfileRequest  true  "Profile JSON"
// @Success      201      {object}  domain.Profile
// @Failure      422      {object}  response.Response
// @Router       /profiles/ [post]
func (h *ProfileHandler) Create(c *gin.Context) {
	var req domain.CreateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.Unprocessable("Invalid request body", []string{err.Error()}))
		return
	}

	profile, err := h.profileUC.CreateProfile(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}
	response.Resource(c, http.StatusCreated, profile)
}

// List godoc
// @Summary      List profiles
// @Tags         profiles
// @Produce      json
// @Success      200  {array}   domain.Profile
// @Router       /profiles/ [get]
func (h *ProfileHandler) List(c *gin.Context) {
	profiles, err := h.profileUC.ListProfiles(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	response.Resource(c, http.StatusOK, profiles)
}

// Get godoc
// @Summary      Get a profile
// @Tags         profiles
// @Produce      json
// @Param        id   path      int  true  "Profile ID"
// @Success      200  {object}  domain.Profile
// @Failure      404  {object}  response.Response
// @Failure      422  {object}  response.Response
// @Router       /profiles/{id} [get]
func (h *ProfileHandler) Get(c *gin.Context) {
	id, ok := profileID(c)
	if !ok {
		return
	}

	profile, err := h.profileUC.GetProfile(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	response.Resource(c, http.StatusOK, profile)
}

// Delete godoc
// @Summary      Delete a profile
// @Tags         profiles
// @Param        id   path      int  true  "Profile ID"
// @Success      204
// @Failure      404  {object}  response.Response
// @Failure      422  {object}  response.Response
// @Router       /profiles/{id} [delete]
func (h *ProfileHandler) Delete(c *gin.Context) {
	id, ok := profileID(c)
	if !ok {
		return
	}

	if err := h.profileUC.DeleteProfile(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func profileID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(apperror.Unprocessable("Invalid profile id", []string{"id: must be an integer"}))
		return 0, false
	}
	return id, true
}
