package v1

import (
	"net/http"

	"inclusive-matching-api/internal/delivery/http/response"
	"inclusive-matching-api/internal/domain"
	"inclusive-matching-api/pkg/apperror"

	"github.com/gin-gonic/gin"
)

type MatchHandler struct {
	matchUC domain.MatchUsecase
}

// NewMatchHandler registers POST /ai/match behind the given middlewares.
func NewMatchHandler(r gin.IRoutes, matchUC domain.MatchUsecase, mw ...gin.HandlerFunc) {
	handler := &MatchHandler{matchUC: matchUC}

	r.POST("/ai/match", append(mw, handler.Match)...)
}

type matchQuery struct {
	TargetID      int64            `form:"target_id"`
	Mode          domain.MatchMode `form:"mode,default=complementarity"`
	TopK          int              `form:"top_k,default=5"`
	SameCity      bool             `form:"same_city,default=true"`
	MaxCandidates int              `form:"max_candidates,default=50"`
}

// Match godoc
// @Summary      Rank match candidates for a profile
// @Description  Prefilters candidates by age corridor and city, then asks the LLM to rank them
// @Tags         matching
// @Produce      json
// @Param        target_id       query     int     true   "Target profile ID"
// @Param        mode            query     string  false  "similarity | complementarity | goal_alignment"  default(complementarity)
// @Param        top_k           query     int     false  "Results to return (1-20)"                       default(5)
// @Param        same_city       query     bool    false  "Only candidates from the target's city"          default(true)
// @Param        max_candidates  query     int     false  "Candidates sent to the LLM (1-200)"             default(50)
// @Success      200  {object}  domain.MatchResult
// @Failure      404  {object}  response.Response
// @Failure      422  {object}  response.Response
// @Failure      429  {object}  response.Response
// @Failure      502  {object}  response.Response
// @Router       /ai/match [post]
func (h *MatchHandler) Match(c *gin.Context) {
	var q matchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.Error(apperror.Unprocessable("Invalid query parameters", []string{err.Error()}))
		return
	}

	result, err := h.matchUC.Match(c.Request.Context(), domain.MatchParams{
		TargetID:      q.TargetID,
		Mode:          q.Mode,
		TopK:          q.TopK,
		SameCity:      q.SameCity,
		MaxCandidates: q.MaxCandidates,
	})
	if err != nil {
		c.Error(err)
		return
	}
	response.Resource(c, http.StatusOK, result)
}
