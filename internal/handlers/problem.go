package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"leetlab/internal/judge"
	"leetlab/internal/logger"
	"leetlab/internal/middlewares"
	"leetlab/internal/models"
	"leetlab/internal/repositories"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ProblemHandler struct {
	problemRepo  repositories.ProblemRepository
	solvedRepo   repositories.SolvedSetRepository
	orchestrator *judge.Orchestrator
}

func NewProblemHandler(problemRepo repositories.ProblemRepository, solvedRepo repositories.SolvedSetRepository,
	orchestrator *judge.Orchestrator) *ProblemHandler {
	return &ProblemHandler{
		problemRepo:  problemRepo,
		solvedRepo:   solvedRepo,
		orchestrator: orchestrator,
	}
}

// GetProblems returns a list of all problems with minimal information,
// marking the ones the caller has solved.
func (h *ProblemHandler) GetProblems(c *gin.Context) {
	problems, err := h.problemRepo.GetProblems(c.Request.Context())
	if err != nil {
		logger.Log.Error("Failed to get problems", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve problems"})
		return
	}

	if userID, ok := middlewares.UserID(c); ok {
		solved, err := h.solvedRepo.GetSolvedProblemIDs(c.Request.Context(), userID)
		if err != nil {
			logger.Log.Error("Failed to get solved problems",
				zap.Int("user_id", userID),
				zap.Error(err))
		} else {
			for i := range problems {
				problems[i].IsSolved = solved[problems[i].ID]
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"problems": problems,
	})
}

// GetProblemByID returns detailed information about a specific problem
func (h *ProblemHandler) GetProblemByID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid problem ID"})
		return
	}

	problem, err := h.problemRepo.GetProblemByID(c.Request.Context(), id)
	if err != nil {
		logger.Log.Error("Failed to get problem",
			zap.Int("problem_id", id),
			zap.Error(err))

		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Problem not found"})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve problem details"})
		return
	}

	if userID, ok := middlewares.UserID(c); ok {
		solved, err := h.solvedRepo.GetSolvedProblemIDs(c.Request.Context(), userID)
		if err == nil {
			problem.IsSolved = solved[problem.ID]
		}
	}

	c.JSON(http.StatusOK, problem)
}

// CreateProblem verifies every reference solution against the visible test
// cases before the problem is stored. A failing reference solution rejects
// the problem.
func (h *ProblemHandler) CreateProblem(c *gin.Context) {
	problem, ok := h.bindProblemRequest(c)
	if !ok {
		return
	}

	if err := h.orchestrator.VerifyReferenceSolutions(c.Request.Context(), problem); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.problemRepo.CreateProblem(c.Request.Context(), problem); err != nil {
		logger.Log.Error("Failed to create problem", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create problem"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    "Problem created",
		"problem_id": problem.ID,
	})
}

// UpdateProblem re-verifies reference solutions against the updated test
// cases before anything is overwritten.
func (h *ProblemHandler) UpdateProblem(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid problem ID"})
		return
	}

	problem, ok := h.bindProblemRequest(c)
	if !ok {
		return
	}
	problem.ID = id

	if err := h.orchestrator.VerifyReferenceSolutions(c.Request.Context(), problem); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.problemRepo.UpdateProblem(c.Request.Context(), problem); err != nil {
		logger.Log.Error("Failed to update problem",
			zap.Int("problem_id", id),
			zap.Error(err))

		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Problem not found"})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update problem"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Problem updated"})
}

func (h *ProblemHandler) bindProblemRequest(c *gin.Context) (*models.Problem, bool) {
	var req models.ProblemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	if err := req.ValidateRequest(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	return req.ToProblem(), true
}

func (h *ProblemHandler) RegisterRoutes(router *gin.Engine, optionalAuth, auth, admin gin.HandlerFunc) {
	readGroup := router.Group("/problems", optionalAuth)
	{
		readGroup.GET("", h.GetProblems)
		readGroup.GET("/:id", h.GetProblemByID)
	}

	adminGroup := router.Group("/admin/problems", auth, admin)
	{
		adminGroup.POST("", h.CreateProblem)
		adminGroup.PUT("/:id", h.UpdateProblem)
	}
}
