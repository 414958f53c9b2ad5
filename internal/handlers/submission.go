package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"leetlab/internal/judge"
	"leetlab/internal/logger"
	"leetlab/internal/middlewares"
	"leetlab/internal/models"
	"leetlab/internal/repositories"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SubmissionHandler struct {
	orchestrator *judge.Orchestrator
	problemRepo  repositories.ProblemRepository
	submissions  repositories.SubmissionRepository
}

func NewSubmissionHandler(orchestrator *judge.Orchestrator, problemRepo repositories.ProblemRepository,
	submissions repositories.SubmissionRepository) *SubmissionHandler {
	return &SubmissionHandler{
		orchestrator: orchestrator,
		problemRepo:  problemRepo,
		submissions:  submissions,
	}
}

// RunCode evaluates code against the problem's visible test cases without
// recording anything.
func (h *SubmissionHandler) RunCode(c *gin.Context) {
	problemID, req, ok := h.bindEvaluationRequest(c)
	if !ok {
		return
	}

	problem, err := h.problemRepo.GetProblemForJudging(c.Request.Context(), problemID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Problem not found"})
		return
	}

	result, err := h.orchestrator.RunTrial(c.Request.Context(), problem, req.Language, req.SourceCode)
	if err != nil {
		status := evaluationErrorStatus(err)
		logger.Log.Error("Trial run failed",
			zap.Int("problem_id", problemID),
			zap.Error(err))
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// SubmitCode grades code against the problem's hidden test cases and records
// the submission.
func (h *SubmissionHandler) SubmitCode(c *gin.Context) {
	userID, ok := middlewares.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization required"})
		return
	}

	problemID, req, bound := h.bindEvaluationRequest(c)
	if !bound {
		return
	}

	problem, err := h.problemRepo.GetProblemForJudging(c.Request.Context(), problemID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Problem not found"})
		return
	}

	result, err := h.orchestrator.SubmitGraded(c.Request.Context(), userID, problem, req.Language, req.SourceCode)
	if err != nil {
		// Only pre-dispatch validation reaches here; pipeline failures
		// come back as a verdict-shaped result with a message.
		status := evaluationErrorStatus(err)
		logger.Log.Error("Graded submission failed before dispatch",
			zap.Int("user_id", userID),
			zap.Int("problem_id", problemID),
			zap.Error(err))
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *SubmissionHandler) GetSubmission(c *gin.Context) {
	userID, ok := middlewares.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization required"})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission ID"})
		return
	}

	submission, err := h.submissions.GetSubmissionByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
		return
	}

	if submission.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not your submission"})
		return
	}

	c.JSON(http.StatusOK, submission)
}

// GetProblemSubmissions lists the caller's submission history for a problem.
func (h *SubmissionHandler) GetProblemSubmissions(c *gin.Context) {
	userID, ok := middlewares.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization required"})
		return
	}

	problemID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid problem ID"})
		return
	}

	submissions, err := h.submissions.GetSubmissionsByUserAndProblem(c.Request.Context(), userID, problemID)
	if err != nil {
		logger.Log.Error("Failed to get user submissions",
			zap.Int("user_id", userID),
			zap.Int("problem_id", problemID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve submission history"})
		return
	}

	for i := range submissions {
		submissions[i].FormattedTime = submissions[i].SubmittedAt.Format("Jan 2, 2006 at 3:04 PM")
	}

	c.JSON(http.StatusOK, gin.H{
		"submissions": submissions,
		"count":       len(submissions),
	})
}

func (h *SubmissionHandler) bindEvaluationRequest(c *gin.Context) (int, *models.SubmissionRequest, bool) {
	problemID, err := strconv.Atoi(c.Param("id"))
	if err != nil || problemID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid problem ID"})
		return 0, nil, false
	}

	var req models.SubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return 0, nil, false
	}

	if err := req.ValidateRequest(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return 0, nil, false
	}

	return problemID, &req, true
}

// evaluationErrorStatus maps the judging error taxonomy onto HTTP statuses:
// caller bugs are 4xx, upstream engine trouble is a gateway problem.
func evaluationErrorStatus(err error) int {
	var confErr *judge.ConfigurationError
	var dispatchErr *judge.DispatchError
	var timeoutErr *judge.EvaluationTimeoutError

	switch {
	case errors.As(err, &confErr):
		return http.StatusBadRequest
	case errors.As(err, &dispatchErr):
		return http.StatusBadGateway
	case errors.As(err, &timeoutErr):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (h *SubmissionHandler) RegisterRoutes(router *gin.Engine, auth gin.HandlerFunc) {
	problemGroup := router.Group("/problems", auth)
	{
		problemGroup.POST("/:id/run", h.RunCode)
		problemGroup.POST("/:id/submit", h.SubmitCode)
		problemGroup.GET("/:id/submissions", h.GetProblemSubmissions)
	}

	submissionGroup := router.Group("/submissions", auth)
	{
		submissionGroup.GET("/:id", h.GetSubmission)
	}
}
