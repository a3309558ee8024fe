package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// startMissionHandler handles POST /api/v1/learn-mode/missions (spec §6:
// startMission).
func (s *Server) startMissionHandler(c *gin.Context) {
	if !requirePermission(c, "learn-mode", "start") {
		return
	}

	var req startMissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	mission, err := s.core.StartMission(c.Request.Context(), req.Topic)
	if err != nil {
		writeCoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mission)
}

// submitStepHandler handles POST /api/v1/learn-mode/missions/:id/step
// (spec §6: submitStep).
func (s *Server) submitStepHandler(c *gin.Context) {
	if !requirePermission(c, "learn-mode", "step") {
		return
	}

	step, err := s.core.SubmitStep(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeCoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, step)
}

// provideFeedbackHandler handles POST
// /api/v1/learn-mode/missions/:id/feedback (spec §6: provideFeedback).
func (s *Server) provideFeedbackHandler(c *gin.Context) {
	if !requirePermission(c, "learn-mode", "feedback") {
		return
	}

	var req provideFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	s.core.ProvideFeedback(c.Request.Context(), c.Param("id"), req.Input, req.Response, req.Feedback)
	c.Status(http.StatusNoContent)
}

// explainConceptHandler handles GET
// /api/v1/learn-mode/concepts/:label (spec §6: explainConcept).
func (s *Server) explainConceptHandler(c *gin.Context) {
	if !requirePermission(c, "learn-mode", "explain") {
		return
	}

	explanation, err := s.core.ExplainConcept(c.Request.Context(), c.Param("label"))
	if err != nil {
		writeCoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"explanation": explanation})
}
