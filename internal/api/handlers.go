// Package api exposes the chat and patient endpoints over gin.
package api

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"medichat/internal/models"
	"medichat/internal/service/assistant"
	"medichat/internal/session"
)

// Handler wires HTTP routes to the assistant service.
type Handler struct {
	assistant *assistant.Service
}

// NewHandler constructs a Handler instance.
func NewHandler(service *assistant.Service) *Handler {
	return &Handler{assistant: service}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")

	chat := api.Group("/chat")
	chat.POST("/start-session", h.startSession)
	chat.POST("/chat", h.chat)
	chat.POST("/chat-enhanced", h.chatEnhanced)
	chat.POST("/upload-file", h.uploadFile)
	chat.GET("/cache-stats", h.cacheStats)
	chat.POST("/clear-cache", h.clearCache)
	chat.GET("/session/:session_id/files", h.sessionFiles)
	chat.DELETE("/session/:session_id", h.deleteSession)

	patients := api.Group("/patients")
	patients.POST("", h.createPatient)
	patients.GET("", h.listPatients)
	patients.GET("/:patient_id", h.getPatient)
	patients.PUT("/:patient_id", h.updatePatient)
	patients.DELETE("/:patient_id", h.deletePatient)
	patients.GET("/search/:search_term", h.searchPatients)
	patients.GET("/stats/overview", h.patientStats)
	patients.GET("/health/check", h.healthCheck)
	patients.GET("/context/chat", h.patientContext)
}

func (h *Handler) startSession(c *gin.Context) {
	sess, err := h.assistant.Sessions().Create(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": sess.ID})
}

type chatRequest struct {
	SessionID      string `form:"session_id" binding:"required"`
	Query          string `form:"query" binding:"required"`
	PatientContext string `form:"patient_context"`
}

func (h *Handler) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id and query are required"})
		return
	}
	result, err := h.assistant.Chat(c.Request.Context(), req.SessionID, req.Query, req.PatientContext)
	if err != nil {
		h.chatError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) chatEnhanced(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id and query are required"})
		return
	}
	result, err := h.assistant.ChatEnhanced(c.Request.Context(), req.SessionID, req.Query)
	if err != nil {
		h.chatError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) chatError(c *gin.Context, err error) {
	if errors.Is(err, session.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Chat session not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Chat failed: %v", err)})
}

func (h *Handler) uploadFile(c *gin.Context) {
	sessionID := c.PostForm("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil || fileHeader.Filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file selected"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("File upload failed: %v", err)})
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("File upload failed: %v", err)})
		return
	}

	mediaType := fileHeader.Header.Get("Content-Type")
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}

	// Uploads create the session on demand so a client can attach files
	// before its first chat turn.
	fileID, err := h.assistant.Sessions().AppendFile(c.Request.Context(), sessionID, fileHeader.Filename, mediaType, content, true)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("File upload failed: %v", err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"file_id":         fileID,
		"message":         fmt.Sprintf("File %s uploaded successfully", fileHeader.Filename),
		"attachment_type": "file_upload",
	})
}

func (h *Handler) cacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"cache_stats": h.assistant.Cache().Stats(),
		"message":     "Cache statistics retrieved successfully",
	})
}

func (h *Handler) clearCache(c *gin.Context) {
	h.assistant.Cache().ClearAll()
	c.JSON(http.StatusOK, gin.H{"message": "File cache cleared successfully"})
}

func (h *Handler) sessionFiles(c *gin.Context) {
	files, err := h.assistant.Sessions().ListFiles(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Chat session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

func (h *Handler) deleteSession(c *gin.Context) {
	err := h.assistant.Sessions().Delete(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session deleted"})
}

type patientRequest struct {
	Name            string  `json:"name" binding:"required"`
	DateOfBirth     string  `json:"date_of_birth"`
	Diagnosis       string  `json:"diagnosis"`
	Prescription    string  `json:"prescription"`
	ConfidenceScore float64 `json:"confidence_score"`
	RawText         string  `json:"raw_text"`
}

func (r *patientRequest) toModel() *models.Patient {
	return &models.Patient{
		Name:            r.Name,
		DateOfBirth:     r.DateOfBirth,
		Diagnosis:       r.Diagnosis,
		Prescription:    r.Prescription,
		ConfidenceScore: r.ConfidenceScore,
		RawText:         r.RawText,
	}
}

func (h *Handler) createPatient(c *gin.Context) {
	var req patientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	patient, err := h.assistant.CreatePatient(c.Request.Context(), req.toModel())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "patient": patient})
}

func (h *Handler) listPatients(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	patients, err := h.assistant.ListPatients(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"patients": patients, "count": len(patients)})
}

func (h *Handler) patientID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("patient_id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid patient id"})
		return 0, false
	}
	return id, true
}

func (h *Handler) getPatient(c *gin.Context) {
	id, ok := h.patientID(c)
	if !ok {
		return
	}
	patient, err := h.assistant.GetPatient(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Patient not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"patient": patient})
}

func (h *Handler) updatePatient(c *gin.Context) {
	id, ok := h.patientID(c)
	if !ok {
		return
	}
	var req patientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	patient, err := h.assistant.UpdatePatient(c.Request.Context(), id, req.toModel())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Patient not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "patient": patient})
}

func (h *Handler) deletePatient(c *gin.Context) {
	id, ok := h.patientID(c)
	if !ok {
		return
	}
	if err := h.assistant.DeletePatient(c.Request.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Patient not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Patient deleted"})
}

func (h *Handler) searchPatients(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	patients, err := h.assistant.SearchPatients(c.Request.Context(), c.Param("search_term"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"patients": patients, "count": len(patients)})
}

func (h *Handler) patientStats(c *gin.Context) {
	stats, err := h.assistant.PatientStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

func (h *Handler) healthCheck(c *gin.Context) {
	if err := h.assistant.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (h *Handler) patientContext(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	var ids []int64
	if raw := c.Query("patient_ids"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid patient IDs format"})
				return
			}
			ids = append(ids, id)
		}
	}

	text, patients, err := h.assistant.PatientContext(c.Request.Context(), ids, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	summaries := make([]gin.H, 0, len(patients))
	for _, p := range patients {
		diagnosis := p.Diagnosis
		if diagnosis == "" {
			diagnosis = "Not specified"
		}
		summaries = append(summaries, gin.H{"id": p.ID, "name": p.Name, "diagnosis": diagnosis})
	}
	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"context":           text,
		"patients_count":    len(patients),
		"patient_summaries": summaries,
	})
}
