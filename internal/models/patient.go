package models

import "time"

// Patient is a structured medical record extracted from documents or
// entered directly.
type Patient struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	DateOfBirth     string    `json:"date_of_birth"`
	Diagnosis       string    `json:"diagnosis,omitempty"`
	Prescription    string    `json:"prescription,omitempty"`
	ConfidenceScore float64   `json:"confidence_score,omitempty"`
	RawText         string    `json:"raw_text,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// PatientStats summarizes the patient table for the stats endpoint.
type PatientStats struct {
	Total      int `json:"total"`
	Diagnosed  int `json:"diagnosed"`
	Prescribed int `json:"prescribed"`
	RecentWeek int `json:"recent_week"`
}
