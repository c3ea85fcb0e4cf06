// Package prompt turns patient records and file analyses into one bounded
// text block for the AI client. Truncation happens on two tiers: individual
// fields are clipped first, then each section is clipped to its overall
// character budget, so many small fields cannot blow the section budget.
// Truncation, never rejection, is the policy.
package prompt

import (
	"fmt"
	"strings"

	"medichat/internal/config"
	"medichat/internal/models"
)

// Sentinels emitted when a context source is empty.
const (
	NoPatientData = "No patient data available in the database."
	NoFiles       = "No additional files attached."
)

// Assembler applies the configured character budgets. Budgets count runes,
// so a clipped value is never cut mid-codepoint.
type Assembler struct {
	maxPatientsFull      int
	maxPatientsOptimized int
	fieldLimitFull       int
	fieldLimitOptimized  int
	notesLimit           int
	patientBudget        int
	filesBudget          int
}

// New builds an assembler from the context budgets. Load has already filled
// defaults, so the fields are taken as-is.
func New(cfg config.ContextConfig) *Assembler {
	return &Assembler{
		maxPatientsFull:      cfg.MaxPatientsFull,
		maxPatientsOptimized: cfg.MaxPatientsOptimized,
		fieldLimitFull:       cfg.FieldLimitFull,
		fieldLimitOptimized:  cfg.FieldLimitOptimized,
		notesLimit:           cfg.NotesLimit,
		patientBudget:        cfg.PatientBudget,
		filesBudget:          cfg.FilesBudget,
	}
}

// FormatPatientsFull renders the list form used by the plain chat path:
// up to maxPatientsFull entries with the wider field limit.
func (a *Assembler) FormatPatientsFull(patients []models.Patient) string {
	return a.formatPatientList(patients, a.maxPatientsFull, a.fieldLimitFull)
}

// FormatPatientsOptimized renders the tighter list form used by the
// enhanced chat path.
func (a *Assembler) FormatPatientsOptimized(patients []models.Patient) string {
	return a.formatPatientList(patients, a.maxPatientsOptimized, a.fieldLimitOptimized)
}

func (a *Assembler) formatPatientList(patients []models.Patient, maxShown, fieldLimit int) string {
	if len(patients) == 0 {
		return ""
	}

	parts := []string{fmt.Sprintf("Available Patient Records (%d total):", len(patients))}

	shown := patients
	if len(shown) > maxShown {
		shown = shown[:maxShown]
	}
	for i, p := range shown {
		parts = append(parts, fmt.Sprintf("\n%d. %s", i+1, valueOr(p.Name, "Unknown")))
		parts = append(parts, "   - DOB: "+valueOr(p.DateOfBirth, "Not specified"))
		if p.Diagnosis != "" {
			parts = append(parts, "   - Diagnosis: "+clipField(p.Diagnosis, fieldLimit))
		}
		if p.Prescription != "" {
			parts = append(parts, "   - Prescription: "+clipField(p.Prescription, fieldLimit))
		}
	}

	if len(patients) > maxShown {
		parts = append(parts, fmt.Sprintf("\n... and %d more patients", len(patients)-maxShown))
	}
	return strings.Join(parts, "\n")
}

// FormatPatientRecords renders the verbose record form served by the
// patient-context endpoint: every field spelled out, free-text notes capped
// at notesLimit with an explicit marker.
func (a *Assembler) FormatPatientRecords(patients []models.Patient) string {
	if len(patients) == 0 {
		return "No patient data available."
	}

	parts := []string{"=== PATIENT DATABASE CONTEXT ===\n"}
	for i, p := range patients {
		parts = append(parts,
			fmt.Sprintf("PATIENT %d:", i+1),
			fmt.Sprintf("- ID: %d", p.ID),
			"- Name: "+valueOr(p.Name, "Unknown"),
			"- Date of Birth: "+valueOr(p.DateOfBirth, "Not specified"),
			"- Diagnosis: "+valueOr(p.Diagnosis, "Not specified"),
			"- Prescription: "+valueOr(p.Prescription, "Not specified"),
		)
		if p.ConfidenceScore > 0 {
			parts = append(parts, fmt.Sprintf("- Confidence Score: %g", p.ConfidenceScore))
		}
		if p.RawText != "" {
			notes := p.RawText
			if len([]rune(notes)) > a.notesLimit {
				notes = clipRunes(notes, a.notesLimit) + "... [truncated]"
			}
			parts = append(parts, "- Additional Notes: "+notes)
		}
		parts = append(parts, "")
	}
	parts = append(parts, "=== END PATIENT CONTEXT ===")
	return strings.Join(parts, "\n")
}

// AssembleChat combines the three context sources for the plain chat path.
// Empty sources collapse to their sentinel line so the model always sees
// every section header.
func (a *Assembler) AssembleChat(patientContext, additionalContext, filesContext string) string {
	if patientContext == "" {
		patientContext = NoPatientData
	}
	if filesContext == "" {
		filesContext = NoFiles
	}
	return fmt.Sprintf("\nPATIENT DATABASE CONTEXT:\n%s\n\nADDITIONAL CONTEXT:\n%s\n\nFILES CONTEXT:\n%s\n",
		clipRunes(patientContext, a.patientBudget),
		additionalContext,
		clipRunes(filesContext, a.filesBudget))
}

// AssembleEnhanced combines patient and file contexts for the enhanced chat
// path. Both sections are clipped to their budget after formatting.
func (a *Assembler) AssembleEnhanced(patientContext, filesContext string) string {
	if patientContext == "" {
		patientContext = NoPatientData
	}
	return fmt.Sprintf("\nPATIENT DATABASE CONTEXT:\n%s\n\nATTACHED FILES CONTEXT:\n%s\n",
		clipRunes(patientContext, a.patientBudget),
		clipRunes(filesContext, a.filesBudget))
}

// clipField hard-truncates a field value, appending the marker only when
// truncation actually removed something.
func clipField(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

func clipRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
