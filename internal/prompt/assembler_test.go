package prompt

import (
	"fmt"
	"strings"
	"testing"

	"medichat/internal/config"
	"medichat/internal/models"
)

func testAssembler() *Assembler {
	return New(config.ContextConfig{
		MaxPatientsFull:      config.DefaultMaxPatientsFull,
		MaxPatientsOptimized: config.DefaultMaxPatientsOptimized,
		FieldLimitFull:       config.DefaultFieldLimitFull,
		FieldLimitOptimized:  config.DefaultFieldLimitOptimized,
		NotesLimit:           config.DefaultNotesLimit,
		PatientBudget:        config.DefaultPatientBudget,
		FilesBudget:          config.DefaultFilesBudget,
	})
}

func TestFieldTruncationMarkerOnlyWhenClipped(t *testing.T) {
	a := testAssembler()

	long := strings.Repeat("d", 80)
	out := a.FormatPatientsOptimized([]models.Patient{{Name: "Alice", Diagnosis: long}})
	want := "- Diagnosis: " + strings.Repeat("d", 50) + "..."
	if !strings.Contains(out, want) {
		t.Fatalf("expected clipped diagnosis with marker in:\n%s", out)
	}

	short := strings.Repeat("d", 40)
	out = a.FormatPatientsOptimized([]models.Patient{{Name: "Alice", Diagnosis: short}})
	if !strings.Contains(out, "- Diagnosis: "+short+"\n") && !strings.HasSuffix(out, "- Diagnosis: "+short) {
		t.Fatalf("short diagnosis should be untouched:\n%s", out)
	}
	if strings.Contains(out, short+"...") {
		t.Fatalf("marker must not appear without truncation:\n%s", out)
	}
}

func TestFullPathUsesWiderFieldLimit(t *testing.T) {
	a := testAssembler()
	value := strings.Repeat("p", 80)

	full := a.FormatPatientsFull([]models.Patient{{Name: "Bob", Prescription: value}})
	if !strings.Contains(full, "- Prescription: "+value) {
		t.Fatalf("80-char prescription fits the 100-char full limit:\n%s", full)
	}

	optimized := a.FormatPatientsOptimized([]models.Patient{{Name: "Bob", Prescription: value}})
	if !strings.Contains(optimized, "- Prescription: "+strings.Repeat("p", 50)+"...") {
		t.Fatalf("optimized limit should clip at 50:\n%s", optimized)
	}
}

func TestPatientListCapsAndOverflowTail(t *testing.T) {
	a := testAssembler()

	patients := make([]models.Patient, 8)
	for i := range patients {
		patients[i] = models.Patient{Name: fmt.Sprintf("Patient %d", i+1)}
	}

	out := a.FormatPatientsOptimized(patients)
	if !strings.HasPrefix(out, "Available Patient Records (8 total):") {
		t.Fatalf("missing header:\n%s", out)
	}
	if !strings.Contains(out, "5. Patient 5") {
		t.Fatalf("fifth patient should be listed:\n%s", out)
	}
	if strings.Contains(out, "6. Patient 6") {
		t.Fatalf("sixth patient must be cut in optimized mode:\n%s", out)
	}
	if !strings.Contains(out, "... and 3 more patients") {
		t.Fatalf("missing overflow tail:\n%s", out)
	}

	// Exactly at the cap there is no tail.
	out = a.FormatPatientsOptimized(patients[:5])
	if strings.Contains(out, "more patients") {
		t.Fatalf("no tail expected at exactly the cap:\n%s", out)
	}
}

func TestFullPathCapsAtTenEntries(t *testing.T) {
	a := testAssembler()

	patients := make([]models.Patient, 12)
	for i := range patients {
		patients[i] = models.Patient{Name: fmt.Sprintf("Patient %d", i+1)}
	}

	out := a.FormatPatientsFull(patients)
	if !strings.Contains(out, "10. Patient 10") {
		t.Fatalf("tenth patient should be listed:\n%s", out)
	}
	if strings.Contains(out, "11. Patient 11") {
		t.Fatalf("eleventh patient must be cut:\n%s", out)
	}
	if !strings.Contains(out, "... and 2 more patients") {
		t.Fatalf("missing overflow tail:\n%s", out)
	}
}

func TestMissingFieldsRenderPlaceholdersAndSkips(t *testing.T) {
	a := testAssembler()
	out := a.FormatPatientsFull([]models.Patient{{}})

	if !strings.Contains(out, "1. Unknown") {
		t.Fatalf("empty name should render Unknown:\n%s", out)
	}
	if !strings.Contains(out, "- DOB: Not specified") {
		t.Fatalf("empty DOB should render placeholder:\n%s", out)
	}
	if strings.Contains(out, "Diagnosis") || strings.Contains(out, "Prescription") {
		t.Fatalf("absent optional fields must be skipped entirely:\n%s", out)
	}
}

func TestFormatPatientRecordsNotesCap(t *testing.T) {
	a := testAssembler()

	raw := strings.Repeat("n", 600)
	out := a.FormatPatientRecords([]models.Patient{{ID: 7, Name: "Carol", RawText: raw, ConfidenceScore: 0.9}})

	if !strings.HasPrefix(out, "=== PATIENT DATABASE CONTEXT ===") {
		t.Fatalf("missing banner:\n%s", out)
	}
	if !strings.Contains(out, "- Additional Notes: "+strings.Repeat("n", 500)+"... [truncated]") {
		t.Fatalf("notes should be capped at 500 with marker:\n%s", out)
	}
	if !strings.Contains(out, "- Confidence Score: 0.9") {
		t.Fatalf("confidence score missing:\n%s", out)
	}
	if !strings.HasSuffix(out, "=== END PATIENT CONTEXT ===") {
		t.Fatalf("missing end banner:\n%s", out)
	}

	// Under the cap no marker appears.
	out = a.FormatPatientRecords([]models.Patient{{ID: 8, Name: "Dan", RawText: strings.Repeat("n", 500)}})
	if strings.Contains(out, "[truncated]") {
		t.Fatalf("marker must not appear at exactly the cap:\n%s", out)
	}
}

func TestSectionBudgetsApplyAfterFormatting(t *testing.T) {
	a := testAssembler()

	patientContext := strings.Repeat("p", 1800)
	filesContext := strings.Repeat("f", 2500)
	out := a.AssembleEnhanced(patientContext, filesContext)

	if strings.Count(out, "p") != 1500 {
		t.Fatalf("patient section should be exactly 1500 chars, got %d", strings.Count(out, "p"))
	}
	if strings.Count(out, "f") != 2000 {
		t.Fatalf("files section should be exactly 2000 chars, got %d", strings.Count(out, "f"))
	}
}

func TestAssembleSentinels(t *testing.T) {
	a := testAssembler()

	out := a.AssembleChat("", "", "")
	if !strings.Contains(out, NoPatientData) {
		t.Fatalf("empty patient context should yield sentinel:\n%s", out)
	}
	if !strings.Contains(out, NoFiles) {
		t.Fatalf("empty files context should yield sentinel:\n%s", out)
	}
	for _, header := range []string{"PATIENT DATABASE CONTEXT:", "ADDITIONAL CONTEXT:", "FILES CONTEXT:"} {
		if !strings.Contains(out, header) {
			t.Fatalf("missing section header %q:\n%s", header, out)
		}
	}

	out = a.AssembleEnhanced("", "")
	if !strings.Contains(out, NoPatientData) {
		t.Fatalf("enhanced path should carry the patient sentinel:\n%s", out)
	}
}

func TestMultibyteValuesNeverSplitMidRune(t *testing.T) {
	a := testAssembler()

	diagnosis := strings.Repeat("心", 60)
	out := a.FormatPatientsOptimized([]models.Patient{{Name: "診断", Diagnosis: diagnosis}})
	if !strings.Contains(out, "- Diagnosis: "+strings.Repeat("心", 50)+"...") {
		t.Fatalf("expected 50-rune clip of multibyte diagnosis:\n%s", out)
	}
}
