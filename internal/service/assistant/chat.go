package assistant

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"medichat/internal/models"
)

// ChatResult is the payload returned to the HTTP layer after a chat turn.
type ChatResult struct {
	Response          string             `json:"response"`
	PatientsAvailable int                `json:"patients_available"`
	HasContext        bool               `json:"has_context"`
	FilesProcessed    int                `json:"files_processed,omitempty"`
	CacheStats        *models.CacheStats `json:"cache_stats,omitempty"`
}

// Chat answers a query with the full-width patient context. The session must
// already exist; attached files are not processed on this path.
func (s *Service) Chat(ctx context.Context, sessionID, query, additionalContext string) (*ChatResult, error) {
	if _, err := s.sessions.Get(ctx, sessionID); err != nil {
		return nil, err
	}

	patients, err := s.ListPatients(ctx, s.ctxCfg.MaxPatientsFull)
	if err != nil {
		return nil, err
	}

	var patientContext string
	if len(patients) > 0 {
		patientContext = s.assembler.FormatPatientsFull(patients)
	}
	fullContext := s.assembler.AssembleChat(patientContext, additionalContext, "")

	response, err := s.ai.GenerateResponse(ctx, query, fullContext)
	if err != nil {
		return nil, fmt.Errorf("chat: %w", err)
	}
	if err := s.sessions.AppendMessage(ctx, sessionID, query, response); err != nil {
		return nil, err
	}

	return &ChatResult{
		Response:          response,
		PatientsAvailable: len(patients),
		HasContext:        len(patients) > 0,
	}, nil
}

// ChatEnhanced answers a query with the tighter patient context plus
// summaries of the session's attached files, served from the analysis cache
// where possible. Expired cache entries are swept before processing.
func (s *Service) ChatEnhanced(ctx context.Context, sessionID, query string) (*ChatResult, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if removed := s.cache.SweepExpired(); removed > 0 {
		log.Printf("cache sweep before chat removed %d entries", removed)
	}

	patients, err := s.ListPatients(ctx, s.ctxCfg.MaxPatientsOptimized)
	if err != nil {
		return nil, err
	}

	var patientContext string
	if len(patients) > 0 {
		patientContext = s.assembler.FormatPatientsOptimized(patients)
	}
	filesContext, err := s.processAttachedFiles(ctx, sess.Files)
	if err != nil {
		return nil, err
	}
	fullContext := s.assembler.AssembleEnhanced(patientContext, filesContext)

	response, err := s.ai.GenerateResponse(ctx, query, fullContext)
	if err != nil {
		return nil, fmt.Errorf("enhanced chat: %w", err)
	}
	if err := s.sessions.AppendMessage(ctx, sessionID, query, response); err != nil {
		return nil, err
	}

	stats := s.cache.Stats()
	return &ChatResult{
		Response:          response,
		PatientsAvailable: len(patients),
		HasContext:        len(patients) > 0,
		FilesProcessed:    len(sess.Files),
		CacheStats:        &stats,
	}, nil
}

// processAttachedFiles turns each attached file into a short context
// fragment. Summary hits are served inline; misses fan out through the
// worker pool. Fragments keep upload order regardless of completion order.
// Any file whose analysis fails aborts the whole turn; the context never
// carries placeholder text for a file the model could not read.
func (s *Service) processAttachedFiles(ctx context.Context, files []models.AttachedFile) (string, error) {
	if len(files) == 0 {
		return "", nil
	}
	log.Printf("processing %d attached files", len(files))

	fragments := make([]string, len(files))
	errs := make([]error, len(files))
	var wg sync.WaitGroup
	for i, file := range files {
		if summary, ok := s.cache.GetSummary(file.Content, file.Name); ok {
			fragments[i] = fileFragment(file.Name, summary)
			continue
		}
		wg.Add(1)
		i, file := i, file
		s.pool.Submit(func() {
			defer wg.Done()
			fragments[i], errs[i] = s.analyzeAndSummarize(ctx, file)
		})
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return "", err
		}
	}

	parts := make([]string, 0, len(fragments))
	for _, frag := range fragments {
		if frag != "" {
			parts = append(parts, frag)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

// analyzeAndSummarize fills both cache tables for one file.
func (s *Service) analyzeAndSummarize(ctx context.Context, file models.AttachedFile) (string, error) {
	analysis, ok := s.cache.GetAnalysis(file.Content, file.Name)
	if !ok {
		fresh, err := s.ai.AnalyzeFile(ctx, file.Content, file.Name, file.MediaType)
		if err != nil {
			log.Printf("analyze file %s: %v", file.Name, err)
			return "", fmt.Errorf("analyze file %s: %w", file.Name, err)
		}
		analysis = *fresh
		s.cache.PutAnalysis(file.Content, file.Name, analysis)
	}

	summary, err := s.ai.SummarizeFile(ctx, &analysis, file.Name)
	if err != nil {
		log.Printf("summarize file %s: %v", file.Name, err)
		return "", fmt.Errorf("summarize file %s: %w", file.Name, err)
	}
	s.cache.PutSummary(file.Content, file.Name, summary)
	return fileFragment(file.Name, summary), nil
}

func fileFragment(name, summary string) string {
	return fmt.Sprintf("File %s:\n%s", name, summary)
}
