package upload

import (
	"errors"

	"github.com/fleetdocs/backend/internal/duplicate"
	"github.com/fleetdocs/backend/internal/extraction"
	"github.com/fleetdocs/backend/internal/identity"
	"github.com/fleetdocs/backend/internal/storage/models"
	"github.com/fleetdocs/backend/internal/survey"
)

var (
	ErrValidation   = errors.New("invalid file")
	ErrExtraction   = errors.New("extraction failed")
	ErrShipNotFound = errors.New("ship not found")
	ErrResolution   = errors.New("invalid duplicate resolution")
)

// Stage is where a file's pipeline run stopped. Rejections keep the stage
// that rejected them.
type Stage string

const (
	StageReceived           Stage = "received"
	StageSplitting          Stage = "splitting"
	StageOCR                Stage = "ocr"
	StageMerging            Stage = "merging"
	StageExtracting         Stage = "extracting"
	StageClassifying        Stage = "classifying"
	StageValidatingIdentity Stage = "validating_identity"
	StageDetectingDuplicate Stage = "detecting_duplicate"
	StageAccepted           Stage = "accepted"
	StagePendingDuplicate   Stage = "pending_duplicate_resolution"
)

type FailureKind string

const (
	FailureValidation  FailureKind = "validation"
	FailureExtraction  FailureKind = "extraction"
	FailureIdentity    FailureKind = "identity"
	FailureCategory    FailureKind = "category"
	FailureStorage     FailureKind = "storage"
	FailurePersistence FailureKind = "persistence"
)

type Status string

const (
	StatusSuccess          Status = "success"
	StatusError            Status = "error"
	StatusPendingDuplicate Status = "pending_duplicate_resolution"
	StatusCancelled        Status = "cancelled"
)

type Resolution string

const (
	ResolutionOverwrite Resolution = "overwrite"
	ResolutionKeepBoth  Resolution = "keep_both"
	ResolutionCancel    Resolution = "cancel"
)

func (r Resolution) Valid() bool {
	switch r {
	case ResolutionOverwrite, ResolutionKeepBoth, ResolutionCancel:
		return true
	}
	return false
}

// DuplicateMatch is a duplicate candidate with enough of the existing record
// for the user to choose a resolution.
type DuplicateMatch struct {
	duplicate.Candidate
	CertName string `json:"cert_name,omitempty"`
	CertNo   string `json:"cert_no,omitempty"`
	FileName string `json:"file_name,omitempty"`
}

// FileResult is the terminal state of one file.
type FileResult struct {
	Filename    string      `json:"filename"`
	Status      Status      `json:"status"`
	Stage       Stage       `json:"stage"`
	Message     string      `json:"message,omitempty"`
	FailureKind FailureKind `json:"failure_kind,omitempty"`
	IsBlocking  bool        `json:"is_blocking"`

	Certificate *models.Certificate `json:"certificate,omitempty"`
	Extracted   *extraction.Result  `json:"extracted_info,omitempty"`
	Identity    *identity.Result    `json:"identity,omitempty"`
	Duplicates  []DuplicateMatch    `json:"duplicates,omitempty"`
}

func (r *FileResult) reject(stage Stage, kind FailureKind, blocking bool, msg string) *FileResult {
	r.Status = StatusError
	r.Stage = stage
	r.FailureKind = kind
	r.IsBlocking = blocking
	r.Message = msg
	return r
}

type CreatedRef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Filename string `json:"filename"`
}

type ErrorRef struct {
	Filename string      `json:"filename"`
	Kind     FailureKind `json:"failure_kind"`
	Message  string      `json:"message"`
}

type BatchSummary struct {
	TotalFiles          int          `json:"total_files"`
	SuccessfullyCreated int          `json:"successfully_created"`
	Errors              int          `json:"errors"`
	CertificatesCreated []CreatedRef `json:"certificates_created"`
	ErrorFiles          []ErrorRef   `json:"error_files"`
	PendingDuplicates   int          `json:"pending_duplicates"`
}

type BatchResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Results []*FileResult `json:"results"`
	Summary BatchSummary  `json:"summary"`
}

// Analysis is the no-write view of a single document.
type Analysis struct {
	Extracted  *extraction.Result `json:"extracted_info"`
	Category   string             `json:"category,omitempty"`
	Identity   *identity.Result   `json:"identity,omitempty"`
	Duplicates []DuplicateMatch   `json:"duplicates,omitempty"`
	Schedule   *survey.Schedule   `json:"survey,omitempty"`
	Display    string             `json:"next_survey_display,omitempty"`
	Warnings   []string           `json:"warnings,omitempty"`
}
