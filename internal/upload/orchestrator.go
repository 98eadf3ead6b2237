package upload

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fleetdocs/backend/internal/cache"
	"github.com/fleetdocs/backend/internal/classify"
	"github.com/fleetdocs/backend/internal/deletion"
	"github.com/fleetdocs/backend/internal/duplicate"
	"github.com/fleetdocs/backend/internal/extraction"
	"github.com/fleetdocs/backend/internal/filestore"
	"github.com/fleetdocs/backend/internal/identity"
	"github.com/fleetdocs/backend/internal/metrics"
	"github.com/fleetdocs/backend/internal/ocr"
	"github.com/fleetdocs/backend/internal/pdf"
	"github.com/fleetdocs/backend/internal/storage"
	"github.com/fleetdocs/backend/internal/storage/models"
	"github.com/fleetdocs/backend/internal/survey"
	"github.com/fleetdocs/backend/pkg/logger"
	"github.com/fleetdocs/backend/pkg/utils"
)

// Additional stages of the accept path.
const (
	StageUploading  Stage = "uploading"
	StagePersisting Stage = "persisting"
)

type DeletionQueue interface {
	Enqueue(ctx context.Context, job deletion.Job) error
}

type SummaryCache interface {
	GetSummary(ctx context.Context, fileHash string) (string, bool, error)
	SetSummary(ctx context.Context, fileHash, summary string) error
}

type Deps struct {
	Splitter     *pdf.Splitter
	OCR          *ocr.Gateway
	Completer    extraction.Completer
	Cache        cache.Cache
	Detector     *duplicate.Detector
	Certificates *storage.Certificates
	Ships        *storage.Ships
	Files        filestore.FileStorage
	Deletions    DeletionQueue
}

type Config struct {
	MaxFileSize int64
	AI          extraction.AIConfig
}

// Orchestrator runs uploaded files through OCR, extraction and the
// reconciliation checks, and persists the ones that pass.
type Orchestrator struct {
	splitter   *pdf.Splitter
	ocr        *ocr.Gateway
	extractors map[extraction.Family]*extraction.Extractor
	detector   *duplicate.Detector
	certs      *storage.Certificates
	ships      *storage.Ships
	files      filestore.FileStorage
	deletions  DeletionQueue
	summaries  SummaryCache
	cfg        Config
	shipLocks  *keyedMutex
}

func New(deps Deps, cfg Config) *Orchestrator {
	c := deps.Cache
	if c == nil {
		c = cache.Noop{}
	}
	detector := deps.Detector
	if detector == nil {
		detector = duplicate.NewDetector()
	}
	splitter := deps.Splitter
	if splitter == nil {
		splitter = pdf.NewSplitter()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}

	extractors := make(map[extraction.Family]*extraction.Extractor)
	for _, fam := range []extraction.Family{
		extraction.ShipCertificate,
		extraction.AuditCertificate,
		extraction.AuditReport,
		extraction.Passport,
	} {
		extractors[fam] = extraction.NewExtractor(fam, deps.Completer, extraction.WithCache(c))
	}

	return &Orchestrator{
		splitter:   splitter,
		ocr:        deps.OCR,
		extractors: extractors,
		detector:   detector,
		certs:      deps.Certificates,
		ships:      deps.Ships,
		files:      deps.Files,
		deletions:  deps.Deletions,
		summaries:  c,
		cfg:        cfg,
		shipLocks:  newKeyedMutex(),
	}
}

type File struct {
	Filename string
	Data     []byte
}

type BatchRequest struct {
	Family    extraction.Family
	ShipID    string
	CompanyID string
	Files     []File
}

// ProcessBatch handles files one at a time. A file's failure is recorded in
// its result and never stops the batch; only an unknown ship fails the call.
func (o *Orchestrator) ProcessBatch(ctx context.Context, req BatchRequest) (*BatchResponse, error) {
	kind, err := KindFor(req.Family)
	if err != nil {
		return nil, err
	}
	ship, err := o.ship(ctx, req.ShipID, req.CompanyID)
	if err != nil {
		return nil, err
	}

	logger.Info("Processing upload batch",
		zap.String("family", string(req.Family)),
		zap.String("ship_id", ship.ID),
		zap.Int("files", len(req.Files)),
	)

	resp := &BatchResponse{
		Results: make([]*FileResult, 0, len(req.Files)),
		Summary: BatchSummary{
			TotalFiles:          len(req.Files),
			CertificatesCreated: []CreatedRef{},
			ErrorFiles:          []ErrorRef{},
		},
	}

	for _, f := range req.Files {
		r := o.processOne(ctx, req.Family, kind, ship, f)
		resp.Results = append(resp.Results, r)

		switch r.Status {
		case StatusSuccess:
			resp.Summary.SuccessfullyCreated++
			resp.Summary.CertificatesCreated = append(resp.Summary.CertificatesCreated, CreatedRef{
				ID:       r.Certificate.ID,
				Name:     recordName(r.Certificate),
				Filename: r.Filename,
			})
		case StatusPendingDuplicate:
			resp.Summary.PendingDuplicates++
		default:
			resp.Summary.Errors++
			resp.Summary.ErrorFiles = append(resp.Summary.ErrorFiles, ErrorRef{
				Filename: r.Filename,
				Kind:     r.FailureKind,
				Message:  r.Message,
			})
		}
	}

	s := resp.Summary
	resp.Success = s.Errors == 0
	resp.Message = fmt.Sprintf("Processed %d file(s): %d created, %d pending duplicate resolution, %d failed",
		s.TotalFiles, s.SuccessfullyCreated, s.PendingDuplicates, s.Errors)
	return resp, nil
}

func recordName(c *models.Certificate) string {
	if c.Kind == models.KindAuditReport {
		return c.AuditReportName
	}
	return c.CertName
}

func (o *Orchestrator) processOne(ctx context.Context, fam extraction.Family, kind models.Kind, ship *models.Ship, f File) (r *FileResult) {
	start := time.Now()
	r = &FileResult{Filename: f.Filename, Stage: StageReceived}

	defer func() {
		if p := recover(); p != nil {
			logger.Error("Upload pipeline panicked",
				zap.String("filename", f.Filename),
				zap.Any("panic", p),
			)
			r.reject(r.Stage, FailureExtraction, false, "Unexpected error while processing the file, please enter the details manually")
		}
		o.observe(fam, r, start)
	}()

	a := o.run(ctx, fam, ship, f, r, false)
	if a == nil {
		return r
	}

	unlock := o.shipLocks.Lock(ship.ID)
	defer unlock()

	r.Stage = StageDetectingDuplicate
	existing, err := o.certs.ListByShip(ctx, kind, ship.ID)
	if err != nil {
		logger.Error("Failed to load existing records for duplicate check",
			zap.String("ship_id", ship.ID),
			zap.Error(err),
		)
		return r.reject(StageDetectingDuplicate, FailurePersistence, false, "Could not check for duplicates, please try again")
	}

	if dups := o.findDuplicates(fam, a.res, existing); len(dups) > 0 {
		r.Status = StatusPendingDuplicate
		r.Stage = StagePendingDuplicate
		r.Duplicates = dups
		r.Message = fmt.Sprintf("%q looks like an existing record. Choose overwrite, keep both or cancel.", documentName(a.res))
		return r
	}

	cert := newCertificate(kind, ship, a.res, a.sched, a.notes)
	return o.accept(ctx, r, ship, f, a.contentType, cert)
}

func (o *Orchestrator) observe(fam extraction.Family, r *FileResult, start time.Time) {
	metrics.PipelineDuration.WithLabelValues(string(fam)).Observe(time.Since(start).Seconds())
	metrics.FilesProcessed.WithLabelValues(string(fam), string(r.Status)).Inc()
	if r.FailureKind != "" {
		metrics.StageFailures.WithLabelValues(string(fam), string(r.FailureKind)).Inc()
	}
	logger.Info("File processed",
		zap.String("family", string(fam)),
		zap.String("filename", r.Filename),
		zap.String("status", string(r.Status)),
		zap.String("stage", string(r.Stage)),
		zap.String("failure_kind", string(r.FailureKind)),
		zap.Duration("elapsed", time.Since(start)),
	)
}

type analyzed struct {
	res         *extraction.Result
	contentType string
	sched       *survey.Schedule
	notes       []string
}

// run takes one file from validation through identity checks. It returns nil
// when r has been rejected.
func (o *Orchestrator) run(ctx context.Context, fam extraction.Family, ship *models.Ship, f File, r *FileResult, overrideIdentity bool) *analyzed {
	contentType, err := ValidateFile(f.Filename, f.Data, o.cfg.MaxFileSize)
	if err != nil {
		r.reject(StageReceived, FailureValidation, false, err.Error())
		return nil
	}

	summary := o.summarize(ctx, fam, f, contentType, r)

	r.Stage = StageExtracting
	out := o.extractors[fam].Extract(ctx, extraction.Input{
		Summary:  summary,
		Filename: f.Filename,
		AI:       o.cfg.AI,
	})
	if out.Failed() {
		r.reject(StageExtracting, FailureExtraction, false, out.Reason)
		return nil
	}
	res := out.Result
	r.Extracted = res

	if missing := res.Missing(); len(missing) > 0 {
		r.reject(StageExtracting, FailureExtraction, false,
			fmt.Sprintf("Could not read %s from the document, please enter the details manually", strings.Join(missing, ", ")))
		return nil
	}

	r.Stage = StageClassifying
	if msg, ok := categoryCheck(fam, res); !ok {
		r.reject(StageClassifying, FailureCategory, true, msg)
		return nil
	}

	a := &analyzed{res: res, contentType: contentType}

	r.Stage = StageValidatingIdentity
	idn := identity.Validate(res.IMONumber, res.ShipName, identity.Ship{Name: ship.Name, IMO: ship.IMO})
	if idn.HasConflict() {
		metrics.IdentityConflicts.WithLabelValues(string(idn.Type)).Inc()
		r.Identity = &idn
	}
	switch {
	case idn.IsBlocking && !overrideIdentity:
		r.reject(StageValidatingIdentity, FailureIdentity, true, idn.Message)
		return nil
	case idn.IsBlocking:
		a.notes = append(a.notes, identity.IMOOverrideNote(res.IMONumber, ship.IMO))
	case idn.Type == identity.NameMismatch:
		a.notes = append(a.notes, idn.OverrideNote)
	}

	a.sched = schedule(res)
	return a
}

func categoryCheck(fam extraction.Family, res *extraction.Result) (string, bool) {
	if fam != extraction.AuditCertificate {
		return "", true
	}
	if classify.IsAuditCategory(classify.Category(res.Category)) {
		return "", true
	}
	return fmt.Sprintf("%q is not an ISM, ISPS, MLC or CICA certificate and cannot be filed as an audit certificate", res.CertName), false
}

func (o *Orchestrator) summarize(ctx context.Context, fam extraction.Family, f File, contentType string, r *FileResult) string {
	// The merged summary names the source file, so the name is part of the key.
	key := utils.HashString(string(fam) + "\x00" + f.Filename + "\x00" + utils.HashBytes(f.Data))
	if s, ok, err := o.summaries.GetSummary(ctx, key); err != nil {
		logger.Warn("Summary cache read failed", zap.Error(err))
	} else if ok {
		return s
	}

	hint := string(fam)
	var parts []ocr.Part

	if contentType == "application/pdf" && o.splitter.NeedsSplit(f.Data) {
		r.Stage = StageSplitting
		chunks, err := o.splitter.Split(f.Data)
		if err != nil {
			logger.Warn("PDF split failed, processing as one document",
				zap.String("filename", f.Filename),
				zap.Error(err),
			)
		} else {
			r.Stage = StageOCR
			parts = o.ocr.ExtractChunks(ctx, chunks, f.Filename, hint)
		}
	}

	if parts == nil {
		r.Stage = StageOCR
		text := o.ocr.ExtractText(ctx, ocr.Document{
			Data:        f.Data,
			Filename:    f.Filename,
			ContentType: contentType,
			Hint:        hint,
		})
		parts = []ocr.Part{{Pages: pdf.PageRange{Start: 1, End: 1}, Text: text}}
	}

	r.Stage = StageMerging
	summary := ocr.Merge(parts, f.Filename)
	if summary != "" {
		if err := o.summaries.SetSummary(ctx, key, summary); err != nil {
			logger.Warn("Summary cache write failed", zap.Error(err))
		}
	}
	return summary
}

func (o *Orchestrator) findDuplicates(fam extraction.Family, res *extraction.Result, existing []models.Certificate) []DuplicateMatch {
	if len(existing) == 0 {
		return nil
	}
	records := duplicateRecords(existing)

	switch fam {
	case extraction.AuditCertificate:
		c := o.detector.FindExact(duplicateFields(res), records)
		if c == nil {
			return nil
		}
		metrics.DuplicatesFlagged.WithLabelValues(string(fam), string(duplicate.StrategyExact)).Inc()
		return matches([]duplicate.Candidate{*c}, existing)
	case extraction.ShipCertificate:
		cands := o.detector.FindSimilar(duplicateFields(res), records)
		if len(cands) == 0 {
			return nil
		}
		metrics.DuplicatesFlagged.WithLabelValues(string(fam), string(duplicate.StrategyWeighted)).Inc()
		return matches(cands, existing)
	}
	return nil
}

// accept uploads the file and then creates the record. No record is written
// unless the upload succeeded.
func (o *Orchestrator) accept(ctx context.Context, r *FileResult, ship *models.Ship, f File, contentType string, cert *models.Certificate) *FileResult {
	up, err := o.upload(ctx, r, ship, f, contentType, cert.Kind)
	if err != nil {
		return r
	}
	cert.StorageFileID = up.FileID
	cert.FileName = up.FileName
	cert.FolderPath = up.folder

	r.Stage = StagePersisting
	if err := o.certs.Create(ctx, cert); err != nil {
		logger.Error("Record creation failed after upload, stored file is orphaned",
			zap.String("ship_id", ship.ID),
			zap.String("orphan_file_id", up.FileID),
			zap.String("folder_path", up.folder),
			zap.Error(err),
		)
		return r.reject(StagePersisting, FailurePersistence, false, "The file was stored but the record could not be saved, please try again")
	}

	r.Status = StatusSuccess
	r.Stage = StageAccepted
	r.Certificate = cert
	r.Message = fmt.Sprintf("%q saved", recordName(cert))
	return r
}

type uploaded struct {
	*filestore.UploadResult
	folder string
}

func (o *Orchestrator) upload(ctx context.Context, r *FileResult, ship *models.Ship, f File, contentType string, kind models.Kind) (*uploaded, error) {
	r.Stage = StageUploading
	folder, err := filestore.FolderPath(ship.Name, kind)
	if err != nil {
		r.reject(StageUploading, FailureStorage, false, err.Error())
		return nil, err
	}

	up, err := o.files.Upload(ctx, filestore.UploadRequest{
		Data:        f.Data,
		Filename:    f.Filename,
		ContentType: contentType,
		FolderPath:  folder,
		OwnerID:     ship.CompanyID,
	})
	if err != nil {
		logger.Error("File upload failed",
			zap.String("filename", f.Filename),
			zap.String("folder_path", folder),
			zap.Error(err),
		)
		r.reject(StageUploading, FailureStorage, false, "The file could not be stored, nothing was saved")
		return nil, err
	}
	return &uploaded{UploadResult: up, folder: folder}, nil
}

type ResolutionRequest struct {
	Family     extraction.Family
	ShipID     string
	CompanyID  string
	File       File
	Resolution Resolution
	ExistingID string
	// AcceptIdentityOverride persists despite an IMO mismatch and records it in notes.
	AcceptIdentityOverride bool
}

// ProcessWithResolution re-runs a file held for duplicate resolution and
// applies the user's choice. The duplicate check is not repeated.
func (o *Orchestrator) ProcessWithResolution(ctx context.Context, req ResolutionRequest) (r *FileResult, err error) {
	if !req.Resolution.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrResolution, req.Resolution)
	}
	kind, err := KindFor(req.Family)
	if err != nil {
		return nil, err
	}

	if req.Resolution == ResolutionCancel {
		logger.Info("Duplicate resolution cancelled", zap.String("filename", req.File.Filename))
		return &FileResult{
			Filename: req.File.Filename,
			Status:   StatusCancelled,
			Stage:    StageDetectingDuplicate,
			Message:  "Upload cancelled, nothing was saved",
		}, nil
	}

	ship, err := o.ship(ctx, req.ShipID, req.CompanyID)
	if err != nil {
		return nil, err
	}

	var existing *models.Certificate
	if req.Resolution == ResolutionOverwrite {
		if req.ExistingID == "" {
			return nil, fmt.Errorf("%w: existing_id is required to overwrite", ErrResolution)
		}
		existing, err = o.certs.Get(ctx, kind, req.ExistingID)
		if err != nil {
			return nil, err
		}
		if existing.ShipID != ship.ID {
			return nil, fmt.Errorf("%w: record %s belongs to another ship", ErrResolution, existing.ID)
		}
	}

	start := time.Now()
	r = &FileResult{Filename: req.File.Filename, Stage: StageReceived}
	defer o.observe(req.Family, r, start)

	a := o.run(ctx, req.Family, ship, req.File, r, req.AcceptIdentityOverride)
	if a == nil {
		return r, nil
	}

	unlock := o.shipLocks.Lock(ship.ID)
	defer unlock()

	cert := newCertificate(kind, ship, a.res, a.sched, a.notes)
	if existing == nil {
		return o.accept(ctx, r, ship, req.File, a.contentType, cert), nil
	}
	return o.overwrite(ctx, r, ship, req.File, a.contentType, existing, cert), nil
}

func (o *Orchestrator) overwrite(ctx context.Context, r *FileResult, ship *models.Ship, f File, contentType string, existing, cert *models.Certificate) *FileResult {
	up, err := o.upload(ctx, r, ship, f, contentType, existing.Kind)
	if err != nil {
		return r
	}
	cert.StorageFileID = up.FileID
	cert.FileName = up.FileName
	cert.FolderPath = up.folder

	r.Stage = StagePersisting
	if err := o.certs.Replace(ctx, existing, cert); err != nil {
		logger.Error("Record overwrite failed after upload, stored file is orphaned",
			zap.String("certificate_id", existing.ID),
			zap.String("orphan_file_id", up.FileID),
			zap.Error(err),
		)
		return r.reject(StagePersisting, FailurePersistence, false, "The file was stored but the record could not be updated, please try again")
	}

	if existing.StorageFileID != "" && existing.StorageFileID != up.FileID {
		o.enqueueDeletion(ctx, existing.StorageFileID, ship.CompanyID, "overwritten")
	}

	r.Status = StatusSuccess
	r.Stage = StageAccepted
	r.Certificate = cert
	r.Message = fmt.Sprintf("%q replaced", recordName(cert))
	return r
}

type AnalyzeRequest struct {
	Family    extraction.Family
	ShipID    string
	CompanyID string
	File      File
}

// Analyze extracts one file without writing anything. Validation and
// extraction failures come back as errors wrapping ErrValidation and
// ErrExtraction; identity, category and duplicate findings are reported.
func (o *Orchestrator) Analyze(ctx context.Context, req AnalyzeRequest) (*Analysis, error) {
	ext, ok := o.extractors[req.Family]
	if !ok {
		return nil, fmt.Errorf("unknown family %q", req.Family)
	}
	contentType, err := ValidateFile(req.File.Filename, req.File.Data, o.cfg.MaxFileSize)
	if err != nil {
		return nil, err
	}

	var ship *models.Ship
	if req.ShipID != "" {
		if ship, err = o.ship(ctx, req.ShipID, req.CompanyID); err != nil {
			return nil, err
		}
	}

	scratch := &FileResult{Filename: req.File.Filename}
	summary := o.summarize(ctx, req.Family, req.File, contentType, scratch)
	out := ext.Extract(ctx, extraction.Input{Summary: summary, Filename: req.File.Filename, AI: o.cfg.AI})
	if out.Failed() {
		return nil, fmt.Errorf("%w: %s", ErrExtraction, out.Reason)
	}
	res := out.Result

	a := &Analysis{Extracted: res, Category: res.Category}
	if missing := res.Missing(); len(missing) > 0 {
		a.Warnings = append(a.Warnings, "Missing required fields: "+strings.Join(missing, ", "))
	}
	if msg, ok := categoryCheck(req.Family, res); !ok {
		a.Warnings = append(a.Warnings, msg)
	}

	if ship != nil && req.Family != extraction.Passport {
		idn := identity.Validate(res.IMONumber, res.ShipName, identity.Ship{Name: ship.Name, IMO: ship.IMO})
		a.Identity = &idn

		if kind, err := KindFor(req.Family); err == nil {
			existing, err := o.certs.ListByShip(ctx, kind, ship.ID)
			if err != nil {
				logger.Warn("Duplicate lookup failed during analysis", zap.Error(err))
			} else {
				a.Duplicates = o.findDuplicates(req.Family, res, existing)
			}
		}
	}

	if s := schedule(res); s != nil {
		a.Schedule = s
		a.Display = s.Display()
	}
	return a, nil
}

// Delete removes the record first and then queues removal of its file. The
// file deletion never affects the result.
func (o *Orchestrator) Delete(ctx context.Context, kind models.Kind, id, companyID string) error {
	c, err := o.Certificate(ctx, kind, id, companyID)
	if err != nil {
		return err
	}
	if err := o.certs.Delete(ctx, kind, id); err != nil {
		return err
	}

	logger.Info("Record deleted",
		zap.String("kind", string(kind)),
		zap.String("certificate_id", id),
		zap.String("storage_file_id", c.StorageFileID),
	)
	o.enqueueDeletion(ctx, c.StorageFileID, c.CompanyID, "record_deleted")
	return nil
}

func (o *Orchestrator) enqueueDeletion(ctx context.Context, fileID, ownerID, reason string) {
	if fileID == "" || o.deletions == nil {
		return
	}
	err := o.deletions.Enqueue(ctx, deletion.Job{FileID: fileID, OwnerID: ownerID, Reason: reason})
	if err != nil {
		logger.Error("Failed to queue storage deletion",
			zap.String("file_id", fileID),
			zap.String("reason", reason),
			zap.Error(err),
		)
	}
}

// FieldFileName renames the stored file; every other key goes through
// storage.NormalizePatch.
const FieldFileName = "file_name"

// Update applies a partial update. A file_name change renames the stored file
// before the record is touched.
func (o *Orchestrator) Update(ctx context.Context, kind models.Kind, id, companyID string, patch map[string]any) (*models.Certificate, error) {
	c, err := o.Certificate(ctx, kind, id, companyID)
	if err != nil {
		return nil, err
	}

	rest := make(map[string]any, len(patch))
	var newName string
	for k, v := range patch {
		if k != FieldFileName {
			rest[k] = v
			continue
		}
		s, ok := v.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return nil, fmt.Errorf("%w: file_name must be a non-empty string", storage.ErrInvalidPatch)
		}
		newName = strings.TrimSpace(s)
	}

	fields, err := storage.NormalizePatch(rest)
	if err != nil {
		return nil, err
	}

	if newName != "" && newName != c.FileName && c.StorageFileID != "" {
		fileID, err := o.files.Rename(ctx, c.StorageFileID, newName)
		if err != nil {
			return nil, fmt.Errorf("failed to rename stored file: %w", err)
		}
		fields["file_name"] = newName
		fields["storage_file_id"] = fileID
	}

	if len(fields) == 0 {
		return c, nil
	}
	return o.certs.Update(ctx, kind, id, fields)
}

// Certificate loads a record the company may see. Records of other companies
// look missing.
func (o *Orchestrator) Certificate(ctx context.Context, kind models.Kind, id, companyID string) (*models.Certificate, error) {
	c, err := o.certs.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if companyID != "" && c.CompanyID != companyID {
		return nil, storage.ErrNotFound
	}
	return c, nil
}

func (o *Orchestrator) ship(ctx context.Context, shipID, companyID string) (*models.Ship, error) {
	if shipID == "" {
		return nil, fmt.Errorf("%w: ship_id is required", ErrShipNotFound)
	}
	s, err := o.ships.Get(ctx, shipID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrShipNotFound, shipID)
	}
	if err != nil {
		return nil, err
	}
	if companyID != "" && s.CompanyID != companyID {
		return nil, fmt.Errorf("%w: %s", ErrShipNotFound, shipID)
	}
	return s, nil
}

// List returns the records of one kind for a ship the company owns.
func (o *Orchestrator) List(ctx context.Context, kind models.Kind, shipID, companyID string) ([]models.Certificate, error) {
	if _, err := o.ship(ctx, shipID, companyID); err != nil {
		return nil, err
	}
	return o.certs.ListByShip(ctx, kind, shipID)
}

type FileLink struct {
	FileID      string `json:"file_id"`
	FileName    string `json:"file_name"`
	ViewURL     string `json:"view_url"`
	DownloadURL string `json:"download_url"`
}

func (o *Orchestrator) FileLink(ctx context.Context, kind models.Kind, id, companyID string) (*FileLink, error) {
	c, err := o.Certificate(ctx, kind, id, companyID)
	if err != nil {
		return nil, err
	}
	if c.StorageFileID == "" {
		return nil, fmt.Errorf("%w: record has no stored file", storage.ErrNotFound)
	}
	view, err := o.files.ViewURL(ctx, c.StorageFileID)
	if err != nil {
		return nil, fmt.Errorf("failed to build view url: %w", err)
	}
	download, err := o.files.DownloadURL(ctx, c.StorageFileID)
	if err != nil {
		return nil, fmt.Errorf("failed to build download url: %w", err)
	}
	return &FileLink{FileID: c.StorageFileID, FileName: c.FileName, ViewURL: view, DownloadURL: download}, nil
}
