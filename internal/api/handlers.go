package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/khanglvm/recordbook/internal/generate"
	"github.com/khanglvm/recordbook/internal/logger"
	"github.com/khanglvm/recordbook/internal/search"
	"github.com/khanglvm/recordbook/internal/store"
	"github.com/khanglvm/recordbook/internal/taxonomy"
)

// Handler serves the record operations over HTTP.
type Handler struct {
	store *store.Store
	gen   *generate.Generator
	tax   *taxonomy.Taxonomy
	log   *logger.Logger

	// index is built from the store on first search and then kept current
	// by the write handlers. stale forces a rebuild on the next search.
	indexMu sync.Mutex
	index   *search.Indexer
	stale   bool
}

func NewHandler(st *store.Store, gen *generate.Generator, tax *taxonomy.Taxonomy, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{store: st, gen: gen, tax: tax, log: log.With("component", "api")}
}

// Close releases the search index.
func (h *Handler) Close() error {
	h.indexMu.Lock()
	defer h.indexMu.Unlock()
	if h.index == nil {
		return nil
	}
	err := h.index.Close()
	h.index = nil
	return err
}

// searchIndex returns the index, building it from the store when missing or stale.
func (h *Handler) searchIndex(ctx context.Context) (*search.Indexer, error) {
	h.indexMu.Lock()
	defer h.indexMu.Unlock()

	if h.index == nil {
		index, err := search.NewIndexer()
		if err != nil {
			return nil, err
		}
		h.index = index
		h.stale = true
	}
	if h.stale {
		if err := h.index.Build(ctx, h.store); err != nil {
			return nil, err
		}
		h.stale = false
		count, _ := h.index.Count()
		h.log.Debug("built search index", "documents", count)
	}
	return h.index, nil
}

// indexRecord updates a built index with a saved record.
func (h *Handler) indexRecord(r store.ObservationRecord) {
	h.indexMu.Lock()
	defer h.indexMu.Unlock()
	if h.index == nil || h.stale {
		return
	}
	if err := h.index.IndexRecord(r); err != nil {
		h.log.Warn("failed to index record", "id", r.ID, "error", err)
		h.stale = true
	}
}

// indexGenerated updates a built index with new generated entries.
func (h *Handler) indexGenerated(items []store.GeneratedContent) {
	h.indexMu.Lock()
	defer h.indexMu.Unlock()
	if h.index == nil || h.stale || len(items) == 0 {
		return
	}
	if err := h.index.IndexGenerated(items...); err != nil {
		h.log.Warn("failed to index generated content", "count", len(items), "error", err)
		h.stale = true
	}
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (h *Handler) ListStudents(c *gin.Context) {
	students, err := h.store.ListStudents(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	if q := c.Query("q"); q != "" {
		students = store.MatchStudents(students, q)
	}
	RespondOK(c, gin.H{"students": students})
}

type studentRequest struct {
	ClassID string `json:"classId"`
	Number  int    `json:"number" binding:"min=0"`
	Name    string `json:"name" binding:"required"`
}

func (r studentRequest) input() store.StudentInput {
	return store.StudentInput{ClassID: r.ClassID, Number: r.Number, Name: strings.TrimSpace(r.Name)}
}

func (h *Handler) AddStudent(c *gin.Context) {
	var req studentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, CodeInvalidRequest, err)
		return
	}
	st, err := h.store.AddStudent(c.Request.Context(), req.input())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"student": st})
}

type bulkRequest struct {
	Students []studentRequest `json:"students" binding:"dive"`
}

func (h *Handler) AddStudentsBulk(c *gin.Context) {
	var req bulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, CodeInvalidRequest, err)
		return
	}
	inputs := make([]store.StudentInput, len(req.Students))
	for i, s := range req.Students {
		inputs[i] = s.input()
	}
	students, err := h.store.AddStudentsBulk(c.Request.Context(), inputs)
	if err != nil {
		respondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"students": students})
}

// UploadRoster simulates a roster file upload: the request body is ignored
// and five placeholder students are added after the current roster.
func (h *Handler) UploadRoster(c *gin.Context) {
	students, added, err := h.store.AddPlaceholders(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"students": students, "added": added})
}

func (h *Handler) ListRecords(c *gin.Context) {
	records, err := h.store.ListRecords(c.Request.Context(), c.Query("category"))
	if err != nil {
		respondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"records": records})
}

type recordRequest struct {
	StudentID       string `json:"studentId" binding:"required"`
	Category        string `json:"category" binding:"required"`
	SubCategory     string `json:"subCategory" binding:"required"`
	Point           string `json:"point" binding:"required"`
	CheckedExamples []int  `json:"checkedExamples"`
	Memo            string `json:"memo"`
}

// SaveRecord upserts one observation. An observation with nothing ticked and
// no memo is rejected rather than saved empty.
func (h *Handler) SaveRecord(c *gin.Context) {
	var req recordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, CodeInvalidRequest, err)
		return
	}

	checked := taxonomy.NewSelection(req.CheckedExamples...).Indices()
	memo := strings.TrimSpace(req.Memo)
	if len(checked) == 0 && memo == "" {
		RespondError(c, http.StatusBadRequest, CodeEmptyRecord, errors.New("tick an example or write a memo"))
		return
	}
	if err := h.tax.Validate(req.Category, req.SubCategory, req.Point); err != nil {
		respondErr(c, err)
		return
	}
	if err := h.tax.ValidIndices(req.Category, req.SubCategory, req.Point, checked); err != nil {
		respondErr(c, err)
		return
	}

	ctx := c.Request.Context()
	in := store.RecordInput{
		StudentID:       req.StudentID,
		Category:        req.Category,
		SubCategory:     req.SubCategory,
		Point:           req.Point,
		CheckedExamples: checked,
		Memo:            memo,
	}
	if err := h.store.UpsertRecord(ctx, in); err != nil {
		respondErr(c, err)
		return
	}

	records, err := h.store.ListRecords(ctx, in.Category)
	if err != nil {
		respondErr(c, err)
		return
	}
	for _, r := range records {
		if r.Key() == in.Key() {
			h.indexRecord(r)
			RespondOK(c, gin.H{"record": r})
			return
		}
	}
	RespondOK(c, gin.H{"record": nil})
}

func (h *Handler) ListGenerated(c *gin.Context) {
	generated, err := h.store.ListGenerated(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"generated": generated})
}

func (h *Handler) Generate(c *gin.Context) {
	var req generate.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, CodeInvalidRequest, err)
		return
	}
	out, err := h.gen.Generate(c.Request.Context(), req)
	h.indexGenerated(out)
	if err != nil {
		if len(out) > 0 {
			h.log.Warn("generation stopped early", "generated", len(out), "error", err)
		}
		respondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"generated": out})
}

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.store.Stats(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	RespondOK(c, stats)
}

func (h *Handler) Taxonomy(c *gin.Context) {
	RespondOK(c, h.tax)
}

// Search queries the handler's index. Writes made by other processes are
// not seen until the server restarts.
func (h *Handler) Search(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, CodeInvalidRequest, err)
		return
	}

	indexer, err := h.searchIndex(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}

	hits, err := indexer.SearchFiltered(c.Query("q"), search.Filter{
		Kind:      c.Query("kind"),
		Category:  c.Query("category"),
		StudentID: c.Query("studentId"),
	}, limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"hits": hits})
}
