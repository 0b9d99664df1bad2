package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/qrprint/kiosk/internal/api/middleware"
	"github.com/qrprint/kiosk/internal/config"
	"github.com/qrprint/kiosk/internal/core"
	"github.com/qrprint/kiosk/internal/db"
	"github.com/qrprint/kiosk/internal/storage"
)

const (
	// TokenHeader carries the minted job token alongside the QR image.
	TokenHeader = "X-Job-Token"

	qrSize = 256
)

type JobHandler struct {
	cfg   *config.Config
	svc   *core.Service
	store *storage.Store
}

func NewJobHandler(cfg *config.Config, svc *core.Service, store *storage.Store) *JobHandler {
	return &JobHandler{
		cfg:   cfg,
		svc:   svc,
		store: store,
	}
}

// CreateJob accepts a multipart upload, persists the file and the job
// record, and answers with a PNG QR code encoding the job token. If the
// job record cannot be written the stored file is removed again; there
// is no transaction spanning disk and database, only this compensation.
func (h *JobHandler) CreateJob(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
		return
	}
	defer file.Close()

	if header.Filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file selected"})
		return
	}
	if !h.cfg.AllowedExtension(header.Filename) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file type not allowed"})
		return
	}
	if header.Size > h.cfg.Uploads.MaxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large"})
		return
	}

	storedPath, err := h.store.Save(header.Filename, file, h.cfg.Uploads.MaxUploadBytes)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store upload"})
		return
	}

	owner := c.GetString(middleware.ContextUsername)
	token, err := h.svc.CreateJob(c.Request.Context(), header.Filename, storedPath, owner)
	if err != nil {
		if rmErr := h.store.Remove(storedPath); rmErr != nil {
			log.Error().Err(rmErr).Str("path", storedPath).Msg("failed to remove orphaned upload")
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create job"})
		return
	}

	if h.cfg.Jobs.SimulatePayment {
		if err := h.svc.MarkPaid(c.Request.Context(), token); err != nil {
			log.Warn().Err(err).Msg("failed to simulate payment for new job")
		}
	}

	png, err := qrcode.Encode(token, qrcode.Medium, qrSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate QR code"})
		return
	}

	log.Info().Str("filename", header.Filename).Str("owner", owner).Msg("job created")

	c.Header(TokenHeader, token)
	c.Data(http.StatusOK, "image/png", png)
}

// MarkPaid is the payment confirmation hook. A real deployment would
// verify gateway webhook signatures before this point.
func (h *JobHandler) MarkPaid(c *gin.Context) {
	token := c.Param("token")

	if err := h.svc.MarkPaid(c.Request.Context(), token); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "token_not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark paid"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "token": token})
}

// Resolve authorizes a scan station to print: it maps each lifecycle
// rejection onto its own status code so the station can tell the user
// exactly why a code was refused.
func (h *JobHandler) Resolve(c *gin.Context) {
	token := c.Param("token")

	path, err := h.svc.ResolveForPrint(c.Request.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "token_not_found"})
		case errors.Is(err, core.ErrExpired):
			c.JSON(http.StatusForbidden, gin.H{"error": "token_expired"})
		case errors.Is(err, core.ErrPaymentRequired):
			c.JSON(http.StatusPaymentRequired, gin.H{"error": "not_paid"})
		case errors.Is(err, core.ErrAlreadyPrinted):
			c.JSON(http.StatusConflict, gin.H{"error": "already_printed"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve job"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"filepath": path})
}

func (h *JobHandler) MarkPrinted(c *gin.Context) {
	token := c.Param("token")

	if err := h.svc.MarkPrinted(c.Request.Context(), token); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "token_not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark printed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListMine lists the calling account's jobs, newest first.
func (h *JobHandler) ListMine(c *gin.Context) {
	owner := c.GetString(middleware.ContextUsername)

	jobs, err := db.Jobs.ListJobsByOwner(c.Request.Context(), owner)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list jobs"})
		return
	}
	if jobs == nil {
		jobs = []*db.Job{}
	}

	c.JSON(http.StatusOK, gin.H{"jobs": jobs, "count": len(jobs)})
}

// ListAll lists every job, newest first. Admin only.
func (h *JobHandler) ListAll(c *gin.Context) {
	jobs, err := db.Jobs.ListJobs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list jobs"})
		return
	}
	if jobs == nil {
		jobs = []*db.Job{}
	}

	c.JSON(http.StatusOK, gin.H{"jobs": jobs, "count": len(jobs)})
}

func (h *JobHandler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	r.POST("/jobs", auth.OptionalAuth(), h.CreateJob)
	r.POST("/jobs/:token/pay", h.MarkPaid)
	r.GET("/jobs/:token/resolve", h.Resolve)
	r.POST("/jobs/:token/printed", h.MarkPrinted)
	r.GET("/jobs/mine", auth.RequireAuth(), h.ListMine)
	r.GET("/jobs", auth.RequireAuth(), auth.RequireAdmin(), h.ListAll)

	r.POST("/session", auth.LoginHandler)
	r.DELETE("/session", auth.LogoutHandler)
	r.POST("/accounts", auth.RegisterHandler)
}
