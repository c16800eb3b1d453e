package controllers

import (
	apperrors "barcodedrop/internal/errors"
	"barcodedrop/internal/models"
	"barcodedrop/internal/providers"
	"barcodedrop/internal/services"
	"math"
	"net/http"
	"time"
)

// maxOlderThanSeconds is the largest age that still fits a time.Duration.
const maxOlderThanSeconds = math.MaxInt64 / int64(time.Second)

type ScanController struct {
	logger  providers.Logger
	session services.SessionInterface
	export  services.ExportServiceInterface
}

func NewScanController(logger providers.Logger, session services.SessionInterface, export services.ExportServiceInterface) *ScanController {
	return &ScanController{
		logger:  logger,
		session: session,
		export:  export,
	}
}

type scansResponse struct {
	User        string        `json:"user"`
	Version     uint64        `json:"version"`
	Channel     string        `json:"channel"`
	Highlighted string        `json:"highlighted,omitempty"`
	Scans       []models.Scan `json:"scans"`
}

type submitRequest struct {
	Barcode string `json:"barcode"`
}

type submitResponse struct {
	ID string `json:"id"`
}

type deleteRequest struct {
	IDs []string `json:"ids"`
}

type clearRequest struct {
	OlderThanSeconds *int64 `json:"older_than_seconds"`
}

type visibleRequest struct {
	Visible *bool `json:"visible"`
}

func (sc *ScanController) List(w http.ResponseWriter, r *http.Request) {
	snap := sc.session.Snapshot()
	highlighted, _ := sc.session.Highlighted()
	writeJSON(w, http.StatusOK, scansResponse{
		User:        snap.User,
		Version:     snap.Version,
		Channel:     sc.session.ChannelState().String(),
		Highlighted: highlighted,
		Scans:       snap.Scans,
	})
}

func (sc *ScanController) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, sc.logger, err)
		return
	}
	id, err := sc.session.Submit(r.Context(), req.Barcode)
	if err != nil {
		writeError(w, sc.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, submitResponse{ID: id})
}

func (sc *ScanController) Export(w http.ResponseWriter, r *http.Request) {
	format, err := services.ParseExportFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, sc.logger, err)
		return
	}
	snap := sc.session.Snapshot()
	data, err := sc.export.Export(snap, format)
	if err != nil {
		writeError(w, sc.logger, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="scans-`+snap.User+`.`+string(format)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (sc *ScanController) Delete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, sc.logger, err)
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, sc.logger, apperrors.New(apperrors.CodeValidation, "ids are required"))
		return
	}
	if err := sc.session.Delete(r.Context(), req.IDs); err != nil {
		writeError(w, sc.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (sc *ScanController) Clear(w http.ResponseWriter, r *http.Request) {
	var req clearRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, sc.logger, err)
		return
	}
	var olderThan *time.Duration
	if req.OlderThanSeconds != nil {
		if *req.OlderThanSeconds > maxOlderThanSeconds {
			writeError(w, sc.logger, apperrors.New(apperrors.CodeValidation, "older_than_seconds is too large"))
			return
		}
		d := time.Duration(*req.OlderThanSeconds) * time.Second
		olderThan = &d
	}
	if err := sc.session.DeleteAll(r.Context(), olderThan); err != nil {
		writeError(w, sc.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (sc *ScanController) Visible(w http.ResponseWriter, r *http.Request) {
	var req visibleRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, sc.logger, err)
		return
	}
	if req.Visible == nil {
		writeError(w, sc.logger, apperrors.New(apperrors.CodeValidation, "visible is required"))
		return
	}
	sc.session.SetVisible(*req.Visible)
	w.WriteHeader(http.StatusNoContent)
}
