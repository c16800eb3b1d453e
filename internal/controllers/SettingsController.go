package controllers

import (
	apperrors "barcodedrop/internal/errors"
	"barcodedrop/internal/providers"
	"barcodedrop/internal/services"
	"net/http"
)

type SettingsController struct {
	logger providers.Logger
	prefs  services.PreferencesServiceInterface
}

func NewSettingsController(logger providers.Logger, prefs services.PreferencesServiceInterface) *SettingsController {
	return &SettingsController{logger: logger, prefs: prefs}
}

type toggleRequest struct {
	Enabled *bool `json:"enabled"`
}

func (sc *SettingsController) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sc.prefs.Get())
}

func (sc *SettingsController) SetAutoCopy(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, sc.logger, err)
		return
	}
	if req.Enabled == nil {
		writeError(w, sc.logger, apperrors.New(apperrors.CodeValidation, "enabled is required"))
		return
	}
	prefs := sc.prefs.SetAutoCopy(*req.Enabled)
	sc.logger.Infof(providers.TypeHttp, "Auto-copy set to %t", prefs.AutoCopyEnabled)
	writeJSON(w, http.StatusOK, prefs)
}
