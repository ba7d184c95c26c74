package handlers

import (
	"net/http"
)

// Dashboard returns the caller's profile plus headline user counts, for any
// authenticated account.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	counts, err := h.statsService.UserCounts(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Dashboard data retrieved successfully", map[string]interface{}{
		"user": currentUser(r).ToUserInfo(),
		"stats": map[string]interface{}{
			"total_users":    counts.Total,
			"verified_users": counts.Verified,
		},
	})
}

// DashboardSummary returns the headline totals, staff only.
func (h *Handlers) DashboardSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.statsService.Summary(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", map[string]interface{}{
		"summary": summary,
	})
}

// DashboardCharts returns the per-day series for a trailing window selected
// by ?range=7d|30d|90d, staff only.
func (h *Handlers) DashboardCharts(w http.ResponseWriter, r *http.Request) {
	charts, err := h.statsService.Charts(r.Context(), r.URL.Query().Get("range"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", map[string]interface{}{
		"charts": charts,
	})
}
