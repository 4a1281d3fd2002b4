package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/clinicpro/dashboard-service/pkg/types"
)

type contextKey string

const userClaimsKey contextKey = "user_claims"

// defaultRangeDays is how far back the feed and stats look when the caller
// does not bound the range. The future side stays open so upcoming
// appointments count.
const defaultRangeDays = 30

// setupRoutes configures HTTP routes for the dashboard service
func (s *Service) setupRoutes() {
	if s.metrics != nil {
		s.router.Use(s.metrics.HTTPMiddleware)
	}
	s.router.Use(s.authMiddleware)

	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Dashboard routes
	api.HandleFunc("/dashboard", s.getDashboardHandler).Methods("GET")
	api.HandleFunc("/dashboard/feed", s.getFeedHandler).Methods("GET")
	api.HandleFunc("/dashboard/stats", s.getStatsHandler).Methods("GET")
	api.HandleFunc("/dashboard/refresh", s.refreshHandler).Methods("POST")
	api.HandleFunc("/dashboard/activity", s.getActivityHandler).Methods("GET")

	// Health check and metrics
	s.router.HandleFunc(s.config.Monitoring.HealthPath, s.healthManager.HTTPHandler()).Methods("GET")
	if s.metrics != nil && s.config.Monitoring.Enabled {
		s.router.Handle(s.config.Monitoring.MetricsPath, s.metrics.Handler()).Methods("GET")
	}

	s.logger.Info("Dashboard service routes configured")
}

// authMiddleware validates the bearer token and stashes the user claims in
// the request context. With jwt.optional set, unauthenticated requests fall
// back to the clinic-wide admin view.
func (s *Service) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip authentication for health checks and metrics
		if r.URL.Path == s.config.Monitoring.HealthPath || r.URL.Path == s.config.Monitoring.MetricsPath {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := s.claimsFromRequest(r)
		if err != nil {
			if !s.config.JWT.Optional {
				s.recordAuthAttempt("jwt", "failed")
				s.writeErrorResponse(w, http.StatusUnauthorized, "invalid or missing token", err)
				return
			}
			claims = &types.UserClaims{Role: types.RoleAdmin}
		} else {
			s.recordAuthAttempt("jwt", "success")
		}

		ctx := context.WithValue(r.Context(), userClaimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Service) claimsFromRequest(r *http.Request) (*types.UserClaims, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, types.NewAuthenticationError(types.ErrCodeUnauthorized, "missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, types.NewAuthenticationError(types.ErrCodeUnauthorized, "invalid authorization header format")
	}

	claims, err := s.tokenValidator.ValidateJWT(parts[1])
	if err != nil {
		return nil, types.NewAuthenticationError(types.ErrCodeAuthenticationFailed, err.Error())
	}
	return claims, nil
}

// getDashboardHandler serves the combined feed and statistics view. Each
// call triggers a throttled activity refresh, mirroring the UI mount
// contract; refresh failures degrade to last-good cached data.
func (s *Service) getDashboardHandler(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	q := s.queryFromRequest(r, claims)

	refreshErr := s.coordinator.Refresh(r.Context(), false)

	collections := s.source.Collections(r.Context())
	snapshot := s.coordinator.Snapshot()
	feed, stats := s.aggregator.Aggregate(snapshot.Records, collections, q)

	response := map[string]interface{}{
		"feed":            feed,
		"stats":           stats,
		"loading":         snapshot.Loading,
		"last_fetched_at": snapshot.LastFetchedAt,
	}
	if refreshErr != nil {
		response["activity_warning"] = "activity log refresh failed, showing cached data"
	}

	s.writeJSONResponse(w, http.StatusOK, response)
}

// getFeedHandler serves the ranked activity feed
func (s *Service) getFeedHandler(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	q := s.queryFromRequest(r, claims)

	s.coordinator.Refresh(r.Context(), false)

	collections := s.source.Collections(r.Context())
	snapshot := s.coordinator.Snapshot()
	feed := s.aggregator.BuildFeed(snapshot.Records, collections, q)

	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"feed":    feed,
		"loading": snapshot.Loading,
	})
}

// getStatsHandler serves the statistics snapshot
func (s *Service) getStatsHandler(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	q := s.queryFromRequest(r, claims)

	collections := s.source.Collections(r.Context())
	stats := s.aggregator.BuildStats(collections, q)

	s.writeJSONResponse(w, http.StatusOK, stats)
}

// refreshHandler forces an activity refresh, bypassing the TTL guard. The
// in-flight guard still collapses concurrent bursts into one fetch, and the
// per-user rate limiter bounds sustained hammering.
func (s *Service) refreshHandler(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	if s.config.RateLimit.Enabled && !s.rateLimiter.Allow(claims.UserID) {
		if s.metrics != nil {
			s.metrics.RecordRateLimitRejection("/api/v1/dashboard/refresh")
		}
		s.writeErrorResponse(w, http.StatusTooManyRequests, "refresh rate limit exceeded", nil)
		return
	}

	if err := s.coordinator.Refresh(r.Context(), true); err != nil {
		s.writeErrorResponse(w, http.StatusBadGateway, "activity log refresh failed", err)
		return
	}

	snapshot := s.coordinator.Snapshot()
	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"message":         "activity log refreshed",
		"records":         len(snapshot.Records),
		"last_fetched_at": snapshot.LastFetchedAt,
	})
}

// getActivityHandler serves the raw cached activity snapshot
func (s *Service) getActivityHandler(w http.ResponseWriter, r *http.Request) {
	s.coordinator.Refresh(r.Context(), false)
	s.writeJSONResponse(w, http.StatusOK, s.coordinator.Snapshot())
}

// queryFromRequest builds the aggregation query for this request. from/to
// are RFC3339 or bare dates; the default window reaches 30 days back and is
// open-ended forward.
func (s *Service) queryFromRequest(r *http.Request, claims *types.UserClaims) Query {
	now := time.Now()

	dateRange := types.DateRange{From: now.AddDate(0, 0, -defaultRangeDays)}
	if from, ok := parseDateParam(r.URL.Query().Get("from")); ok {
		dateRange.From = from
	}
	if to, ok := parseDateParam(r.URL.Query().Get("to")); ok {
		dateRange.To = to
	}

	return Query{
		Range:   dateRange,
		Role:    claims.Role,
		ActorID: claims.UserID,
		Now:     now,
	}
}

func parseDateParam(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func claimsFromContext(ctx context.Context) *types.UserClaims {
	if claims, ok := ctx.Value(userClaimsKey).(*types.UserClaims); ok {
		return claims
	}
	return &types.UserClaims{Role: types.RoleAdmin}
}

// writeJSONResponse writes a JSON response
func (s *Service) writeJSONResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}

// writeErrorResponse writes a JSON error response
func (s *Service) writeErrorResponse(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		s.logger.WithError(err).Warn(message)
	}

	body := map[string]interface{}{"error": message}
	var dashErr *types.DashboardError
	if errors.As(err, &dashErr) {
		body["code"] = dashErr.Code
		body["type"] = dashErr.Type
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (s *Service) recordAuthAttempt(method, status string) {
	if s.metrics != nil {
		s.metrics.RecordAuthAttempt(method, status)
	}
}
