package analytics

import (
	"net/http"
	"strings"

	"github.com/tableside/pos-backend/api/responses"
	"github.com/tableside/pos-backend/api/validators"
	internalanalytics "github.com/tableside/pos-backend/internal/analytics"
	"github.com/tableside/pos-backend/pkg/enums"
	pkgerrors "github.com/tableside/pos-backend/pkg/errors"
	"github.com/tableside/pos-backend/pkg/logger"
)

// Sales ranks dishes or categories by revenue or quantity over a window.
func Sales(svc internalanalytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		rng, err := parseRange(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input := internalanalytics.SalesInput{
			Range:    rng,
			Category: validators.SanitizeString(r.URL.Query().Get("category"), 64),
		}

		if input.DishID, err = validators.ParseQueryUUID(r, "dish_id"); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if input.Limit, err = validators.ParseQueryInt(r, "limit", 0, 1, internalanalytics.MaxLimit); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if raw := queryLower(r, "type"); raw != "" {
			if input.Metric, err = enums.ParseAnalyticsMetric(raw); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid type"))
				return
			}
		}
		if raw := queryLower(r, "group_by"); raw != "" {
			if input.GroupBy, err = enums.ParseAnalyticsGroupBy(raw); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid group_by"))
				return
			}
		}

		report, err := svc.Sales(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

// Summary returns order count, items sold, gross revenue and average order
// value for a window.
func Summary(svc internalanalytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rng, err := parseRange(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		summary, err := svc.Summary(r.Context(), rng)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

func parseRange(r *http.Request) (internalanalytics.RangeInput, error) {
	var rng internalanalytics.RangeInput
	if raw := queryLower(r, "range"); raw != "" {
		preset, err := enums.ParseAnalyticsRange(raw)
		if err != nil {
			return rng, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid range")
		}
		rng.Preset = preset
	}
	from, err := validators.ParseQueryTime(r, "from")
	if err != nil {
		return rng, err
	}
	to, err := validators.ParseQueryTime(r, "to")
	if err != nil {
		return rng, err
	}
	rng.From = from
	rng.To = to
	return rng, nil
}

func queryLower(r *http.Request, key string) string {
	return strings.ToLower(strings.TrimSpace(r.URL.Query().Get(key)))
}
