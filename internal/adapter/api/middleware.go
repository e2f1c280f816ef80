package api

import (
	"github.com/burenotti/go_bmi_backend/internal/app/auth"
	"github.com/burenotti/go_bmi_backend/internal/domain/user"
	"github.com/burenotti/go_bmi_backend/internal/metrics"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const KeyCurrentUser = "current_user"

func LoginRequired(authorizer *auth.Authorizer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return JsonError(c, http.StatusUnauthorized, "missing Authorization header")
			}
			parts := strings.Split(header, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return JsonError(c, http.StatusUnauthorized, "invalid Authorization header")
			}
			u, err := authorizer.ValidateAccessToken(parts[1])
			if err != nil {
				return JsonError(c, http.StatusUnauthorized, err.Error())
			}
			c.Set(KeyCurrentUser, u)
			return next(c)
		}
	}
}

// RoleRequired must run after LoginRequired.
func RoleRequired(roles ...user.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, ok := c.Get(KeyCurrentUser).(*auth.AccessTokenData)
			if !ok {
				return JsonError(c, http.StatusUnauthorized, "unauthorized")
			}
			for _, r := range roles {
				if u.Role == r {
					return next(c)
				}
			}
			return JsonError(c, http.StatusForbidden, "insufficient role")
		}
	}
}

func currentUser(c echo.Context) *auth.AccessTokenData {
	return c.Get(KeyCurrentUser).(*auth.AccessTokenData)
}

func RequestMetrics(m *metrics.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m.GaugeRequests.Inc()
			defer m.GaugeRequests.Dec()

			begin := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := strconv.Itoa(c.Response().Status)
			m.CounterRequests.With(prometheus.Labels{
				"method": c.Request().Method,
				"status": status,
			}).Inc()
			m.HistogramRequestDuration.
				WithLabelValues(c.Path(), c.Request().Method, status).
				Observe(time.Since(begin).Seconds())
			return nil
		}
	}
}
