package http

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	valid "github.com/asaskevich/govalidator/v11"
	"github.com/gin-gonic/gin"

	"github.com/bruno-farias/raspi-info-ticker/internal/domain/dto"
	"github.com/bruno-farias/raspi-info-ticker/internal/middleware"
	"github.com/bruno-farias/raspi-info-ticker/internal/refresh"
	"github.com/bruno-farias/raspi-info-ticker/internal/repository"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

var successResponsePool = sync.Pool{
	New: func() any { return &dto.SuccessResponse{} },
}

// ResponseBuilder writes the JSON envelopes of the API.
type ResponseBuilder struct {
	c *gin.Context
}

func NewResponseBuilder(c *gin.Context) *ResponseBuilder {
	return &ResponseBuilder{c: c}
}

// Success wraps data in a pooled SuccessResponse. gin serialises
// synchronously, so the envelope can go back to the pool right after.
func (b *ResponseBuilder) Success(statusCode int, data any) {
	resp := successResponsePool.Get().(*dto.SuccessResponse)
	resp.Data = data
	resp.RequestID = middleware.GetRequestID(b.c)
	resp.Timestamp = time.Now()

	b.c.JSON(statusCode, resp)

	resp.Data = nil
	resp.RequestID = ""
	successResponsePool.Put(resp)
}

func (b *ResponseBuilder) SuccessOK(data any) {
	b.Success(http.StatusOK, data)
}

// Error aborts with an ErrorResponse. err, when set, is attached to the
// context for ErrorHandler to log.
func (b *ResponseBuilder) Error(statusCode int, message string, err error) {
	b.ErrorWithDetails(statusCode, message, nil, err)
}

func (b *ResponseBuilder) ErrorWithDetails(statusCode int, message string, details map[string]string, err error) {
	resp := dto.NewError(dto.ErrCodeFromStatus(statusCode), message).WithRequestID(middleware.GetRequestID(b.c))
	for k, v := range details {
		resp = resp.WithDetail(k, v)
	}
	if err != nil {
		_ = b.c.Error(err)
	}
	b.c.AbortWithStatusJSON(statusCode, resp)
}

var historyActions = []string{
	refresh.Skipped.String(),
	refresh.FullRepaint.String(),
	refresh.PartialBaselineInit.String(),
	refresh.PartialRepaint.String(),
}

// BuildHistoryQuery reads the history filters from the query string. The
// returned map names every invalid parameter.
func BuildHistoryQuery(c *gin.Context) (repository.HistoryQuery, map[string]string) {
	q := repository.HistoryQuery{
		SessionID: c.Query("session_id"),
		Screen:    c.Query("screen"),
		Action:    c.Query("action"),
		Limit:     defaultHistoryLimit,
	}
	problems := map[string]string{}

	if q.SessionID != "" && !valid.IsUUID(q.SessionID) {
		problems["session_id"] = "must be a UUID"
	}
	if q.Action != "" && !valid.IsIn(q.Action, historyActions...) {
		problems["action"] = fmt.Sprintf("must be one of %v", historyActions)
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || !valid.InRange(n, 1, maxHistoryLimit) {
			problems["limit"] = fmt.Sprintf("must be between 1 and %d", maxHistoryLimit)
		} else {
			q.Limit = n
		}
	}
	if v := c.Query("skip"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			problems["skip"] = "must be a non-negative integer"
		} else {
			q.Skip = n
		}
	}
	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"since", &q.Since}, {"until", &q.Until}} {
		v := c.Query(p.name)
		if v == "" {
			continue
		}
		if !valid.IsRFC3339(v) {
			problems[p.name] = "must be an RFC3339 timestamp"
			continue
		}
		t, _ := time.Parse(time.RFC3339, v)
		*p.dst = &t
	}

	if len(problems) == 0 {
		return q, nil
	}
	return q, problems
}
