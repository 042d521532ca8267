package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// maxReportedErrors bounds the errors listed in a submit response.
const maxReportedErrors = 20

// SubmitResponse is the body of a 202 reply to POST /api/v1/events.
type SubmitResponse struct {
	Accepted int      `json:"accepted"`
	Rejected int      `json:"rejected"`
	Errors   []string `json:"errors"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// submitEvents accepts a JSON array or newline-delimited CLEF events.
// Undecodable events and events the writer refuses are counted as
// rejected; the rest are accepted.
func (s *Server) submitEvents(c *gin.Context) {
	if s.limiter != nil && !s.limiter.Allow() {
		c.Header("Retry-After", "1")
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("body exceeds %d bytes", s.maxBodyBytes)})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}
	if len(body) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty body"})
		return
	}

	events, decodeErrs := s.decoder.DecodeBatch(body)
	resp := SubmitResponse{Errors: []string{}}
	for _, e := range decodeErrs {
		resp.Rejected++
		resp.addError(e.Error())
	}

	ctx := c.Request.Context()
	for i, ev := range events {
		if err := s.w.Write(ctx, ev); err != nil {
			resp.Rejected++
			resp.addError(fmt.Sprintf("delivery %d: %v", i+1, err))
			continue
		}
		resp.Accepted++
	}

	if resp.Rejected > 0 {
		slog.Warn("events rejected",
			"accepted", resp.Accepted,
			"rejected", resp.Rejected,
			"request_id", c.GetString(RequestIDHeader),
		)
	}
	c.JSON(http.StatusAccepted, resp)
}

func (r *SubmitResponse) addError(msg string) {
	if len(r.Errors) < maxReportedErrors {
		r.Errors = append(r.Errors, msg)
	}
}
