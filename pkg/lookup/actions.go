// Package lookup serves read-only queries over a built dictionary store.
package lookup

import (
	"database/sql"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/czcorpus/cnc-gokit/unireq"
	"github.com/czcorpus/cnc-gokit/uniresp"
	"github.com/gin-gonic/gin"

	"github.com/japaniel/lexdict/pkg/db"
	"github.com/japaniel/lexdict/pkg/metrics"
)

type wordRecord struct {
	ID        int64   `json:"id"`
	Language  string  `json:"lang"`
	Lemma     string  `json:"lemma"`
	Phonetic  string  `json:"phonetic"`
	Frequency float64 `json:"freq"`
}

// Actions contains the lookup HTTP actions.
type Actions struct {
	conn         *sql.DB
	defaultLimit int
	maxLimit     int
}

func NewActions(conn *sql.DB, defaultLimit, maxLimit int) *Actions {
	return &Actions{conn: conn, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

func observe(ctx *gin.Context, endpoint string, t0 time.Time) {
	metrics.LookupDuration.WithLabelValues(endpoint).Observe(time.Since(t0).Seconds())
	metrics.LookupRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(ctx.Writer.Status())).Inc()
}

// Health reports whether the store answers queries.
func (a *Actions) Health(ctx *gin.Context) {
	defer observe(ctx, "health", time.Now())
	if err := a.conn.PingContext(ctx); err != nil {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusServiceUnavailable)
		return
	}
	uniresp.WriteJSONResponse(ctx.Writer, map[string]string{"status": "ok"})
}

// Prefix lists lemmas starting with the :prefix path argument,
// most frequent first. Optional URL args: limit, lang.
func (a *Actions) Prefix(ctx *gin.Context) {
	defer observe(ctx, "prefix", time.Now())
	// 422 matches what unireq answers for a non-numeric limit
	limit, ok := unireq.GetURLIntArgOrFail(ctx, "limit", a.defaultLimit)
	if !ok {
		return
	}
	if limit <= 0 {
		uniresp.RespondWithErrorJSON(
			ctx, fmt.Errorf("limit must be a positive number"), http.StatusUnprocessableEntity)
		return
	}
	if limit > a.maxLimit {
		limit = a.maxLimit
	}
	lemmas, err := db.SearchPrefix(ctx, a.conn, ctx.Param("prefix"), ctx.Query("lang"), limit)
	if err != nil {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusInternalServerError)
		return
	}
	if lemmas == nil {
		lemmas = []string{}
	}
	uniresp.WriteJSONResponse(ctx.Writer, lemmas)
}

// Exact returns all words whose lemma equals the :lemma path argument.
// The optional lang URL arg restricts the result to one language.
func (a *Actions) Exact(ctx *gin.Context) {
	defer observe(ctx, "exact", time.Now())
	words, err := db.SearchExact(ctx, a.conn, ctx.Param("lemma"), ctx.Query("lang"))
	if err != nil {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusInternalServerError)
		return
	}
	ans := make([]wordRecord, len(words))
	for i, w := range words {
		ans[i] = wordRecord{
			ID:        w.ID,
			Language:  w.Language,
			Lemma:     w.Lemma,
			Phonetic:  w.Phonetic,
			Frequency: w.Frequency,
		}
	}
	uniresp.WriteJSONResponse(ctx.Writer, ans)
}

// Routes registers the lookup actions with engine.
func (a *Actions) Routes(engine gin.IRouter) {
	engine.GET("/health", a.Health)
	engine.GET("/lookup/:prefix", a.Prefix)
	engine.GET("/words/:lemma", a.Exact)
}
