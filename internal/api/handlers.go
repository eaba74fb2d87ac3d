package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/steemfans/wallet-engine/internal/chain"
	"github.com/steemfans/wallet-engine/internal/curation"
	"github.com/steemfans/wallet-engine/internal/engine"
	"github.com/steemfans/wallet-engine/internal/history"
	"github.com/steemfans/wallet-engine/internal/storage"
)

// Handler handles API requests
type Handler struct {
	chain     *chain.Client
	formatter *history.Formatter
	votes     *engine.VoteValueCalculator
	analyzer  *curation.Analyzer
	archive   *storage.MongoDB
	logger    *zap.Logger
}

// NewHandler creates a new API handler. archive may be nil when report
// archiving is disabled.
func NewHandler(chainClient *chain.Client, formatter *history.Formatter, votes *engine.VoteValueCalculator, analyzer *curation.Analyzer, archive *storage.MongoDB, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		chain:     chainClient,
		formatter: formatter,
		votes:     votes,
		analyzer:  analyzer,
		archive:   archive,
		logger:    logger,
	}
}

// Health handles GET /api/v1/health
func (h *Handler) Health(c *gin.Context) {
	lastIrreversible, err := h.chain.GetLatestIrreversibleBlockNum()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":                  "ok",
		"last_irreversible_block": lastIrreversible,
	})
}

// GetTransactions handles GET /api/v1/accounts/:account/transactions
func (h *Handler) GetTransactions(c *gin.Context) {
	account := c.Param("account")
	ctx := c.Request.Context()

	from, _ := strconv.ParseInt(c.DefaultQuery("from", "-1"), 10, 64)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if limit < 1 || limit > 1000 {
		limit = 100
	}

	entries, err := h.chain.GetAccountHistory(ctx, account, from, uint32(limit))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	formatted := h.formatter.FormatAll(ctx, entries, account)

	state, err := filterStateFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := history.Filter(formatted, state)
	result = history.Sort(result, c.DefaultQuery("sort", history.SortDesc))

	c.JSON(http.StatusOK, gin.H{
		"account":      account,
		"transactions": result,
		"count":        len(result),
	})
}

// filterStateFromQuery builds a FilterState from query parameters. Absent
// parameters enable everything.
func filterStateFromQuery(c *gin.Context) (history.FilterState, error) {
	state := history.FilterState{
		Direction: history.Direction{
			ByIdentity: c.DefaultQuery("by", "true") == "true",
			OnIdentity: c.DefaultQuery("on", "true") == "true",
		},
	}

	if typesParam := c.Query("types"); typesParam != "" {
		state.Types = make(map[history.Kind]bool)
		for _, tag := range strings.Split(typesParam, ",") {
			state.Types[history.KindOf(strings.TrimSpace(tag))] = true
		}
	}

	if start := c.Query("start"); start != "" {
		parsed, err := time.Parse("2006-01-02", start)
		if err != nil {
			return state, errors.New("start must be YYYY-MM-DD")
		}
		state.DateRange.Start = &parsed
	}
	if end := c.Query("end"); end != "" {
		parsed, err := time.Parse("2006-01-02", end)
		if err != nil {
			return state, errors.New("end must be YYYY-MM-DD")
		}
		state.DateRange.End = &parsed
	}

	return state, nil
}

// GetVoteValue handles GET /api/v1/accounts/:account/vote-value
func (h *Handler) GetVoteValue(c *gin.Context) {
	account := c.Param("account")
	ctx := c.Request.Context()

	percent, err := strconv.Atoi(c.DefaultQuery("percent", "100"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "percent must be an integer"})
		return
	}
	votingPower, _ := strconv.Atoi(c.DefaultQuery("voting_power", "10000"))

	acc, err := h.chain.GetAccount(ctx, account)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	value, err := h.votes.EstimateVoteValue(ctx, percent, acc.EffectiveVestingShares(), votingPower)
	if err != nil {
		var invariant *engine.InvariantError
		if errors.As(err, &invariant) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account":      account,
		"percent":      percent,
		"voting_power": votingPower,
		"value":        value,
	})
}

// RunCuration handles POST /api/v1/accounts/:account/curation
func (h *Handler) RunCuration(c *gin.Context) {
	account := c.Param("account")
	ctx := c.Request.Context()

	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	if err != nil || days < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
		return
	}

	report, err := h.analyzer.Analyze(ctx, account, days)
	if err != nil {
		var noResults *curation.NoResultsError
		if errors.As(err, &noResults) {
			c.JSON(http.StatusOK, gin.H{
				"found":        false,
				"account":      account,
				"window_start": noResults.WindowStart,
				"window_end":   noResults.WindowEnd,
			})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	if h.archive != nil {
		if err := h.archive.SaveReport(ctx, report); err != nil {
			h.logger.Warn("failed to archive curation report",
				zap.String("account", account),
				zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"found":  true,
		"report": report,
	})
}

// GetCurationReports handles GET /api/v1/accounts/:account/curation
func (h *Handler) GetCurationReports(c *gin.Context) {
	if h.archive == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "report archive is not configured"})
		return
	}

	account := c.Param("account")

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	ctx := c.Request.Context()
	result, err := h.archive.GetReports(ctx, account, page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
