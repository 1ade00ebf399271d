package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/penwyp/go-dirac-console/internal/core/constants"
	"github.com/penwyp/go-dirac-console/internal/core/filter"
	"github.com/penwyp/go-dirac-console/internal/core/model"
	"github.com/penwyp/go-dirac-console/internal/core/search"
	"github.com/penwyp/go-dirac-console/internal/presentation/formatter"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

type messagesQuery struct {
	Offset int `form:"offset"`
	Limit  int `form:"limit"`
}

type messagesResponse struct {
	Messages     []formatter.Record `json:"messages"`
	Total        int                `json:"total"`
	Offset       int                `json:"offset"`
	Limit        int                `json:"limit"`
	HasMore      bool               `json:"hasMore"`
	Hidden       int                `json:"hidden"`
	FilterStatus string             `json:"filterStatus,omitempty"`
}

func (s *Server) handleMessages(c *gin.Context) {
	var q messagesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	if q.Limit <= 0 {
		q.Limit = defaultPageSize
	}
	q.Limit = min(q.Limit, maxPageSize)

	resp := messagesResponse{Offset: q.Offset, Limit: q.Limit, Messages: []formatter.Record{}}
	if !s.onLoop(c, func() {
		list := s.console.List()
		resp.Total = list.Len()
		resp.Hidden = list.HiddenByFilter()
		resp.FilterStatus = list.FilterStatus()
		for i := q.Offset; i < resp.Total && i < q.Offset+q.Limit; i++ {
			resp.Messages = append(resp.Messages, formatter.NewRecord(list.At(i)))
		}
	}) {
		return
	}
	resp.HasMore = q.Offset+q.Limit < resp.Total
	c.JSON(http.StatusOK, resp)
}

type searchQuery struct {
	Query         string `form:"q" binding:"required"`
	Regex         bool   `form:"regex"`
	CaseSensitive bool   `form:"case"`
}

type searchResponse struct {
	Query   string         `json:"query"`
	Matches []search.Match `json:"matches"`
	Done    bool           `json:"done"`
}

// handleSearch runs a search over the visible list and waits for it to
// finish, or returns the partial result when the request is cancelled.
func (s *Server) handleSearch(c *gin.Context) {
	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cfg := search.Config{Query: q.Query, IsRegex: q.Regex, CaseSensitive: q.CaseSensitive}

	var job *search.Job
	if !s.onLoop(c, func() { job = s.console.Search(cfg, false, false) }) {
		return
	}

	ticker := time.NewTicker(s.searchPoll)
	defer ticker.Stop()
	resp := searchResponse{Query: q.Query}
	for {
		if !s.onLoop(c, func() {
			resp.Done = !job.Running()
			if resp.Done || c.Request.Context().Err() != nil {
				resp.Matches = s.console.SearchIndex().Matches()
			}
		}) {
			return
		}
		if resp.Done {
			break
		}
		select {
		case <-c.Request.Context().Done():
			c.JSON(http.StatusGatewayTimeout, resp)
			return
		case <-ticker.C:
		}
	}
	if resp.Matches == nil {
		resp.Matches = []search.Match{}
	}
	c.JSON(http.StatusOK, resp)
}

type commandRequest struct {
	Surface string `json:"surface"`
	Text    string `json:"text" binding:"required"`
}

func (s *Server) handleCommand(c *gin.Context) {
	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Surface == "" {
		req.Surface = constants.PromptJS
	}

	var (
		id, contextID int
		ok, known     bool
	)
	if !s.onLoop(c, func() {
		ch := s.console.Channel()
		known = ch.Surface(req.Surface) != nil
		contextID = ch.ExecutionContext()
		if known {
			id, ok = s.console.Submit(req.Surface, req.Text)
		}
	}) {
		return
	}

	switch {
	case !known:
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown prompt " + req.Surface})
	case !ok && contextID == 0:
		c.JSON(http.StatusConflict, gin.H{"error": "no execution context"})
	case !ok:
		c.JSON(http.StatusBadRequest, gin.H{"error": "command not submitted"})
	default:
		c.JSON(http.StatusAccepted, gin.H{"requestId": id})
	}
}

type filterRequest struct {
	Reset          bool            `json:"reset"`
	Levels         map[string]bool `json:"levels"`
	Text           *string         `json:"text"`
	Context        *string         `json:"context"`
	HideNetwork    *bool           `json:"hideNetwork"`
	ConsoleAPIOnly *bool           `json:"consoleApiOnly"`
	ByContext      *bool           `json:"selectedContextOnly"`
	BlockURLs      []string        `json:"blockUrls"`
	UnblockURLs    []string        `json:"unblockUrls"`
}

type filterResponse struct {
	Persisted filter.Persisted     `json:"persisted"`
	Text      string               `json:"text,omitempty"`
	Levels    string               `json:"levels"`
	Blocked   []filter.URLMenuItem `json:"blocked"`
	Status    string               `json:"status,omitempty"`
}

func (s *Server) filterState() filterResponse {
	f := s.console.Filter()
	return filterResponse{
		Persisted: f.Persisted(),
		Text:      f.State().Text,
		Levels:    f.LevelMenuText(),
		Blocked:   f.URLMenu(s.console.Store().URLCounts()),
		Status:    s.console.List().FilterStatus(),
	}
}

func (s *Server) handleGetFilters(c *gin.Context) {
	var resp filterResponse
	if s.onLoop(c, func() { resp = s.filterState() }) {
		c.JSON(http.StatusOK, resp)
	}
}

func (s *Server) handleSetFilters(c *gin.Context) {
	var req filterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var resp filterResponse
	if !s.onLoop(c, func() {
		f := s.console.Filter()
		if req.Reset {
			f.Reset()
		}
		for name, enabled := range req.Levels {
			f.SetLevel(model.ParseLevel(name), enabled)
		}
		if req.Text != nil {
			f.SetText(*req.Text)
		}
		if req.Context != nil {
			f.SetContext(*req.Context)
		}
		if req.HideNetwork != nil {
			f.SetHideNetwork(*req.HideNetwork)
		}
		if req.ConsoleAPIOnly != nil {
			f.SetConsoleAPIOnly(*req.ConsoleAPIOnly)
		}
		if req.ByContext != nil {
			f.SetFilterByExecutionContext(*req.ByContext)
		}
		for _, u := range req.BlockURLs {
			f.AddURLFilter(u)
		}
		for _, u := range req.UnblockURLs {
			f.RemoveURLFilter(u)
		}
		resp = s.filterState()
	}) {
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleClear(c *gin.Context) {
	if s.onLoop(c, s.console.Clear) {
		c.JSON(http.StatusOK, gin.H{"cleared": true})
	}
}

type historyQuery struct {
	Surface string `form:"surface"`
}

func (s *Server) handleHistory(c *gin.Context) {
	var q historyQuery
	_ = c.ShouldBindQuery(&q)
	if q.Surface == "" {
		q.Surface = constants.PromptJS
	}

	var (
		items []string
		known bool
	)
	if !s.onLoop(c, func() {
		if sf := s.console.Channel().Surface(q.Surface); sf != nil {
			known = true
			items = sf.History.Items()
		}
	}) {
		return
	}
	if !known {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown prompt " + q.Surface})
		return
	}
	if items == nil {
		items = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"surface": q.Surface, "items": items})
}

func (s *Server) handleClearHistory(c *gin.Context) {
	var q historyQuery
	_ = c.ShouldBindQuery(&q)
	if q.Surface == "" {
		q.Surface = constants.PromptJS
	}

	var known bool
	if !s.onLoop(c, func() {
		if sf := s.console.Channel().Surface(q.Surface); sf != nil {
			known = true
			sf.History.Clear()
			s.console.Settings().SaveHistory(q.Surface, nil)
		}
	}) {
		return
	}
	if !known {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown prompt " + q.Surface})
		return
	}
	c.JSON(http.StatusOK, gin.H{"surface": q.Surface, "cleared": true})
}
