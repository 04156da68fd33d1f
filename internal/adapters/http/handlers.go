// Package http is the request/response adapter: REST endpoints for
// auth, chat history, scoring and administration, plus the WebSocket
// upgrade route. All domain decisions stay in internal/app.
package http

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/app"
	"github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/auth"
	"github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/domain"
)

type Handlers struct {
	Coord    *app.Coordinator
	Users    *auth.UserStore
	Resolver *auth.JWTResolver
}

// httpStatus maps domain error kinds onto HTTP status codes.
func httpStatus(err error) int {
	switch domain.KindOf(err) {
	case domain.KindAuth:
		return http.StatusUnauthorized
	case domain.KindPermission:
		return http.StatusForbidden
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindStorage:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	status := httpStatus(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("module", "adapters.http").Str("path", c.FullPath()).Msg("request failed")
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// RequireAuth validates the bearer credential and stashes the resolved
// user on the context.
func (h *Handlers) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if token == "" {
			// Browsers hitting the page directly carry the cookie instead.
			token, _ = c.Cookie("token")
		}
		user, err := h.Resolver.Resolve(token)
		if err != nil {
			fail(c, err)
			c.Abort()
			return
		}
		c.Set("user", user)
		c.Next()
	}
}

func currentUser(c *gin.Context) *domain.User {
	u, _ := c.MustGet("user").(*domain.User)
	return u
}

func (h *Handlers) Register(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, domain.ValidationError("bad register payload"))
		return
	}
	user, err := h.Users.Register(req.Username, req.Password, domain.Role(req.Role))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

func (h *Handlers) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, domain.ValidationError("bad login payload"))
		return
	}
	user, err := h.Users.Authenticate(req.Username, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	token, err := h.Resolver.Sign(user)
	if err != nil {
		fail(c, err)
		return
	}
	// Cookie copy lets the WS upgrade authenticate without a join token.
	c.SetCookie("token", token, 3600*24, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

func (h *Handlers) ServerTime(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"now": time.Now().UTC().Format(time.RFC3339)})
}

func (h *Handlers) Rooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.Coord.Rooms.List()})
}

func (h *Handlers) TimerState(c *gin.Context) {
	room := domain.RoomID(c.Param("room"))
	state, ok := h.Coord.Engine.State(room)
	if !ok {
		fail(c, domain.NotFoundError("no timer for room %s", room))
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *Handlers) ChatHistory(c *gin.Context) {
	room := domain.RoomID(c.Param("room"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	msgs, err := h.Coord.Pipeline.History(room, limit, offset)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": room, "messages": msgs})
}

func (h *Handlers) ChatSummary(c *gin.Context) {
	room := domain.RoomID(c.Param("room"))
	summary, err := h.Coord.Pipeline.UserSummary(room)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": room, "summary": summary})
}

func (h *Handlers) ChatSearch(c *gin.Context) {
	room := domain.RoomID(c.Param("room"))
	keyword := c.Query("q")
	if keyword == "" {
		fail(c, domain.ValidationError("query parameter q is required"))
		return
	}
	msgs, err := h.Coord.Pipeline.Search(room, keyword)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": room, "keyword": keyword, "messages": msgs})
}

func (h *Handlers) SubmitScore(c *gin.Context) {
	room := domain.RoomID(c.Param("room"))
	var req struct {
		TargetUserID string             `json:"targetUserId"`
		Scores       map[string]float64 `json:"scores"`
		Comments     string             `json:"comments"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, domain.ValidationError("bad score payload"))
		return
	}
	entry, err := h.Coord.SubmitScoreAs(currentUser(c), room, domain.UserID(req.TargetUserID), req.Scores, req.Comments)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"score": entry})
}

func (h *Handlers) AggregateScores(c *gin.Context) {
	room := domain.RoomID(c.Param("room"))
	agg, err := h.Coord.Scores.Aggregated(room)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": room, "scores": agg})
}

func (h *Handlers) Ranking(c *gin.Context) {
	room := domain.RoomID(c.Param("room"))
	ranking, err := h.Coord.Scores.Ranking(room)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": room, "ranking": ranking})
}

func (h *Handlers) ScoreHistory(c *gin.Context) {
	room := domain.RoomID(c.Param("room"))
	user := domain.UserID(c.Query("user"))
	entries, err := h.Coord.Scores.History(room, user)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": room, "history": entries})
}

// AIScoreSummary produces an automatic textual evaluation of the room
// from its aggregate numbers. Heuristic, not a model call.
func (h *Handlers) AIScoreSummary(c *gin.Context) {
	room := domain.RoomID(c.Param("room"))
	composite, err := h.Coord.Scores.Composite(room)
	if err != nil {
		fail(c, err)
		return
	}
	ranking, err := h.Coord.Scores.Ranking(room)
	if err != nil {
		fail(c, err)
		return
	}

	verdict := "no scores submitted yet"
	switch {
	case len(ranking) == 0:
	case composite >= 8:
		verdict = "outstanding overall performance across the room"
	case composite >= 6:
		verdict = "solid performance with room to improve"
	default:
		verdict = "the room needs significant improvement"
	}
	summary := verdict
	if len(ranking) > 0 {
		summary = fmt.Sprintf("%s; current leader is participant %s (%.2f)", verdict, ranking[0].TargetUserID, ranking[0].WeightedAverage)
	}
	c.JSON(http.StatusOK, gin.H{
		"room":      room,
		"composite": composite,
		"summary":   summary,
	})
}

// adminRoles may inspect the account registry.
var adminRoles = map[domain.Role]bool{
	domain.RoleAdmin: true,
	domain.RoleSys:   true,
}

func (h *Handlers) AdminUsers(c *gin.Context) {
	user := currentUser(c)
	if !adminRoles[user.Role] {
		fail(c, domain.PermissionError("role %s may not list users", user.Role))
		return
	}

	users := h.Users.List()
	switch c.DefaultQuery("sort", "id") {
	case "username":
		sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	case "role":
		sort.Slice(users, func(i, j int) bool {
			if users[i].Role != users[j].Role {
				return users[i].Role.Order() < users[j].Role.Order()
			}
			return users[i].Username < users[j].Username
		})
	default:
		sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}
