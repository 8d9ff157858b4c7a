package devserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/buyerdesk/internal/session"
	"github.com/buyerdesk/pkg/models"
)

const viewerContextKey = "viewer"

// New builds the reference support backend: the endpoint contract the
// coordinator consumes, served from an in-memory store. Development and
// test use only; the production backend lives elsewhere.
func New(store *Store, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	log := logger.With().Str("component", "devserver").Logger()
	e.Use(requireBearer)
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err != nil {
				log.Debug().Str("path", c.Path()).Err(err).Msg("request failed")
			}
			return err
		}
	})

	h := &handlers{store: store}
	e.GET("/conversations", h.listConversations)
	e.GET("/my-chat", h.myChat)
	e.GET("/conversation/:buyerId", h.getConversation)
	e.POST("/send-message", h.sendMessage)
	e.PUT("/mark-read", h.markRead)
	e.GET("/unread-count", h.unreadCount)
	e.DELETE("/conversation/:buyerId", h.deleteConversation)
	e.POST("/:chatId/clear", h.clearChat)
	return e
}

// requireBearer extracts the viewer from the Authorization header. The dev
// server trusts the claims the same way the client parses them; signature
// enforcement belongs to the real auth service.
func requireBearer(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get("Authorization")
		if header == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "authorization header required")
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header format")
		}
		viewer, err := session.Parse(parts[1])
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}
		c.Set(viewerContextKey, viewer)
		return next(c)
	}
}

type handlers struct {
	store *Store
}

func viewer(c echo.Context) *session.Session {
	return c.Get(viewerContextKey).(*session.Session)
}

func profileOf(s *session.Session) BuyerProfile {
	return BuyerProfile{ID: s.UserID, Name: s.Name, Email: s.Email, Company: s.Company}
}

func (h *handlers) listConversations(c echo.Context) error {
	if !viewer(c).IsAdmin() {
		return echo.NewHTTPError(http.StatusForbidden, "admin only")
	}
	return c.JSON(http.StatusOK, echo.Map{"conversations": h.store.Conversations()})
}

func (h *handlers) myChat(c echo.Context) error {
	v := viewer(c)
	if v.IsAdmin() {
		return echo.NewHTTPError(http.StatusForbidden, "buyer only")
	}
	chat := h.store.ChatFor(profileOf(v), models.RoleBuyer)
	return c.JSON(http.StatusOK, echo.Map{"chat": chat})
}

func (h *handlers) getConversation(c echo.Context) error {
	if !viewer(c).IsAdmin() {
		return echo.NewHTTPError(http.StatusForbidden, "admin only")
	}
	buyerID := c.Param("buyerId")
	if buyerID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "buyer id is required")
	}
	chat := h.store.ChatFor(BuyerProfile{ID: buyerID}, models.RoleAdmin)
	return c.JSON(http.StatusOK, echo.Map{"chat": chat})
}

func (h *handlers) sendMessage(c echo.Context) error {
	v := viewer(c)
	var req struct {
		Content string `json:"content"`
		BuyerID string `json:"buyerId"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "content is required")
	}

	var profile BuyerProfile
	if v.IsAdmin() {
		if strings.TrimSpace(req.BuyerID) == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "buyerId is required for admin sends")
		}
		profile = BuyerProfile{ID: req.BuyerID}
	} else {
		profile = profileOf(v)
	}
	msg := h.store.Append(profile, v.Role, req.Content)
	return c.JSON(http.StatusCreated, echo.Map{"message": msg})
}

func (h *handlers) markRead(c echo.Context) error {
	var req struct {
		ChatID string `json:"chatId"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if req.ChatID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "chatId is required")
	}
	if !h.store.MarkRead(req.ChatID, viewer(c).Role) {
		return echo.NewHTTPError(http.StatusNotFound, "chat not found")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handlers) unreadCount(c echo.Context) error {
	v := viewer(c)
	if v.IsAdmin() {
		return echo.NewHTTPError(http.StatusForbidden, "buyer only")
	}
	return c.JSON(http.StatusOK, echo.Map{"unreadCount": h.store.UnreadFor(v.UserID)})
}

func (h *handlers) deleteConversation(c echo.Context) error {
	if !viewer(c).IsAdmin() {
		return echo.NewHTTPError(http.StatusForbidden, "admin only")
	}
	buyerID := c.Param("buyerId")
	if !h.store.HideFromAdmin(buyerID) {
		return echo.NewHTTPError(http.StatusNotFound, "conversation not found")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handlers) clearChat(c echo.Context) error {
	chatID := c.Param("chatId")
	if !h.store.Clear(chatID) {
		return echo.NewHTTPError(http.StatusNotFound, "chat not found")
	}
	return c.NoContent(http.StatusNoContent)
}
