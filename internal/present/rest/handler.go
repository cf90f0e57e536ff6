package rest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/covault/covault"
	"github.com/covault/covault/internal/domain"
	"github.com/covault/covault/internal/present/rest/presenter"
	"github.com/covault/covault/internal/service"
	"github.com/covault/covault/internal/usecase"
)

type Handler struct {
	config     domain.Config
	wallets    *usecase.WalletUsecase
	membership *usecase.MembershipUsecase
	settings   *usecase.SettingsUsecase
	transfers  *usecase.TransferUsecase
	signal     *service.SignalService
}

func NewHandler(
	config domain.Config,
	wallets *usecase.WalletUsecase,
	membership *usecase.MembershipUsecase,
	settings *usecase.SettingsUsecase,
	transfers *usecase.TransferUsecase,
	signal *service.SignalService,
) *Handler {
	return &Handler{
		config:     config,
		wallets:    wallets,
		membership: membership,
		settings:   settings,
		transfers:  transfers,
		signal:     signal,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/.well-known/covault", h.handleWellKnown)
	e.POST("/api/v1/wallets", h.handleCreateWallet)
	e.GET("/api/v1/wallets/:id", h.handleGetWallet)
	e.PATCH("/api/v1/wallets/:id", h.handleUpdateWallet)
	e.POST("/api/v1/wallets/:id/archive", h.handleArchiveWallet)
	e.POST("/api/v1/wallets/:id/invites", h.handleInvite)
	e.POST("/api/v1/wallets/:id/accept", h.handleAccept)
	e.POST("/api/v1/wallets/:id/leave", h.handleLeave)
	e.DELETE("/api/v1/wallets/:id/members/:userID", h.handleRemoveMember)
	e.PUT("/api/v1/wallets/:id/members/:userID/role", h.handleUpdateRole)
	e.PUT("/api/v1/wallets/:id/members/:userID/permissions", h.handleUpdatePermissions)
	e.GET("/api/v1/wallets/:id/authorize", h.handleAuthorize)
	e.GET("/api/v1/wallets/:id/activity", h.handleActivity)
	e.GET("/api/v1/wallets/:id/key", h.handleKey)
	e.POST("/api/v1/wallets/:id/funding", h.handleFunding)
	e.POST("/api/v1/wallets/:id/withdrawals", h.handleWithdrawal)
	e.GET("/realtime", h.handleRealtime)
}

func (h *Handler) handleWellKnown(c echo.Context) error {
	wellknown := covault.WellKnownCovault{
		Version:   "1.0",
		Domain:    h.config.FQDN,
		ServiceID: h.config.ServiceID,
		Endpoints: map[string]covault.CovaultEndpoint{
			"net.covault.wallet.create": {
				Template: "/api/v1/wallets",
				Method:   "POST",
			},
			"net.covault.wallet.get": {
				Template: "/api/v1/wallets/{id}",
				Method:   "GET",
			},
			"net.covault.wallet.update": {
				Template: "/api/v1/wallets/{id}",
				Method:   "PATCH",
			},
			"net.covault.wallet.archive": {
				Template: "/api/v1/wallets/{id}/archive",
				Method:   "POST",
			},
			"net.covault.wallet.invite": {
				Template: "/api/v1/wallets/{id}/invites",
				Method:   "POST",
			},
			"net.covault.wallet.accept": {
				Template: "/api/v1/wallets/{id}/accept",
				Method:   "POST",
			},
			"net.covault.wallet.leave": {
				Template: "/api/v1/wallets/{id}/leave",
				Method:   "POST",
			},
			"net.covault.wallet.member.remove": {
				Template: "/api/v1/wallets/{id}/members/{userID}",
				Method:   "DELETE",
			},
			"net.covault.wallet.member.role": {
				Template: "/api/v1/wallets/{id}/members/{userID}/role",
				Method:   "PUT",
			},
			"net.covault.wallet.member.permissions": {
				Template: "/api/v1/wallets/{id}/members/{userID}/permissions",
				Method:   "PUT",
			},
			"net.covault.wallet.authorize": {
				Template: "/api/v1/wallets/{id}/authorize",
				Method:   "GET",
				Query:    &[]string{"action", "amount"},
			},
			"net.covault.wallet.activity": {
				Template: "/api/v1/wallets/{id}/activity",
				Method:   "GET",
				Query:    &[]string{"limit"},
			},
			"net.covault.wallet.key": {
				Template: "/api/v1/wallets/{id}/key",
				Method:   "GET",
			},
			"net.covault.wallet.funding": {
				Template: "/api/v1/wallets/{id}/funding",
				Method:   "POST",
			},
			"net.covault.wallet.withdrawals": {
				Template: "/api/v1/wallets/{id}/withdrawals",
				Method:   "POST",
			},
			"net.covault.realtime": {
				Template: "/realtime",
				Method:   "GET",
			},
		},
	}
	return presenter.OK(c, wellknown)
}

func (h *Handler) handleCreateWallet(c echo.Context) error {
	ctx := c.Request().Context()

	if _, ok := domain.PrincipalFromContext(ctx); !ok {
		return presenter.Unauthorized(c, "authentication required")
	}

	var input usecase.CreateWalletInput
	err := c.Bind(&input)
	if err != nil {
		return presenter.BadRequest(c, err)
	}

	wallet, err := h.wallets.Create(ctx, input)
	if err != nil {
		return presenter.Error(c, err)
	}

	return presenter.OK(c, wallet)
}

func (h *Handler) handleGetWallet(c echo.Context) error {
	ctx := c.Request().Context()

	principal, ok := domain.PrincipalFromContext(ctx)
	if !ok {
		return presenter.Unauthorized(c, "authentication required")
	}

	wallet, err := h.wallets.Get(ctx, c.Param("id"), principal)
	if err != nil {
		return presenter.Error(c, err)
	}

	return presenter.OK(c, wallet)
}

func (h *Handler) handleUpdateWallet(c echo.Context) error {
	ctx := c.Request().Context()

	principal, ok := domain.PrincipalFromContext(ctx)
	if !ok {
		return presenter.Unauthorized(c, "authentication required")
	}

	var patch usecase.WalletPatch
	err := c.Bind(&patch)
	if err != nil {
		return presenter.BadRequest(c, err)
	}

	wallet, err := h.settings.UpdateWallet(ctx, c.Param("id"), principal, patch)
	if err != nil {
		return presenter.Error(c, err)
	}

	return presenter.OK(c, wallet)
}

func (h *Handler) handleArchiveWallet(c echo.Context) error {
	ctx := c.Request().Context()

	principal, ok := domain.PrincipalFromContext(ctx)
	if !ok {
		return presenter.Unauthorized(c, "authentication required")
	}

	wallet, err := h.settings.Archive(ctx, c.Param("id"), principal)
	if err != nil {
		return presenter.Error(c, err)
	}

	return presenter.OK(c, wallet)
}

type inviteRequest struct {
	UserIDs []string `json:"userIds"`
}

func (h *Handler) handleInvite(c echo.Context) error {
	ctx := c.Request().Context()

	principal, ok := domain.PrincipalFromContext(ctx)
	if !ok {
		return presenter.Unauthorized(c, "authentication required")
	}

	var req inviteRequest
	err := c.Bind(&req)
	if err != nil {
		return presenter.BadRequest(c, err)
	}

	result, err := h.membership.Invite(ctx, c.Param("id"), principal, req.UserIDs)
	if err != nil {
		return presenter.Error(c, err)
	}

	return presenter.OK(c, result)
}

func (h *Handler) handleAccept(c echo.Context) error {
	ctx := c.Request().Context()

	principal, ok := domain.PrincipalFromContext(ctx)
	if !ok {
		return presenter.Unauthorized(c, "authentication required")
	}

	wallet, err := h.membership.Accept(ctx, c.Param("id"), principal)
	if err != nil {
		return presenter.Error(c, err)
	}

	return presenter.OK(c, wallet)
}

func (h *Handler) handleLeave(c echo.Context) error {
	ctx := c.Request().Context()

	principal, ok := domain.PrincipalFromContext(ctx)
	if !ok {
		return presenter.Unauthorized(c, "authentication required")
	}

	wallet, err := h.membership.Leave(ctx, c.Param("id"), principal)
	if err != nil {
		return presenter.Error(c, err)
	}

	return presenter.OK(c, wallet)
}

func (h *Handler) handleRemoveMember(c echo.Context) error {
	ctx := c.Request().Context()

	principal, ok := domain.PrincipalFromContext(ctx)
	if !ok {
		return presenter.Unauthorized(c, "authentication required")
	}

	wallet, err := h.membership.Remove(ctx, c.Param("id"), principal, c.Param("userID"))
	if err != nil {
		return presenter.Error(c, err)
	}

	return presenter.OK(c, wallet)
}

type roleRequest struct {
	Role string `json:"role"`
}

func (h *Handler) handleUpdateRole(c echo.Context) error {
	ctx := c.Request().Context()

	principal, ok := domain.PrincipalFromContext(ctx)
	if !ok {
		return presenter.Unauthorized(c, "authentication required")
	}

	var req roleRequest
	err := c.Bind(&req)
	if err != nil {
		return presenter.BadRequest(c, err)
	}

	role, ok := domain.ParseRole(req.Role)
	if !ok {
		return presenter.BadRequestMessage(c, "invalid role")
	}

	wallet, err := h.membership.UpdateRole(ctx, c.Param("id"), principal, c.Param("userID"), role)
	if err != nil {
		return presenter.Error(c, err)
	}

	return presenter.OK(c, wallet)
}

func (h *Handler) handleUpdatePermissions(c echo.Context) error {
	ctx := c.Request().Context()

	principal, ok := domain.PrincipalFromContext(ctx)
	if !ok {
		return presenter.Unauthorized(c, "authentication required")
	}

	var patch domain.PermissionOverride
	err := c.Bind(&patch)
	if err != nil {
		return presenter.BadRequest(c, err)
	}

	wallet, err := h.membership.UpdatePermissions(ctx, c.Param("id"), principal, c.Param("userID"), &patch)
	if err != nil {
		return presenter.Error(c, err)
	}

	return presenter.OK(c, wallet)
}

func (h *Handler) handleAuthorize(c echo.Context) error {
	ctx := c.Request().Context()

	principal, ok := domain.PrincipalFromContext(ctx)
	if !ok {
		return presenter.Unauthorized(c, "authentication required")
	}

	actionStr := c.QueryParam("action")
	if actionStr == "" {
		return presenter.BadRequestMessage(c, "action parameter is required")
	}

	action, ok := domain.ParseAction(actionStr)
	if !ok {
		return presenter.BadRequestMessage(c, "invalid action parameter")
	}

	amountStr := c.QueryParam("amount")
	if action == domain.ActionWithdraw && amountStr != "" {
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return presenter.BadRequestMessage(c, "invalid amount parameter")
		}

		decision, err := h.wallets.CanWithdraw(ctx, c.Param("id"), principal, amount)
		if err != nil {
			return presenter.Error(c, err)
		}
		return presenter.OK(c, decision)
	}

	decision, err := h.wallets.CanPerform(ctx, c.Param("id"), principal, action)
	if err != nil {
		return presenter.Error(c, err)
	}

	return presenter.OK(c, decision)
}

func (h *Handler) handleActivity(c echo.Context) error {
	ctx := c.Request().Context()

	principal, ok := domain.PrincipalFromContext(ctx)
	if !ok {
		return presenter.Unauthorized(c, "authentication required")
	}

	limit := 0
	limitStr := c.QueryParam("limit")
	if limitStr != "" {
		limitInt, err := strconv.Atoi(limitStr)
		if err != nil {
			return presenter.BadRequestMessage(c, "invalid limit parameter")
		}
		limit = limitInt
	}

	records, err := h.wallets.History(ctx, c.Param("id"), principal, limit)
	if err != nil {
		return presenter.Error(c, err)
	}

	return presenter.OK(c, records)
}

func (h *Handler) handleKey(c echo.Context) error {
	ctx := c.Request().Context()

	principal, ok := domain.PrincipalFromContext(ctx)
	if !ok {
		return presenter.Unauthorized(c, "authentication required")
	}

	record, err := h.wallets.Key(ctx, c.Param("id"), principal)
	if err != nil {
		return presenter.Error(c, err)
	}

	return presenter.OK(c, record)
}

type transferRequest struct {
	UserID string          `json:"userId"`
	Amount decimal.Decimal `json:"amount"`
}

func (h *Handler) handleFunding(c echo.Context) error {
	ctx := c.Request().Context()

	principal, ok := domain.PrincipalFromContext(ctx)
	if !ok {
		return presenter.Unauthorized(c, "authentication required")
	}
	if !covault.IsServiceID(principal) {
		return presenter.Error(c, domain.AuthorizationError{Reason: "transfer hooks are reserved for the pipeline service"})
	}

	var req transferRequest
	err := c.Bind(&req)
	if err != nil {
		return presenter.BadRequest(c, err)
	}

	wallet, err := h.transfers.RecordFunding(ctx, c.Param("id"), req.UserID, req.Amount)
	if err != nil {
		return presenter.Error(c, err)
	}

	return presenter.OK(c, wallet)
}

func (h *Handler) handleWithdrawal(c echo.Context) error {
	ctx := c.Request().Context()

	principal, ok := domain.PrincipalFromContext(ctx)
	if !ok {
		return presenter.Unauthorized(c, "authentication required")
	}
	if !covault.IsServiceID(principal) {
		return presenter.Error(c, domain.AuthorizationError{Reason: "transfer hooks are reserved for the pipeline service"})
	}

	var req transferRequest
	err := c.Bind(&req)
	if err != nil {
		return presenter.BadRequest(c, err)
	}

	wallet, err := h.transfers.RecordWithdrawal(ctx, c.Param("id"), req.UserID, req.Amount)
	if err != nil {
		return presenter.Error(c, err)
	}

	return presenter.OK(c, wallet)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Request struct {
	Type    string   `json:"type"`
	Wallets []string `json:"wallets"`
}

func (h *Handler) handleRealtime(c echo.Context) error {
	principal, ok := domain.PrincipalFromContext(c.Request().Context())
	if !ok {
		return presenter.Unauthorized(c, "authentication required")
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"Failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return err
	}
	defer func() {
		ws.Close()
	}()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	input := make(chan []string)
	output := make(chan covault.Event)

	go h.signal.Realtime(ctx, input, output)

	quit := make(chan struct{})

	go func() {
		defer close(quit)
		for {
			var req Request
			err := ws.ReadJSON(&req)
			if err != nil {

				wsErr, ok := err.(*websocket.CloseError)
				if ok {
					if !(wsErr.Code == websocket.CloseNormalClosure || wsErr.Code == websocket.CloseGoingAway) {
						slog.DebugContext(
							ctx, "WebSocket closed",
							slog.String("error", wsErr.Error()),
							slog.String("module", "socket"),
						)
					}
				} else {
					slog.ErrorContext(
						ctx, "Error reading message",
						slog.String("error", err.Error()),
						slog.String("module", "socket"),
					)
				}

				return
			}

			switch req.Type {
			case "listen":
				// Subscriptions are filtered to wallets the principal can
				// actually see; the rest are dropped silently.
				channels := make([]string, 0, len(req.Wallets))
				for _, walletID := range req.Wallets {
					if _, err := h.wallets.Get(ctx, walletID, principal); err != nil {
						continue
					}
					channels = append(channels, covault.WalletChannel(walletID))
				}

				select {
				case input <- channels:
				case <-ctx.Done():
					return
				}

				slog.DebugContext(
					ctx, fmt.Sprintf("Socket subscribe: %s", channels),
					slog.String("module", "socket"),
				)
			case "h": // heartbeat
				// do nothing
			default:
				slog.InfoContext(
					ctx, "Unknown request type",
					slog.String("type", req.Type),
					slog.String("module", "socket"),
				)
			}
		}
	}()

	for {
		select {
		case <-quit:
			return nil
		case event := <-output:
			err := ws.WriteJSON(event)
			if err != nil {
				slog.ErrorContext(
					ctx, "Error writing message",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
				return nil
			}
		}
	}
}
