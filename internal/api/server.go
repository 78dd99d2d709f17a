package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/5thdimension/stacks-wallet/internal/stacks"
	"github.com/5thdimension/stacks-wallet/internal/transfer"
)

// transferRunner runs one transfer pipeline invocation.
type transferRunner interface {
	Run(ctx context.Context, req *transfer.Request) (string, error)
}

// Server is the HTTP surface in front of the transfer pipeline.
type Server struct {
	echo     *echo.Echo
	pipeline transferRunner
	logger   *logrus.Logger
}

// NewServer builds the echo server and its routes.
func NewServer(pipeline transferRunner, logger *logrus.Logger, extra ...echo.MiddlewareFunc) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	for _, m := range extra {
		e.Use(m)
	}

	s := &Server{echo: e, pipeline: pipeline, logger: logger}
	e.POST("/v1/transfers", s.postTransfer)
	e.GET("/healthz", s.getHealth)
	return s
}

// Start serves until the listener fails or Stop is called.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Stop shuts the listener down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

type transferRequest struct {
	Sender     string `json:"sender"`
	Recipient  string `json:"recipient"`
	Amount     string `json:"amount"`
	WalletType string `json:"wallet_type"`
	Memo       string `json:"memo"`
}

type transferResponse struct {
	TxID string `json:"txid"`
}

type failureResponse struct {
	Kind         string `json:"kind"`
	Message      string `json:"message"`
	Estimate     uint64 `json:"estimate,omitempty"`
	Balance      uint64 `json:"balance,omitempty"`
	Shortfall    uint64 `json:"shortfall,omitempty"`
	ResponseBody string `json:"response_body,omitempty"`
}

func (s *Server) postTransfer(c echo.Context) error {
	var body transferRequest
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	amount, err := stacks.ParseAmount(body.Amount)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	req := &transfer.Request{
		Sender:     body.Sender,
		Recipient:  body.Recipient,
		Amount:     amount,
		WalletType: transfer.WalletType(body.WalletType),
		Memo:       body.Memo,
	}

	txID, err := s.pipeline.Run(c.Request().Context(), req)
	if err != nil {
		var failure *transfer.Failure
		if errors.As(err, &failure) {
			return c.JSON(http.StatusUnprocessableEntity, failureResponse{
				Kind:         string(failure.Kind),
				Message:      failure.Message,
				Estimate:     failure.Estimate,
				Balance:      failure.Balance,
				Shortfall:    failure.Shortfall,
				ResponseBody: failure.ResponseBody,
			})
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, transferResponse{TxID: txID})
}

func (s *Server) getHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
