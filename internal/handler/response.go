package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-catalog-api/internal/model"
)

// envelope is the body of every API response.
type envelope struct {
	Success bool   `json:"success"`
	Msg     string `json:"msg"`
	Data    any    `json:"data"`
}

// loginEnvelope adds the logged in user and the bearer token.
type loginEnvelope struct {
	envelope
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

func ok(c echo.Context, status int, msg string, data any) error {
	return c.JSON(status, envelope{Success: true, Msg: msg, Data: data})
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, envelope{Success: false, Msg: msg, Data: nil})
}
