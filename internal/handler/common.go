package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// apiResponse is the envelope the storefront expects on every endpoint.
type apiResponse struct {
	Status bool        `json:"status"`
	Msg    string      `json:"msg"`
	Obj    interface{} `json:"obj"`
}

func successResponse(c echo.Context, msg string, obj interface{}) error {
	return c.JSON(http.StatusOK, apiResponse{
		Status: true,
		Msg:    msg,
		Obj:    obj,
	})
}

func errorResponse(c echo.Context, msg string) error {
	return c.JSON(http.StatusOK, apiResponse{
		Status: false,
		Msg:    msg,
		Obj:    nil,
	})
}
