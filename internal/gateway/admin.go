package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gokul1818/foodOrderAdmin/internal/domain"
)

// The admin surface drives the document store and the auth provider directly.
// It exists for operators and for end-to-end flows against a running instance;
// the console shell never calls it.

type signInRequest struct {
	ID string `json:"id"`
}

func (s *Server) handleSignIn(c echo.Context) error {
	var req signInRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.ID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "id is required"})
	}

	if err := s.auth.SignIn(c.Request().Context(), req.ID); err != nil {
		slog.Error("Failed to sign in", "id", req.ID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to sign in"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "signed in"})
}

func (s *Server) handleSignOut(c echo.Context) error {
	if err := s.auth.SignOut(c.Request().Context()); err != nil {
		slog.Error("Failed to sign out", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to sign out"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "signed out"})
}

func (s *Server) handlePutDocument(c echo.Context) error {
	collection := c.Param("collection")
	id := c.Param("id")

	body, err := io.ReadAll(c.Request().Body)
	if err != nil || !json.Valid(body) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid document body"})
	}

	if err := s.docs.Put(c.Request().Context(), collection, id, json.RawMessage(body)); err != nil {
		slog.Error("Failed to put document", "collection", collection, "id", id, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to write document"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetDocument(c echo.Context) error {
	collection := c.Param("collection")
	id := c.Param("id")

	doc, err := s.docs.Get(c.Request().Context(), collection, id)
	switch {
	case errors.Is(err, domain.ErrDocumentNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "document not found"})
	case err != nil:
		slog.Error("Failed to read document", "collection", collection, "id", id, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to read document"})
	}
	return c.JSONBlob(http.StatusOK, doc.Data)
}

func (s *Server) handleRemoveDocument(c echo.Context) error {
	collection := c.Param("collection")
	id := c.Param("id")

	if err := s.docs.Remove(c.Request().Context(), collection, id); err != nil {
		slog.Error("Failed to remove document", "collection", collection, "id", id, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to remove document"})
	}
	return c.NoContent(http.StatusNoContent)
}
