package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/vitalvas/narsign/signing"
)

var errEmptyStorePath = errors.New("server: empty store path")

type signaturesResponse struct {
	Signatures []signing.Signature `json:"signatures"`
}

type publicKeysResponse struct {
	PublicKeys []signing.PublicKey `json:"public_keys"`
}

func (s *Server) handleSign(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		s.writeError(c, errors.Wrap(err, "read body"))
		return
	}

	sigs, err := s.svc.SignPayload(payload)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, signaturesResponse{Signatures: sigs})
}

func (s *Server) handleSignStorePath(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		s.writeError(c, errors.Wrap(err, "read body"))
		return
	}

	storePath := strings.TrimSpace(string(body))
	if storePath == "" {
		s.writeError(c, errEmptyStorePath)
		return
	}

	res, err := s.svc.SignStorePath(c.Request.Context(), storePath)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, signaturesResponse{Signatures: res.Signatures})
}

func (s *Server) handlePublicKey(c *gin.Context) {
	c.JSON(http.StatusOK, publicKeysResponse{PublicKeys: s.svc.PublicKeys()})
}
